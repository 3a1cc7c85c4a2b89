// Package vp validates holder-signed presentations: structure, holder
// proof with anti-replay binding, and every embedded credential through
// the vc validation pipeline.
package vp

import (
	"encoding/json"
	"fmt"

	"github.com/veridian/go-identity-sdk/credential/common/jsonmap"
	"github.com/veridian/go-identity-sdk/credential/common/jwt"
	"github.com/veridian/go-identity-sdk/did"
)

// Base context and type every presentation must carry.
const (
	BaseContextV1 = "https://www.w3.org/2018/credentials/v1"
	BaseContextV2 = "https://www.w3.org/ns/credentials/v2"
	BaseType      = "VerifiablePresentation"
)

// PresentationContents is the structured, read-only view of a decoded
// presentation.
type PresentationContents struct {
	Context []string
	ID      string
	Types   []string
	Holder  string
	// Credentials holds the embedded credential envelopes in their raw
	// form, in document order.
	Credentials [][]byte
}

// DecodedPresentation is a presentation whose envelope has been decoded.
// Envelope is nil for presentations secured with an embedded proof.
type DecodedPresentation struct {
	Contents PresentationContents
	Claims   jsonmap.JSONMap
	Envelope *jwt.Envelope
}

// Decode parses a signed presentation without verifying anything. The
// input is either a compact JWT or a JSON object with an embedded proof.
func Decode(rawPresentation []byte) (*DecodedPresentation, error) {
	if len(rawPresentation) == 0 {
		return nil, fmt.Errorf("%w: presentation is empty", ErrMalformedEnvelope)
	}

	if json.Valid(rawPresentation) {
		var doc jsonmap.JSONMap
		if err := json.Unmarshal(rawPresentation, &doc); err == nil {
			return decodeEmbedded(doc)
		}
	}

	if jwt.IsCompactJWT(string(rawPresentation)) {
		return decodeJWT(string(rawPresentation))
	}

	return nil, fmt.Errorf("%w: neither a JSON presentation nor a compact JWT", ErrMalformedEnvelope)
}

func decodeJWT(token string) (*DecodedPresentation, error) {
	envelope, err := jwt.ParseEnvelope(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	doc, err := envelope.Document("vp")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	contents, err := contentsFromDocument(doc)
	if err != nil {
		return nil, err
	}
	if contents.Holder == "" {
		contents.Holder = envelope.Claims.String("iss")
	}

	return &DecodedPresentation{Contents: contents, Claims: doc, Envelope: envelope}, nil
}

func decodeEmbedded(doc jsonmap.JSONMap) (*DecodedPresentation, error) {
	if _, exists := doc["proof"]; !exists {
		return nil, fmt.Errorf("%w: embedded presentation has no proof", ErrMalformedEnvelope)
	}

	contents, err := contentsFromDocument(doc)
	if err != nil {
		return nil, err
	}

	return &DecodedPresentation{Contents: contents, Claims: doc}, nil
}

func contentsFromDocument(doc jsonmap.JSONMap) (PresentationContents, error) {
	contents := PresentationContents{
		Context: doc.StringSlice("@context"),
		ID:      doc.String("id"),
		Types:   doc.StringSlice("type"),
		Holder:  doc.String("holder"),
	}

	raw, exists := doc["verifiableCredential"]
	if !exists {
		return contents, nil
	}

	entries, ok := raw.([]interface{})
	if !ok {
		entries = []interface{}{raw}
	}
	for _, entry := range entries {
		switch v := entry.(type) {
		case string:
			contents.Credentials = append(contents.Credentials, []byte(v))
		case map[string]interface{}:
			encoded, err := json.Marshal(v)
			if err != nil {
				return contents, fmt.Errorf("%w: invalid embedded credential: %w", ErrMalformedEnvelope, err)
			}
			contents.Credentials = append(contents.Credentials, encoded)
		default:
			return contents, fmt.Errorf("%w: invalid verifiableCredential entry type %T", ErrMalformedEnvelope, entry)
		}
	}

	return contents, nil
}

// ExtractHolder reads the holder identifier from a signed presentation
// without verifying anything. Callers use it to resolve the holder
// document before validation.
func ExtractHolder(rawPresentation []byte) (did.DID, error) {
	decoded, err := Decode(rawPresentation)
	if err != nil {
		return did.DID{}, err
	}
	if decoded.Contents.Holder == "" {
		return did.DID{}, fmt.Errorf("%w: presentation carries no holder", ErrMalformedEnvelope)
	}
	return did.Parse(decoded.Contents.Holder)
}

// ExtractIssuers reads the distinct issuer identifiers of every embedded
// credential, in first-seen order, without verifying anything.
func ExtractIssuers(rawPresentation []byte) ([]did.DID, error) {
	decoded, err := Decode(rawPresentation)
	if err != nil {
		return nil, err
	}

	var issuers []did.DID
	seen := make(map[did.DID]struct{})
	for i, rawCredential := range decoded.Contents.Credentials {
		issuer, err := credentialIssuer(rawCredential)
		if err != nil {
			return nil, &CredentialError{Index: i, Err: err}
		}
		if _, ok := seen[issuer]; ok {
			continue
		}
		seen[issuer] = struct{}{}
		issuers = append(issuers, issuer)
	}
	return issuers, nil
}

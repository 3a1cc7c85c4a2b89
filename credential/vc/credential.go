// Package vc validates signed verifiable credentials against the issuer's
// resolved DID document: envelope decoding, proof verification,
// structural and temporal checks, and revocation status.
package vc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/veridian/go-identity-sdk/credential/common/jsonmap"
	"github.com/veridian/go-identity-sdk/credential/common/jwt"
)

// Status represents the credentialStatus field as per W3C Verifiable
// Credentials.
type Status struct {
	ID                   string `json:"id,omitempty"`
	Type                 string `json:"type"`
	StatusPurpose        string `json:"statusPurpose,omitempty"`
	StatusListIndex      string `json:"statusListIndex,omitempty"`
	StatusListCredential string `json:"statusListCredential,omitempty"`
}

// Subject represents one credentialSubject entry.
type Subject struct {
	ID           string
	CustomFields map[string]interface{}
}

// CredentialContents is the structured, read-only view of a decoded
// credential.
type CredentialContents struct {
	Context         []string
	ID              string
	Types           []string
	Issuer          string
	ValidFrom       time.Time
	ValidUntil      time.Time
	Status          []Status
	Subject         []Subject
	NonTransferable bool
}

// DecodedCredential is a credential whose envelope has been decoded.
// Envelope is nil for credentials secured with an embedded proof.
type DecodedCredential struct {
	Contents CredentialContents
	Claims   jsonmap.JSONMap
	Envelope *jwt.Envelope
}

// Decode parses a signed credential without verifying anything. The input
// is either a compact JWT or a JSON object with an embedded proof.
func Decode(rawCredential []byte) (*DecodedCredential, error) {
	if len(rawCredential) == 0 {
		return nil, fmt.Errorf("%w: credential is empty", ErrMalformedEnvelope)
	}

	if json.Valid(rawCredential) {
		var doc jsonmap.JSONMap
		if err := json.Unmarshal(rawCredential, &doc); err == nil {
			return decodeEmbedded(doc)
		}
	}

	if jwt.IsCompactJWT(string(rawCredential)) {
		return decodeJWT(string(rawCredential))
	}

	return nil, fmt.Errorf("%w: neither a JSON credential nor a compact JWT", ErrMalformedEnvelope)
}

func decodeJWT(token string) (*DecodedCredential, error) {
	envelope, err := jwt.ParseEnvelope(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	doc, err := envelope.Document("vc")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	contents, err := contentsFromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	// Registered JWT claims take precedence over the embedded document.
	if iss := envelope.Claims.String("iss"); iss != "" {
		contents.Issuer = iss
	}
	if id := envelope.Claims.String("jti"); id != "" {
		contents.ID = id
	}
	if exp, ok := epochClaim(envelope.Claims, "exp"); ok {
		contents.ValidUntil = exp
	}
	if nbf, ok := epochClaim(envelope.Claims, "nbf"); ok {
		contents.ValidFrom = nbf
	} else if iat, ok := epochClaim(envelope.Claims, "iat"); ok {
		contents.ValidFrom = iat
	}

	return &DecodedCredential{Contents: contents, Claims: doc, Envelope: envelope}, nil
}

func decodeEmbedded(doc jsonmap.JSONMap) (*DecodedCredential, error) {
	if _, exists := doc["proof"]; !exists {
		return nil, fmt.Errorf("%w: embedded credential has no proof", ErrMalformedEnvelope)
	}

	contents, err := contentsFromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	return &DecodedCredential{Contents: contents, Claims: doc}, nil
}

func contentsFromDocument(doc jsonmap.JSONMap) (CredentialContents, error) {
	contents := CredentialContents{
		Context: doc.StringSlice("@context"),
		ID:      doc.String("id"),
		Types:   doc.StringSlice("type"),
		Issuer:  issuerID(doc),
	}

	var err error
	if contents.ValidFrom, err = timeField(doc, "validFrom", "issuanceDate"); err != nil {
		return contents, err
	}
	if contents.ValidUntil, err = timeField(doc, "validUntil", "expirationDate"); err != nil {
		return contents, err
	}

	for _, entry := range doc.Objects("credentialStatus") {
		contents.Status = append(contents.Status, Status{
			ID:                   entry.String("id"),
			Type:                 entry.String("type"),
			StatusPurpose:        entry.String("statusPurpose"),
			StatusListIndex:      entry.String("statusListIndex"),
			StatusListCredential: entry.String("statusListCredential"),
		})
	}

	for _, entry := range doc.Objects("credentialSubject") {
		subject := Subject{ID: entry.String("id"), CustomFields: map[string]interface{}{}}
		for key, value := range entry {
			if key != "id" {
				subject.CustomFields[key] = value
			}
		}
		contents.Subject = append(contents.Subject, subject)
	}

	if nt, ok := doc["nonTransferable"].(bool); ok {
		contents.NonTransferable = nt
	}

	return contents, nil
}

// issuerID reads the issuer field, which is either a string or an object
// carrying an id.
func issuerID(doc jsonmap.JSONMap) string {
	switch v := doc["issuer"].(type) {
	case string:
		return v
	case map[string]interface{}:
		return jsonmap.JSONMap(v).String("id")
	default:
		return ""
	}
}

func timeField(doc jsonmap.JSONMap, keys ...string) (time.Time, error) {
	for _, key := range keys {
		value := doc.String(key)
		if value == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid %s timestamp %q: %w", key, value, err)
		}
		return parsed, nil
	}
	return time.Time{}, nil
}

func epochClaim(claims jsonmap.JSONMap, key string) (time.Time, bool) {
	switch v := claims[key].(type) {
	case float64:
		return time.Unix(int64(v), 0).UTC(), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return time.Unix(n, 0).UTC(), true
		}
	}
	return time.Time{}, false
}

package jwt

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/veridian/go-identity-sdk/credential/common/jsonmap"
	"github.com/veridian/go-identity-sdk/did"
)

var compactJWTPattern = regexp.MustCompile(`^[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*$`)

// IsCompactJWT reports whether a string looks like a compact JWT.
func IsCompactJWT(s string) bool {
	return compactJWTPattern.MatchString(strings.TrimSpace(s))
}

// Envelope is a decoded compact JWT: header, claims and signature, plus
// the exact signing input the signature covers.
type Envelope struct {
	Header       jsonmap.JSONMap
	Claims       jsonmap.JSONMap
	SigningInput []byte
	Signature    []byte
}

// ParseEnvelope decodes a compact JWT without verifying its signature.
func ParseEnvelope(token string) (*Envelope, error) {
	token = strings.Trim(strings.TrimSpace(token), `"`)

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWT format: expected 3 parts, got %d", len(parts))
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid JWT header encoding: %w", err)
	}
	var header jsonmap.JSONMap
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("invalid JWT header: %w", err)
	}

	claimsBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid JWT payload encoding: %w", err)
	}
	var claims jsonmap.JSONMap
	if err := json.Unmarshal(claimsBytes, &claims); err != nil {
		return nil, fmt.Errorf("invalid JWT payload: %w", err)
	}

	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("invalid JWT signature encoding: %w", err)
	}

	return &Envelope{
		Header:       header,
		Claims:       claims,
		SigningInput: []byte(parts[0] + "." + parts[1]),
		Signature:    signature,
	}, nil
}

// Alg returns the header's algorithm name.
func (e *Envelope) Alg() string {
	return e.Header.String("alg")
}

// KeyID returns the header's key reference.
func (e *Envelope) KeyID() string {
	return e.Header.String("kid")
}

// VerifyWithMethod verifies the envelope's signature against a
// verification method, dispatching on the header's algorithm name.
func (e *Envelope) VerifyWithMethod(vm *did.VerificationMethod) error {
	alg := e.Alg()
	if alg == "" {
		return fmt.Errorf("JWT header carries no algorithm")
	}
	if len(e.Signature) == 0 {
		return fmt.Errorf("JWT carries no signature")
	}

	suite, err := SuiteFor(alg)
	if err != nil {
		return err
	}

	return suite.Verify(e.SigningInput, e.Signature, vm)
}

// Document extracts the embedded document object (the "vc" or "vp" claim).
func (e *Envelope) Document(docType string) (jsonmap.JSONMap, error) {
	documentData, ok := e.Claims[docType]
	if !ok {
		return nil, fmt.Errorf("claim %q not found in JWT", docType)
	}

	documentMap, ok := documentData.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("claim %q is not a JSON object", docType)
	}

	return jsonmap.JSONMap(documentMap), nil
}

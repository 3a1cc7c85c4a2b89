package jwt

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/veridian/go-identity-sdk/credential/common/jsonmap"
)

// Signer signs verifiable documents (credentials and presentations) as
// compact ES256K JWTs on behalf of a DID.
type Signer struct {
	privKeyHex  string
	signerDID   string
	keyFragment string
}

// NewSigner creates a signer for the given DID. keyFragment names the
// verification method the signature resolves to; it defaults to "key-1".
func NewSigner(privKeyHex, signerDID, keyFragment string) *Signer {
	if keyFragment == "" {
		keyFragment = "key-1"
	}
	return &Signer{
		privKeyHex:  privKeyHex,
		signerDID:   signerDID,
		keyFragment: keyFragment,
	}
}

// KeyID returns the verification method reference written into the JWT
// header.
func (s *Signer) KeyID() string {
	return fmt.Sprintf("%s#%s", s.signerDID, s.keyFragment)
}

// SignDocument signs a document map as a JWT under the given claim key
// ("vc" or "vp"). Additional registered claims (iss, sub, exp, nonce...)
// may be merged in.
func (s *Signer) SignDocument(doc jsonmap.JSONMap, docType string, additionalClaims ...map[string]interface{}) (string, error) {
	if _, ok := doc["id"].(string); !ok {
		doc["id"] = "urn:uuid:" + uuid.NewString()
	}

	claims := jwt.MapClaims{
		docType: map[string]interface{}(doc),
	}
	for _, extra := range additionalClaims {
		for key, value := range extra {
			claims[key] = value
		}
	}

	token := jwt.NewWithClaims(ES256K, claims)
	token.Header["typ"] = "JWT"
	token.Header["kid"] = s.KeyID()

	signedString, err := token.SignedString(s.privKeyHex)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedString, nil
}

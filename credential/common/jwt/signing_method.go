package jwt

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/veridian/go-identity-sdk/credential/common/crypto"
)

// SigningMethodES256K implements ES256K (secp256k1 + SHA-256) signing
// for the golang-jwt token builder.
type SigningMethodES256K struct{}

// ES256K is the ES256K signing method instance.
var ES256K = &SigningMethodES256K{}

func init() {
	jwt.RegisterSigningMethod(ES256K.Alg(), func() jwt.SigningMethod {
		return ES256K
	})
}

// Alg returns the algorithm name.
func (m *SigningMethodES256K) Alg() string {
	return "ES256K"
}

// Sign signs the signing string with a hex-encoded secp256k1 private key,
// returning the 64-byte [r || s] signature.
func (m *SigningMethodES256K) Sign(signingString string, key interface{}) ([]byte, error) {
	privKeyHex, ok := key.(string)
	if !ok {
		return nil, fmt.Errorf("invalid key type %T, want hex-encoded private key string", key)
	}

	return crypto.ECDSASign([]byte(signingString), privKeyHex)
}

// Verify verifies a signature against a *ecdsa.PublicKey or a hex-encoded
// public key string.
func (m *SigningMethodES256K) Verify(signingString string, signature []byte, key interface{}) error {
	switch k := key.(type) {
	case string:
		pubKey, err := crypto.ParseSecp256k1PublicKeyHex(k)
		if err != nil {
			return fmt.Errorf("invalid public key: %w", err)
		}
		return crypto.ECDSAVerify(pubKey, []byte(signingString), signature)
	default:
		return fmt.Errorf("invalid key type %T, want hex-encoded public key string", key)
	}
}

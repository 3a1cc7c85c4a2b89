package jwt

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/veridian/go-identity-sdk/credential/common/crypto"
	"github.com/veridian/go-identity-sdk/did"
)

// SignatureSuite verifies a signature over a signing input using the key
// material carried by a verification method. Concrete algorithms (EdDSA,
// BBS+, post-quantum schemes) are injected implementations of this one
// contract; validators contain no algorithm-specific cryptography.
type SignatureSuite interface {
	// Alg returns the JOSE algorithm name the suite answers for.
	Alg() string

	// Verify checks signature over signingInput against the verification
	// method's key material.
	Verify(signingInput, signature []byte, vm *did.VerificationMethod) error
}

var (
	suitesMu sync.RWMutex
	suites   = map[string]SignatureSuite{
		"ES256K": es256kSuite{},
		"EdDSA":  eddsaSuite{},
	}
)

// RegisterSuite registers a signature suite, replacing any suite already
// registered for the same algorithm name. Call during setup.
func RegisterSuite(s SignatureSuite) {
	suitesMu.Lock()
	defer suitesMu.Unlock()
	suites[s.Alg()] = s
}

// SuiteFor returns the suite registered for an algorithm name.
func SuiteFor(alg string) (SignatureSuite, error) {
	suitesMu.RLock()
	defer suitesMu.RUnlock()

	suite, ok := suites[alg]
	if !ok {
		return nil, fmt.Errorf("no signature suite registered for algorithm %q", alg)
	}
	return suite, nil
}

// cryptosuiteAlgs maps data-integrity cryptosuite names onto the JOSE
// algorithm names the suites are registered under.
var cryptosuiteAlgs = map[string]string{
	"ecdsa-rdfc-2019": "ES256K",
	"eddsa-rdfc-2022": "EdDSA",
}

// SuiteForCryptosuite returns the suite serving a data-integrity
// cryptosuite name.
func SuiteForCryptosuite(name string) (SignatureSuite, error) {
	alg, ok := cryptosuiteAlgs[name]
	if !ok {
		return nil, fmt.Errorf("no signature suite registered for cryptosuite %q", name)
	}
	return SuiteFor(alg)
}

type es256kSuite struct{}

func (es256kSuite) Alg() string { return "ES256K" }

func (es256kSuite) Verify(signingInput, signature []byte, vm *did.VerificationMethod) error {
	if vm.PublicKeyHex == "" {
		return fmt.Errorf("verification method %q carries no publicKeyHex", vm.ID)
	}

	pubKey, err := crypto.ParseSecp256k1PublicKeyHex(vm.PublicKeyHex)
	if err != nil {
		return fmt.Errorf("invalid public key in verification method %q: %w", vm.ID, err)
	}

	return crypto.ECDSAVerify(pubKey, signingInput, signature)
}

type eddsaSuite struct{}

func (eddsaSuite) Alg() string { return "EdDSA" }

func (eddsaSuite) Verify(signingInput, signature []byte, vm *did.VerificationMethod) error {
	key, err := ed25519KeyFromMethod(vm)
	if err != nil {
		return err
	}
	return crypto.Ed25519Verify(key, signingInput, signature)
}

func ed25519KeyFromMethod(vm *did.VerificationMethod) (ed25519.PublicKey, error) {
	if jwk := vm.PublicKeyJwk; jwk != nil {
		if jwk.Kty != "OKP" || jwk.Crv != "Ed25519" {
			return nil, fmt.Errorf("verification method %q JWK is not an Ed25519 key", vm.ID)
		}
		keyBytes, err := base64.RawURLEncoding.DecodeString(jwk.X)
		if err != nil {
			return nil, fmt.Errorf("invalid JWK x coordinate in %q: %w", vm.ID, err)
		}
		return ed25519.PublicKey(keyBytes), nil
	}

	if vm.PublicKeyHex != "" {
		keyBytes, err := hex.DecodeString(strings.TrimPrefix(vm.PublicKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid publicKeyHex in %q: %w", vm.ID, err)
		}
		return ed25519.PublicKey(keyBytes), nil
	}

	return nil, fmt.Errorf("verification method %q carries no key material", vm.ID)
}

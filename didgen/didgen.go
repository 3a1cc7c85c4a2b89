// Package didgen generates key pairs and DID documents for identities
// whose method-specific identifier is derived from a secp256k1 key.
package didgen

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/veridian/go-identity-sdk/credential/common/jwt"
	"github.com/veridian/go-identity-sdk/did"
)

// DefaultKeyFragment is the fragment of the verification method generated
// documents bind their key to.
const DefaultKeyFragment = "key-1"

// KeyPair holds a generated secp256k1 key pair together with the DID it
// derives.
type KeyPair struct {
	DID           did.DID
	Address       string
	PublicKeyHex  string
	PrivateKeyHex string
}

// GenerateKeyPair generates a new secp256k1 key pair under the given DID
// method. The method-specific identifier is the lowercase keccak address
// of the public key.
func GenerateKeyPair(method string) (*KeyPair, error) {
	privKey, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return keyPairFrom(method, privKey)
}

// KeyPairFromPrivateKeyHex rebuilds the key pair of an existing
// hex-encoded private key.
func KeyPairFromPrivateKeyHex(method, privateKeyHex string) (*KeyPair, error) {
	privKey, err := ethcrypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return keyPairFrom(method, privKey)
}

func keyPairFrom(method string, privKey *ecdsa.PrivateKey) (*KeyPair, error) {
	address := strings.ToLower(ethcrypto.PubkeyToAddress(privKey.PublicKey).Hex())

	identifier, err := did.Parse(fmt.Sprintf("did:%s:%s", method, address))
	if err != nil {
		return nil, fmt.Errorf("invalid DID method %q: %w", method, err)
	}

	return &KeyPair{
		DID:           identifier,
		Address:       address,
		PublicKeyHex:  hex.EncodeToString(ethcrypto.CompressPubkey(&privKey.PublicKey)),
		PrivateKeyHex: hex.EncodeToString(ethcrypto.FromECDSA(privKey)),
	}, nil
}

// KeyID returns the verification method id of the key pair's default key.
func (kp *KeyPair) KeyID() string {
	return kp.DID.String() + "#" + DefaultKeyFragment
}

// Signer returns a JWT signer bound to the key pair's default key.
func (kp *KeyPair) Signer() *jwt.Signer {
	return jwt.NewSigner(kp.PrivateKeyHex, kp.DID.String(), DefaultKeyFragment)
}

// DocumentOption configures document generation.
type DocumentOption func(*documentConfig)

type documentConfig struct {
	controller string
	services   []did.Service
	metadata   map[string]interface{}
}

// WithController sets the document controller.
func WithController(controller string) DocumentOption {
	return func(c *documentConfig) {
		c.controller = controller
	}
}

// WithService appends a service endpoint to the document.
func WithService(service did.Service) DocumentOption {
	return func(c *documentConfig) {
		c.services = append(c.services, service)
	}
}

// WithMetadata merges entries into the document metadata.
func WithMetadata(metadata map[string]interface{}) DocumentOption {
	return func(c *documentConfig) {
		if c.metadata == nil {
			c.metadata = make(map[string]interface{}, len(metadata))
		}
		for k, v := range metadata {
			c.metadata[k] = v
		}
	}
}

// NewDocument builds a DID document for the key pair. The key is bound to
// both the authentication and assertionMethod relationships, so documents
// generated here can hold credentials and sign presentations.
func NewDocument(kp *KeyPair, options ...DocumentOption) *did.CoreDocument {
	cfg := documentConfig{}
	for _, opt := range options {
		opt(&cfg)
	}

	keyRef, _ := json.Marshal(kp.KeyID())

	doc := &did.CoreDocument{
		Context: []string{
			"https://www.w3.org/ns/did/v1",
			"https://w3id.org/security/v1",
		},
		ID: kp.DID.String(),
		VerificationMethod: []did.VerificationMethod{{
			ID:           kp.KeyID(),
			Type:         "EcdsaSecp256k1VerificationKey2019",
			Controller:   kp.DID.String(),
			PublicKeyHex: kp.PublicKeyHex,
		}},
		Authentication:  []json.RawMessage{keyRef},
		AssertionMethod: []json.RawMessage{keyRef},
		Service:         cfg.services,
		Metadata:        cfg.metadata,
	}
	if cfg.controller != "" {
		doc.Controller = cfg.controller
	}
	return doc
}

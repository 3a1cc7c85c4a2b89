// Package crypto provides the signature primitives backing the built-in
// signature suites: secp256k1 (ES256K) and Ed25519 (EdDSA).
package crypto

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/crypto"
)

// ParseSecp256k1PublicKeyHex parses a hex-encoded secp256k1 public key.
// Both compressed (33 bytes) and uncompressed (65 bytes) encodings are
// accepted; an optional 0x prefix is stripped.
func ParseSecp256k1PublicKeyHex(publicKeyHex string) (*ecdsa.PublicKey, error) {
	publicKeyHex = strings.TrimPrefix(publicKeyHex, "0x")

	publicKeyBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key hex: %w", err)
	}

	if len(publicKeyBytes) == 33 && (publicKeyBytes[0] == 0x02 || publicKeyBytes[0] == 0x03) {
		pubKeyParsed, err := btcec.ParsePubKey(publicKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse compressed public key: %w", err)
		}
		return pubKeyParsed.ToECDSA(), nil
	}

	if len(publicKeyBytes) == 65 && publicKeyBytes[0] == 0x04 {
		return crypto.UnmarshalPubkey(publicKeyBytes)
	}

	return nil, fmt.Errorf("unsupported public key format: %d bytes", len(publicKeyBytes))
}

// ECDSASign signs a message with a hex-encoded secp256k1 private key.
// The message is hashed with SHA-256; the result is the 64-byte [r || s]
// signature without the recovery byte.
func ECDSASign(message []byte, hexPrivateKey string) ([]byte, error) {
	privKey, err := crypto.HexToECDSA(strings.TrimPrefix(hexPrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	hash := sha256.Sum256(message)
	signature, err := crypto.Sign(hash[:], privKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}

	return signature[:64], nil
}

// ECDSAVerify verifies a 64-byte [r || s] secp256k1 signature over the
// SHA-256 hash of message. A 65-byte [r || s || v] signature is accepted
// by ignoring the recovery byte.
func ECDSAVerify(publicKey *ecdsa.PublicKey, message, signature []byte) error {
	if len(signature) == 65 {
		signature = signature[:64]
	}
	if len(signature) != 64 {
		return fmt.Errorf("invalid signature length: got %d, want 64 or 65 bytes", len(signature))
	}

	hash := sha256.Sum256(message)
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])

	if !ecdsa.Verify(publicKey, hash[:], r, s) {
		return fmt.Errorf("secp256k1 signature verification failed")
	}
	return nil
}

// PublicKeyHex returns the compressed hex encoding of a secp256k1 public
// key derived from a hex-encoded private key.
func PublicKeyHex(hexPrivateKey string) (string, error) {
	privKey, err := crypto.HexToECDSA(strings.TrimPrefix(hexPrivateKey, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	return hex.EncodeToString(crypto.CompressPubkey(&privKey.PublicKey)), nil
}

// Ed25519Verify verifies an Ed25519 signature over message.
func Ed25519Verify(publicKey ed25519.PublicKey, message, signature []byte) error {
	if len(publicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid Ed25519 public key length: %d", len(publicKey))
	}
	if !ed25519.Verify(publicKey, message, signature) {
		return fmt.Errorf("Ed25519 signature verification failed")
	}
	return nil
}

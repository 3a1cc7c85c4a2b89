package jsonmap

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/veridian/go-identity-sdk/credential/common/crypto"
	"github.com/veridian/go-identity-sdk/credential/common/dto"
	"github.com/veridian/go-identity-sdk/credential/common/processor"
)

// JSONMap represents a JSON object as a map.
type JSONMap map[string]interface{}

// ToJSON serializes the JSONMap to JSON.
func (m JSONMap) ToJSON() ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("JSONMap is nil")
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSONMap: %w", err)
	}
	return data, nil
}

// StringSlice reads the value at key as a slice of strings. Scalar string
// values are returned as a one-element slice.
func (m JSONMap) StringSlice(key string) []string {
	switch v := m[key].(type) {
	case string:
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	default:
		return nil
	}
}

// String reads the value at key as a string, empty when absent or of
// another type.
func (m JSONMap) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Objects reads the value at key as a slice of JSON objects. A single
// object value is returned as a one-element slice.
func (m JSONMap) Objects(key string) []JSONMap {
	switch v := m[key].(type) {
	case map[string]interface{}:
		return []JSONMap{JSONMap(v)}
	case []interface{}:
		out := make([]JSONMap, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]interface{}); ok {
				out = append(out, JSONMap(obj))
			}
		}
		return out
	default:
		return nil
	}
}

// SigningDigest canonicalizes the document without its proof field and
// returns the SHA-256 digest used as data-integrity signing input.
func (m JSONMap) SigningDigest() ([]byte, error) {
	withoutProof := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k != "proof" {
			withoutProof[k] = v
		}
	}

	canonical, err := processor.CanonicalizeDocument(withoutProof)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize document: %w", err)
	}

	return processor.ComputeDigest(canonical), nil
}

// AddECDSAProof signs the document with the ecdsa-rdfc-2019 cryptosuite
// and attaches the resulting DataIntegrityProof. An existing proof is
// replaced.
func (m JSONMap) AddECDSAProof(privKeyHex, verificationMethod, proofPurpose string) error {
	if verificationMethod == "" {
		return fmt.Errorf("verification method is required")
	}
	if proofPurpose == "" {
		return fmt.Errorf("proof purpose is required")
	}

	proof := dto.Proof{
		Type:               "DataIntegrityProof",
		Created:            time.Now().UTC().Format(time.RFC3339),
		VerificationMethod: verificationMethod,
		ProofPurpose:       proofPurpose,
		Cryptosuite:        "ecdsa-rdfc-2019",
	}

	digest, err := m.SigningDigest()
	if err != nil {
		return err
	}

	signature, err := crypto.ECDSASign(digest, privKeyHex)
	if err != nil {
		return fmt.Errorf("failed to sign proof: %w", err)
	}
	proof.ProofValue = hex.EncodeToString(signature)

	encoded, err := json.Marshal(proof)
	if err != nil {
		return fmt.Errorf("failed to marshal proof: %w", err)
	}
	var proofMap map[string]interface{}
	if err := json.Unmarshal(encoded, &proofMap); err != nil {
		return fmt.Errorf("failed to normalize proof: %w", err)
	}

	m["proof"] = proofMap
	return nil
}

// Proofs reads and parses the document's proof entries.
func (m JSONMap) Proofs() ([]dto.Proof, error) {
	raw, exists := m["proof"]
	if !exists {
		return nil, fmt.Errorf("document has no proof")
	}

	var entries []JSONMap
	switch v := raw.(type) {
	case map[string]interface{}:
		entries = []JSONMap{JSONMap(v)}
	case []interface{}:
		for _, item := range v {
			obj, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("invalid proof entry type %T", item)
			}
			entries = append(entries, JSONMap(obj))
		}
	default:
		return nil, fmt.Errorf("invalid proof format: %T", raw)
	}

	proofs := make([]dto.Proof, 0, len(entries))
	for _, entry := range entries {
		proofs = append(proofs, dto.Proof{
			Type:               entry.String("type"),
			Created:            entry.String("created"),
			VerificationMethod: entry.String("verificationMethod"),
			ProofPurpose:       entry.String("proofPurpose"),
			ProofValue:         entry.String("proofValue"),
			Cryptosuite:        entry.String("cryptosuite"),
			Challenge:          entry.String("challenge"),
			Domain:             entry.String("domain"),
		})
	}
	return proofs, nil
}

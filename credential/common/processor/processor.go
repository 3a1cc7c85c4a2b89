// Package processor provides JSON-LD canonicalization for documents
// carrying embedded data-integrity proofs.
package processor

import (
	"crypto/sha256"
	"fmt"

	"github.com/piprate/json-gold/ld"
)

// defaultDocumentLoader caches remote contexts to prevent repeated
// fetches across calls.
var defaultDocumentLoader ld.DocumentLoader

func init() {
	innerLoader := ld.NewDefaultDocumentLoader(nil)
	defaultDocumentLoader = ld.NewCachingDocumentLoader(innerLoader)
}

// SetDocumentLoader replaces the context loader used for
// canonicalization. Call during setup, before concurrent use.
func SetDocumentLoader(loader ld.DocumentLoader) {
	if loader != nil {
		defaultDocumentLoader = loader
	}
}

// CanonicalizeDocument normalizes a JSON-LD document to URDNA2015
// N-Quads form.
func CanonicalizeDocument(doc map[string]interface{}) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("failed to canonicalize document: document is nil")
	}

	proc := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")
	options.Format = "application/n-quads"
	options.Algorithm = ld.AlgorithmURDNA2015
	options.DocumentLoader = defaultDocumentLoader

	canonicalized, err := proc.Normalize(doc, options)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}

	normalized, ok := canonicalized.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected normalization result type %T", canonicalized)
	}
	return []byte(normalized), nil
}

// ComputeDigest computes the SHA-256 digest of the input data.
func ComputeDigest(data []byte) []byte {
	hash := sha256.Sum256(data)
	return hash[:]
}

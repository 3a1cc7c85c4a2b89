package did

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    DID
		expectError bool
		errorMsg    string
	}{
		{
			name:     "Valid DID",
			input:    "did:example:alice",
			expected: DID{Method: "example", MethodID: "alice"},
		},
		{
			name:     "Method-specific id with colons",
			input:    "did:nda:testnet:0xabc123",
			expected: DID{Method: "nda", MethodID: "testnet:0xabc123"},
		},
		{
			name:        "Missing scheme",
			input:       "example:alice",
			expectError: true,
			errorMsg:    "does not start with scheme",
		},
		{
			name:        "Missing method-specific id",
			input:       "did:example",
			expectError: true,
			errorMsg:    "missing method or method-specific id",
		},
		{
			name:        "Empty method",
			input:       "did::alice",
			expectError: true,
			errorMsg:    "missing method or method-specific id",
		},
		{
			name:        "Uppercase method",
			input:       "did:Example:alice",
			expectError: true,
			errorMsg:    "invalid character",
		},
		{
			name:        "Fragment rejected by Parse",
			input:       "did:example:alice#key-1",
			expectError: true,
			errorMsg:    "unexpected fragment",
		},
		{
			name:        "Empty string",
			input:       "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse(tt.input)

			if tt.expectError {
				assert.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedIdentifier)
				if tt.errorMsg != "" {
					assert.Contains(t, err.Error(), tt.errorMsg)
				}
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
			assert.Equal(t, tt.input, result.String())
		})
	}
}

func TestParseURL(t *testing.T) {
	d, fragment, err := ParseURL("did:example:alice#key-1")
	assert.NoError(t, err)
	assert.Equal(t, DID{Method: "example", MethodID: "alice"}, d)
	assert.Equal(t, "key-1", fragment)

	d, fragment, err = ParseURL("did:example:alice")
	assert.NoError(t, err)
	assert.Equal(t, "alice", d.MethodID)
	assert.Empty(t, fragment)

	_, _, err = ParseURL("https://example.org#key-1")
	assert.ErrorIs(t, err, ErrMalformedIdentifier)
}

func TestDIDAsMapKey(t *testing.T) {
	docs := map[DID]string{
		MustParse("did:example:alice"): "alice",
		MustParse("did:example:bob"):   "bob",
	}
	assert.Equal(t, "alice", docs[MustParse("did:example:alice")])
}

package did

import (
	"fmt"
	"strings"
)

// ErrMalformedIdentifier is returned when a string cannot be parsed as a DID.
var ErrMalformedIdentifier = fmt.Errorf("malformed DID identifier")

// DID is a parsed decentralized identifier of the form did:<method>:<method-specific-id>.
// It is an immutable value type and can be used as a map key.
type DID struct {
	Method   string
	MethodID string
}

// Parse parses a DID string into its method and method-specific id.
// Fragments and queries are not part of a bare DID and are rejected;
// use ParseURL for verification-method references.
func Parse(s string) (DID, error) {
	d, fragment, err := parse(s)
	if err != nil {
		return DID{}, err
	}
	if fragment != "" {
		return DID{}, fmt.Errorf("%w: unexpected fragment in %q", ErrMalformedIdentifier, s)
	}
	return d, nil
}

// ParseURL parses a DID URL of the form did:<method>:<id>[#fragment] and
// returns the bare DID together with the fragment (empty when absent).
func ParseURL(s string) (DID, string, error) {
	return parse(s)
}

func parse(s string) (DID, string, error) {
	rest, fragment, _ := strings.Cut(s, "#")

	if !strings.HasPrefix(rest, "did:") {
		return DID{}, "", fmt.Errorf("%w: %q does not start with scheme \"did:\"", ErrMalformedIdentifier, s)
	}

	method, methodID, found := strings.Cut(rest[len("did:"):], ":")
	if !found || method == "" || methodID == "" {
		return DID{}, "", fmt.Errorf("%w: %q is missing method or method-specific id", ErrMalformedIdentifier, s)
	}

	for _, r := range method {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return DID{}, "", fmt.Errorf("%w: method %q contains invalid character %q", ErrMalformedIdentifier, method, r)
		}
	}

	return DID{Method: method, MethodID: methodID}, fragment, nil
}

// MustParse parses a DID string and panics on failure. Intended for tests
// and static identifiers.
func MustParse(s string) DID {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the canonical did:<method>:<id> form.
func (d DID) String() string {
	return "did:" + d.Method + ":" + d.MethodID
}

// IsZero reports whether the DID is the zero value.
func (d DID) IsZero() bool {
	return d.Method == "" && d.MethodID == ""
}

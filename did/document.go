package did

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Relationship identifies the verification relationship a verification
// method is bound to within a document.
type Relationship int

const (
	// RelationshipAny matches a verification method regardless of the
	// relationship set it appears in.
	RelationshipAny Relationship = iota
	Authentication
	AssertionMethod
	KeyAgreement
	CapabilityInvocation
	CapabilityDelegation
)

// String returns the document property name of the relationship.
func (r Relationship) String() string {
	switch r {
	case Authentication:
		return "authentication"
	case AssertionMethod:
		return "assertionMethod"
	case KeyAgreement:
		return "keyAgreement"
	case CapabilityInvocation:
		return "capabilityInvocation"
	case CapabilityDelegation:
		return "capabilityDelegation"
	default:
		return "any"
	}
}

// JWK represents a JSON Web Key structure.
type JWK struct {
	Kty string `json:"kty"` // Key type
	Crv string `json:"crv"` // Curve
	X   string `json:"x"`   // X coordinate
	Y   string `json:"y,omitempty"` // Y coordinate
}

// VerificationMethod represents a single verification method in a DID
// document. Key material is carried in one of the supported encodings.
type VerificationMethod struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Controller   string `json:"controller"`
	PublicKeyHex string `json:"publicKeyHex,omitempty"`
	PublicKeyJwk *JWK   `json:"publicKeyJwk,omitempty"`
}

// Document is the minimal contract any resolved identifier document must
// satisfy to take part in resolution and validation. Concrete method
// documents are otherwise opaque to this SDK.
type Document interface {
	// DID returns the document's identifier.
	DID() DID

	// Controllers returns the identifiers authorized to make changes to
	// the document. May be empty.
	Controllers() []DID

	// ResolveVerificationMethod resolves a verification method by its id
	// (absolute "did:...#frag" or bare "#frag") constrained to the given
	// relationship. RelationshipAny searches every relationship set.
	ResolveVerificationMethod(query string, rel Relationship) (*VerificationMethod, error)
}

// CoreDocument is the generic JSON representation of a DID document. It
// implements Document and is the default output of resolution handlers
// that do not carry a method-specific document type.
type CoreDocument struct {
	Context              []string               `json:"@context"`
	ID                   string                 `json:"id"`
	Controller           interface{}            `json:"controller,omitempty"` // string or []string
	VerificationMethod   []VerificationMethod   `json:"verificationMethod,omitempty"`
	Authentication       []json.RawMessage      `json:"authentication,omitempty"`
	AssertionMethod      []json.RawMessage      `json:"assertionMethod,omitempty"`
	KeyAgreement         []json.RawMessage      `json:"keyAgreement,omitempty"`
	CapabilityInvocation []json.RawMessage      `json:"capabilityInvocation,omitempty"`
	CapabilityDelegation []json.RawMessage      `json:"capabilityDelegation,omitempty"`
	Service              []Service              `json:"service,omitempty"`
	Metadata             map[string]interface{} `json:"didDocumentMetadata,omitempty"`
}

// Service represents a service endpoint entry in a DID document.
type Service struct {
	ID              string      `json:"id"`
	Type            string      `json:"type"`
	ServiceEndpoint interface{} `json:"serviceEndpoint"`
}

// ParseCoreDocument parses a JSON DID document.
func ParseCoreDocument(raw []byte) (*CoreDocument, error) {
	var doc CoreDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DID document JSON: %w", err)
	}
	if _, err := Parse(doc.ID); err != nil {
		return nil, fmt.Errorf("invalid document id: %w", err)
	}
	return &doc, nil
}

// DID returns the document identifier. The id is validated at parse time;
// documents constructed directly must carry a well-formed id.
func (d *CoreDocument) DID() DID {
	parsed, err := Parse(d.ID)
	if err != nil {
		return DID{}
	}
	return parsed
}

// Controllers returns the controller identifiers of the document.
func (d *CoreDocument) Controllers() []DID {
	var out []DID
	appendController := func(s string) {
		if parsed, err := Parse(s); err == nil {
			out = append(out, parsed)
		}
	}

	switch c := d.Controller.(type) {
	case string:
		appendController(c)
	case []string:
		for _, s := range c {
			appendController(s)
		}
	case []interface{}:
		for _, v := range c {
			if s, ok := v.(string); ok {
				appendController(s)
			}
		}
	}
	return out
}

// ResolveVerificationMethod implements Document.
func (d *CoreDocument) ResolveVerificationMethod(query string, rel Relationship) (*VerificationMethod, error) {
	target := d.absoluteMethodID(query)

	if rel == RelationshipAny {
		for _, set := range []Relationship{Authentication, AssertionMethod, KeyAgreement, CapabilityInvocation, CapabilityDelegation} {
			if vm, err := d.ResolveVerificationMethod(query, set); err == nil {
				return vm, nil
			}
		}
		// Fall back to the top-level verificationMethod list.
		for i := range d.VerificationMethod {
			if d.absoluteMethodID(d.VerificationMethod[i].ID) == target {
				return &d.VerificationMethod[i], nil
			}
		}
		return nil, fmt.Errorf("verification method %q not found in document %q", query, d.ID)
	}

	for _, entry := range d.relationshipSet(rel) {
		vm, err := d.methodFromEntry(entry)
		if err != nil {
			continue
		}
		if d.absoluteMethodID(vm.ID) == target {
			return vm, nil
		}
	}
	return nil, fmt.Errorf("verification method %q not found in %s relationship of document %q", query, rel, d.ID)
}

func (d *CoreDocument) relationshipSet(rel Relationship) []json.RawMessage {
	switch rel {
	case Authentication:
		return d.Authentication
	case AssertionMethod:
		return d.AssertionMethod
	case KeyAgreement:
		return d.KeyAgreement
	case CapabilityInvocation:
		return d.CapabilityInvocation
	case CapabilityDelegation:
		return d.CapabilityDelegation
	default:
		return nil
	}
}

// methodFromEntry decodes a relationship entry, which is either a string
// reference into the verificationMethod list or an embedded method object.
func (d *CoreDocument) methodFromEntry(entry json.RawMessage) (*VerificationMethod, error) {
	var ref string
	if err := json.Unmarshal(entry, &ref); err == nil {
		target := d.absoluteMethodID(ref)
		for i := range d.VerificationMethod {
			if d.absoluteMethodID(d.VerificationMethod[i].ID) == target {
				return &d.VerificationMethod[i], nil
			}
		}
		return nil, fmt.Errorf("dangling verification method reference %q", ref)
	}

	var vm VerificationMethod
	if err := json.Unmarshal(entry, &vm); err != nil {
		return nil, fmt.Errorf("invalid verification relationship entry: %w", err)
	}
	return &vm, nil
}

// absoluteMethodID expands a bare "#fragment" reference against the
// document id so references and ids compare in one form.
func (d *CoreDocument) absoluteMethodID(id string) string {
	if strings.HasPrefix(id, "#") {
		return d.ID + id
	}
	return id
}

package credentialstatus

// StatusListCredential models the verifiable credential published at a
// statusListCredential URL. Only the fields the lookup needs are typed.
type StatusListCredential struct {
	Context           []string                    `json:"@context"`
	ID                string                      `json:"id"`
	Type              []string                    `json:"type"`
	Issuer            string                      `json:"issuer"`
	ValidFrom         string                      `json:"validFrom,omitempty"`
	ValidUntil        string                      `json:"validUntil,omitempty"`
	CredentialSubject StatusListCredentialSubject `json:"credentialSubject"`
	Proof             map[string]interface{}      `json:"proof,omitempty"`
}

// StatusListCredentialSubject carries the encoded bitstring.
type StatusListCredentialSubject struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	StatusPurpose string `json:"statusPurpose,omitempty"`
	EncodedList   string `json:"encodedList"`
}

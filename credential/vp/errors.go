package vp

import (
	"errors"
	"fmt"
)

// Validation error kinds for presentations. Per-credential failures are
// wrapped in CredentialError; credential-level kinds live in the vc
// package.
var (
	ErrMalformedEnvelope                  = errors.New("malformed presentation envelope")
	ErrInvalidStructure                   = errors.New("invalid presentation structure")
	ErrHolderMismatch                     = errors.New("presentation holder mismatch")
	ErrSignatureChallengeMismatch         = errors.New("presentation signature challenge mismatch")
	ErrSubjectHolderRelationshipViolation = errors.New("credential subject does not match presentation holder")
	ErrMissingIssuerDocument              = errors.New("no issuer document supplied for credential issuer")
)

// CredentialError tags a validation failure with the position of the
// embedded credential it concerns.
type CredentialError struct {
	Index int
	Err   error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential %d: %v", e.Index, e.Err)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

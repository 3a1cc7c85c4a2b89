package vc

import (
	"errors"
	"strings"
)

// Validation error kinds. Every failure returned by Validate wraps one of
// these so callers can branch with errors.Is.
var (
	ErrMalformedEnvelope        = errors.New("malformed credential envelope")
	ErrProofVerificationFailed  = errors.New("credential proof verification failed")
	ErrInvalidStructure         = errors.New("invalid credential structure")
	ErrExpiredCredential        = errors.New("credential expired")
	ErrIssuedInFuture           = errors.New("credential issued in the future")
	ErrUnsupportedStatusType    = errors.New("unsupported credential status type")
	ErrCredentialRevoked        = errors.New("credential revoked")
	ErrInvalidEncodedStatusList = errors.New("invalid encoded status list")
)

// CompoundError aggregates the failures of every check run under
// AllErrors. It matches errors.Is/errors.As against each entry.
type CompoundError struct {
	Errs []error
}

func (e *CompoundError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the aggregated errors to the errors package.
func (e *CompoundError) Unwrap() []error {
	return e.Errs
}

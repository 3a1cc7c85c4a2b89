package vc

import (
	"context"
	"time"
)

// FailFast selects how many errors a multi-step validation reports.
type FailFast int

const (
	// FirstError stops at the first failing check.
	FirstError FailFast = iota
	// AllErrors runs every check and returns a CompoundError.
	AllErrors
)

// StatusCheck governs how the credentialStatus field is enforced.
type StatusCheck int

const (
	// StatusCheckStrict rejects status types other than
	// RevocationBitmap2022 and enforces the supported type.
	StatusCheckStrict StatusCheck = iota
	// StatusCheckSkipUnsupported treats unsupported status types as
	// "not revoked" while still enforcing supported ones.
	StatusCheckSkipUnsupported
	// StatusCheckSkipAll never consults the status field.
	StatusCheckSkipAll
)

// StatusListLookup supplies the encoded status list referenced by a
// credential's status entry. The HTTP fetch lives outside the validator;
// see the credential-status package for a ready-made client.
type StatusListLookup func(ctx context.Context, status Status) (string, error)

// ValidationOptions are the policy knobs for one validation call.
type ValidationOptions struct {
	earliestExpiry   time.Time
	latestIssuance   time.Time
	statusCheck      StatusCheck
	statusListLookup StatusListLookup
	failFast         FailFast
}

// ValidationOpt configures a validation call.
type ValidationOpt func(*ValidationOptions)

// WithEarliestExpiryDate requires the credential to remain valid until at
// least t. Defaults to the time of the call.
func WithEarliestExpiryDate(t time.Time) ValidationOpt {
	return func(o *ValidationOptions) {
		o.earliestExpiry = t
	}
}

// WithLatestIssuanceDate requires the credential to have been issued no
// later than t. Defaults to the time of the call.
func WithLatestIssuanceDate(t time.Time) ValidationOpt {
	return func(o *ValidationOptions) {
		o.latestIssuance = t
	}
}

// WithStatusCheck sets the status enforcement mode.
func WithStatusCheck(mode StatusCheck) ValidationOpt {
	return func(o *ValidationOptions) {
		o.statusCheck = mode
	}
}

// WithStatusListLookup wires the source of encoded status lists.
func WithStatusListLookup(lookup StatusListLookup) ValidationOpt {
	return func(o *ValidationOptions) {
		o.statusListLookup = lookup
	}
}

// WithFailFast sets the error aggregation policy.
func WithFailFast(mode FailFast) ValidationOpt {
	return func(o *ValidationOptions) {
		o.failFast = mode
	}
}

// NewValidationOptions applies opts over the defaults: temporal bounds at
// the time of the call, strict status checking, first-error reporting.
func NewValidationOptions(opts ...ValidationOpt) *ValidationOptions {
	options := &ValidationOptions{
		statusCheck: StatusCheckStrict,
		failFast:    FirstError,
	}
	for _, opt := range opts {
		opt(options)
	}

	now := time.Now().UTC()
	if options.earliestExpiry.IsZero() {
		options.earliestExpiry = now
	}
	if options.latestIssuance.IsZero() {
		options.latestIssuance = now
	}
	return options
}

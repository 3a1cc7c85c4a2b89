package vp

import (
	"github.com/veridian/go-identity-sdk/credential/vc"
)

// SubjectHolderRelationship is the policy tying credential subjects to
// the presentation holder.
type SubjectHolderRelationship int

const (
	// AlwaysSubject requires every credential subject to equal the holder.
	AlwaysSubject SubjectHolderRelationship = iota
	// SubjectOnNonTransferable enforces the equality only for credentials
	// marked nonTransferable.
	SubjectOnNonTransferable
	// AnyRelationship enforces nothing.
	AnyRelationship
)

// ValidationOptions are the policy knobs for one presentation validation
// call.
type ValidationOptions struct {
	challenge      string
	domain         string
	relationship   SubjectHolderRelationship
	failFast       vc.FailFast
	credentialOpts []vc.ValidationOpt
}

// ValidationOpt configures a presentation validation call.
type ValidationOpt func(*ValidationOptions)

// WithChallenge requires the holder signature to cover the given
// anti-replay challenge.
func WithChallenge(challenge string) ValidationOpt {
	return func(o *ValidationOptions) {
		o.challenge = challenge
	}
}

// WithDomain requires the holder signature to be bound to the given
// domain.
func WithDomain(domain string) ValidationOpt {
	return func(o *ValidationOptions) {
		o.domain = domain
	}
}

// WithSubjectHolderRelationship sets the subject-holder policy. The
// default is AlwaysSubject.
func WithSubjectHolderRelationship(rel SubjectHolderRelationship) ValidationOpt {
	return func(o *ValidationOptions) {
		o.relationship = rel
	}
}

// WithFailFast sets the error aggregation policy, scoped across the
// holder checks and every embedded credential.
func WithFailFast(mode vc.FailFast) ValidationOpt {
	return func(o *ValidationOptions) {
		o.failFast = mode
	}
}

// WithCredentialOptions forwards options to the per-credential
// validation.
func WithCredentialOptions(opts ...vc.ValidationOpt) ValidationOpt {
	return func(o *ValidationOptions) {
		o.credentialOpts = append(o.credentialOpts, opts...)
	}
}

// NewValidationOptions applies opts over the defaults: AlwaysSubject,
// first-error reporting, no challenge or domain binding.
func NewValidationOptions(opts ...ValidationOpt) *ValidationOptions {
	options := &ValidationOptions{
		relationship: AlwaysSubject,
		failFast:     vc.FirstError,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// credentialOptions builds the vc options used for embedded credentials,
// propagating the presentation's aggregation policy.
func (o *ValidationOptions) credentialOptions() *vc.ValidationOptions {
	opts := append([]vc.ValidationOpt{}, o.credentialOpts...)
	opts = append(opts, vc.WithFailFast(o.failFast))
	return vc.NewValidationOptions(opts...)
}

package vc

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/veridian/go-identity-sdk/credential/common/jwt"
	"github.com/veridian/go-identity-sdk/did"
	"github.com/veridian/go-identity-sdk/revocation"
)

// Base context and type every credential must carry.
const (
	BaseContextV1 = "https://www.w3.org/2018/credentials/v1"
	BaseContextV2 = "https://www.w3.org/ns/credentials/v2"
	BaseType      = "VerifiableCredential"
)

// Validate decodes a signed credential and runs every enabled check
// against the issuer's document: proof, structure, temporal bounds and
// revocation status. Under FirstError the first failing check is
// returned; under AllErrors every failure is aggregated into a
// CompoundError. The decoded credential is returned whenever the envelope
// itself could be decoded, also alongside check failures.
func Validate(ctx context.Context, rawCredential []byte, issuer did.Document, opts ...ValidationOpt) (*DecodedCredential, error) {
	return ValidateWithOptions(ctx, rawCredential, issuer, NewValidationOptions(opts...))
}

// ValidateWithOptions is Validate with pre-built options, for callers
// that validate many credentials under one policy.
func ValidateWithOptions(ctx context.Context, rawCredential []byte, issuer did.Document, options *ValidationOptions) (*DecodedCredential, error) {
	decoded, err := Decode(rawCredential)
	if err != nil {
		return nil, err
	}

	if err := ValidateDecoded(ctx, decoded, issuer, options); err != nil {
		return decoded, err
	}
	return decoded, nil
}

// ValidateDecoded runs the post-decode checks on an already decoded
// credential.
func ValidateDecoded(ctx context.Context, decoded *DecodedCredential, issuer did.Document, options *ValidationOptions) error {
	checks := []func() []error{
		func() []error { return checkProof(decoded, issuer) },
		func() []error { return checkStructure(decoded, issuer) },
		func() []error { return checkTemporal(decoded, options) },
		func() []error { return checkStatus(ctx, decoded, options) },
	}

	var failures []error
	for _, check := range checks {
		errs := check()
		if len(errs) == 0 {
			continue
		}
		if options.failFast == FirstError {
			return errs[0]
		}
		failures = append(failures, errs...)
	}

	if len(failures) > 0 {
		return &CompoundError{Errs: failures}
	}
	return nil
}

func checkProof(decoded *DecodedCredential, issuer did.Document) []error {
	if decoded.Envelope != nil {
		return checkJWTProof(decoded.Envelope, issuer)
	}
	return checkEmbeddedProof(decoded, issuer)
}

func checkJWTProof(envelope *jwt.Envelope, issuer did.Document) []error {
	kid := envelope.KeyID()
	if kid == "" {
		return []error{fmt.Errorf("%w: JWT header carries no key reference", ErrProofVerificationFailed)}
	}

	vm, err := resolveSigningMethod(issuer, kid)
	if err != nil {
		return []error{fmt.Errorf("%w: %w", ErrProofVerificationFailed, err)}
	}

	if err := envelope.VerifyWithMethod(vm); err != nil {
		return []error{fmt.Errorf("%w: %w", ErrProofVerificationFailed, err)}
	}
	return nil
}

func checkEmbeddedProof(decoded *DecodedCredential, issuer did.Document) []error {
	proofs, err := decoded.Claims.Proofs()
	if err != nil {
		return []error{fmt.Errorf("%w: %w", ErrProofVerificationFailed, err)}
	}
	if len(proofs) == 0 {
		return []error{fmt.Errorf("%w: document has no proof", ErrProofVerificationFailed)}
	}
	proof := proofs[0]

	suite, err := jwt.SuiteForCryptosuite(proof.Cryptosuite)
	if err != nil {
		return []error{fmt.Errorf("%w: %w", ErrProofVerificationFailed, err)}
	}

	vm, err := resolveSigningMethod(issuer, proof.VerificationMethod)
	if err != nil {
		return []error{fmt.Errorf("%w: %w", ErrProofVerificationFailed, err)}
	}

	digest, err := decoded.Claims.SigningDigest()
	if err != nil {
		return []error{fmt.Errorf("%w: %w", ErrProofVerificationFailed, err)}
	}

	signature, err := hex.DecodeString(proof.ProofValue)
	if err != nil {
		return []error{fmt.Errorf("%w: invalid proof value encoding: %w", ErrProofVerificationFailed, err)}
	}

	if err := suite.Verify(digest, signature, vm); err != nil {
		return []error{fmt.Errorf("%w: %w", ErrProofVerificationFailed, err)}
	}
	return nil
}

// resolveSigningMethod resolves the signing key reference within the
// issuer document, preferring the assertionMethod relationship.
func resolveSigningMethod(issuer did.Document, query string) (*did.VerificationMethod, error) {
	if vm, err := issuer.ResolveVerificationMethod(query, did.AssertionMethod); err == nil {
		return vm, nil
	}
	return issuer.ResolveVerificationMethod(query, did.RelationshipAny)
}

func checkStructure(decoded *DecodedCredential, issuer did.Document) []error {
	var errs []error
	contents := decoded.Contents

	if !containsAny(contents.Context, BaseContextV1, BaseContextV2) {
		errs = append(errs, fmt.Errorf("%w: missing base @context", ErrInvalidStructure))
	}
	if !containsAny(contents.Types, BaseType) {
		errs = append(errs, fmt.Errorf("%w: missing base type %q", ErrInvalidStructure, BaseType))
	}
	if len(contents.Subject) == 0 {
		errs = append(errs, fmt.Errorf("%w: missing credentialSubject", ErrInvalidStructure))
	}
	if contents.Issuer != issuer.DID().String() {
		errs = append(errs, fmt.Errorf("%w: issuer %q does not match document %q", ErrInvalidStructure, contents.Issuer, issuer.DID()))
	}
	return errs
}

func checkTemporal(decoded *DecodedCredential, options *ValidationOptions) []error {
	var errs []error
	contents := decoded.Contents

	if !contents.ValidUntil.IsZero() && contents.ValidUntil.Before(options.earliestExpiry) {
		errs = append(errs, fmt.Errorf("%w: expired %s, required to remain valid until %s",
			ErrExpiredCredential, contents.ValidUntil.Format(time.RFC3339), options.earliestExpiry.Format(time.RFC3339)))
	}
	if !contents.ValidFrom.IsZero() && contents.ValidFrom.After(options.latestIssuance) {
		errs = append(errs, fmt.Errorf("%w: issued %s, later than allowed %s",
			ErrIssuedInFuture, contents.ValidFrom.Format(time.RFC3339), options.latestIssuance.Format(time.RFC3339)))
	}
	return errs
}

func checkStatus(ctx context.Context, decoded *DecodedCredential, options *ValidationOptions) []error {
	if options.statusCheck == StatusCheckSkipAll {
		return nil
	}

	var errs []error
	for _, status := range decoded.Contents.Status {
		if status.Type != revocation.StatusType2022 {
			if options.statusCheck == StatusCheckStrict {
				errs = append(errs, fmt.Errorf("%w: %q", ErrUnsupportedStatusType, status.Type))
			}
			continue
		}

		if err := checkRevocationBitmap(ctx, status, options); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func checkRevocationBitmap(ctx context.Context, status Status, options *ValidationOptions) error {
	index, err := strconv.Atoi(status.StatusListIndex)
	if err != nil || index < 0 {
		return fmt.Errorf("%w: invalid status list index %q", ErrInvalidEncodedStatusList, status.StatusListIndex)
	}

	if options.statusListLookup == nil {
		return fmt.Errorf("%w: no status list source configured", ErrInvalidEncodedStatusList)
	}

	encoded, err := options.statusListLookup(ctx, status)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEncodedStatusList, err)
	}

	list, err := revocation.Decode(encoded)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEncodedStatusList, err)
	}

	// An index beyond the list means the bit was never set.
	if revoked, ok := list.Get(index); ok && revoked {
		return fmt.Errorf("%w: status list index %d is set", ErrCredentialRevoked, index)
	}
	return nil
}

func containsAny(haystack []string, needles ...string) bool {
	for _, value := range haystack {
		for _, needle := range needles {
			if value == needle {
				return true
			}
		}
	}
	return false
}

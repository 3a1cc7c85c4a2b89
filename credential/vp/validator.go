package vp

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/veridian/go-identity-sdk/credential/common/jwt"
	"github.com/veridian/go-identity-sdk/credential/vc"
	"github.com/veridian/go-identity-sdk/did"
)

// Validate decodes a signed presentation and checks its structure, the
// holder's proof, and every embedded credential against the matching
// issuer document. The aggregation policy spans the holder checks and
// all credentials; under AllErrors each per-credential failure is tagged
// with the credential's position.
func Validate(ctx context.Context, rawPresentation []byte, holder did.Document, issuers []did.Document, opts ...ValidationOpt) (*DecodedPresentation, error) {
	options := NewValidationOptions(opts...)

	decoded, err := Decode(rawPresentation)
	if err != nil {
		return nil, err
	}

	var failures []error
	collect := func(errs ...error) error {
		for _, err := range errs {
			if err == nil {
				continue
			}
			if options.failFast == vc.FirstError {
				return err
			}
			failures = append(failures, err)
		}
		return nil
	}

	if err := collect(checkStructure(decoded)...); err != nil {
		return decoded, err
	}
	if err := collect(checkHolderProof(decoded, holder, options)...); err != nil {
		return decoded, err
	}

	credentialOptions := options.credentialOptions()
	for i, rawCredential := range decoded.Contents.Credentials {
		errs := validateCredential(ctx, rawCredential, holder, issuers, options, credentialOptions)
		for j := range errs {
			errs[j] = &CredentialError{Index: i, Err: errs[j]}
		}
		if err := collect(errs...); err != nil {
			return decoded, err
		}
	}

	if len(failures) > 0 {
		return decoded, &vc.CompoundError{Errs: failures}
	}
	return decoded, nil
}

func checkStructure(decoded *DecodedPresentation) []error {
	var errs []error
	contents := decoded.Contents

	if len(contents.Context) == 0 || (contents.Context[0] != BaseContextV1 && contents.Context[0] != BaseContextV2) {
		errs = append(errs, fmt.Errorf("%w: base @context must be present and first", ErrInvalidStructure))
	}

	hasBaseType := false
	for _, t := range contents.Types {
		if t == BaseType {
			hasBaseType = true
			break
		}
	}
	if !hasBaseType {
		errs = append(errs, fmt.Errorf("%w: missing base type %q", ErrInvalidStructure, BaseType))
	}
	return errs
}

func checkHolderProof(decoded *DecodedPresentation, holder did.Document, options *ValidationOptions) []error {
	var errs []error

	if decoded.Contents.Holder != holder.DID().String() {
		errs = append(errs, fmt.Errorf("%w: declared holder %q, document %q",
			ErrHolderMismatch, decoded.Contents.Holder, holder.DID()))
	}

	if decoded.Envelope != nil {
		errs = append(errs, checkJWTHolderProof(decoded.Envelope, holder, options)...)
	} else {
		errs = append(errs, checkEmbeddedHolderProof(decoded, holder, options)...)
	}
	return errs
}

func checkJWTHolderProof(envelope *jwt.Envelope, holder did.Document, options *ValidationOptions) []error {
	var errs []error

	kid := envelope.KeyID()
	if kid == "" {
		return []error{fmt.Errorf("%w: JWT header carries no key reference", vc.ErrProofVerificationFailed)}
	}

	vm, err := resolveHolderMethod(holder, kid)
	if err != nil {
		return []error{fmt.Errorf("%w: %w", vc.ErrProofVerificationFailed, err)}
	}
	if err := envelope.VerifyWithMethod(vm); err != nil {
		return []error{fmt.Errorf("%w: %w", vc.ErrProofVerificationFailed, err)}
	}

	if options.challenge != "" && envelope.Claims.String("nonce") != options.challenge {
		errs = append(errs, fmt.Errorf("%w: nonce claim does not match expected challenge", ErrSignatureChallengeMismatch))
	}
	if options.domain != "" && envelope.Claims.String("aud") != options.domain {
		errs = append(errs, fmt.Errorf("%w: aud claim does not match expected domain", ErrSignatureChallengeMismatch))
	}
	return errs
}

func checkEmbeddedHolderProof(decoded *DecodedPresentation, holder did.Document, options *ValidationOptions) []error {
	var errs []error

	proofs, err := decoded.Claims.Proofs()
	if err != nil {
		return []error{fmt.Errorf("%w: %w", vc.ErrProofVerificationFailed, err)}
	}
	if len(proofs) == 0 {
		return []error{fmt.Errorf("%w: presentation has no proof", vc.ErrProofVerificationFailed)}
	}
	proof := proofs[0]

	suite, err := jwt.SuiteForCryptosuite(proof.Cryptosuite)
	if err != nil {
		return []error{fmt.Errorf("%w: %w", vc.ErrProofVerificationFailed, err)}
	}
	vm, err := resolveHolderMethod(holder, proof.VerificationMethod)
	if err != nil {
		return []error{fmt.Errorf("%w: %w", vc.ErrProofVerificationFailed, err)}
	}

	digest, err := decoded.Claims.SigningDigest()
	if err != nil {
		return []error{fmt.Errorf("%w: %w", vc.ErrProofVerificationFailed, err)}
	}
	signature, err := hex.DecodeString(proof.ProofValue)
	if err != nil {
		return []error{fmt.Errorf("%w: invalid proof value encoding: %w", vc.ErrProofVerificationFailed, err)}
	}
	if err := suite.Verify(digest, signature, vm); err != nil {
		return []error{fmt.Errorf("%w: %w", vc.ErrProofVerificationFailed, err)}
	}

	if options.challenge != "" && proof.Challenge != options.challenge {
		errs = append(errs, fmt.Errorf("%w: proof challenge does not match expected challenge", ErrSignatureChallengeMismatch))
	}
	if options.domain != "" && proof.Domain != options.domain {
		errs = append(errs, fmt.Errorf("%w: proof domain does not match expected domain", ErrSignatureChallengeMismatch))
	}
	return errs
}

// resolveHolderMethod resolves the holder's signing key, preferring the
// authentication relationship.
func resolveHolderMethod(holder did.Document, query string) (*did.VerificationMethod, error) {
	if vm, err := holder.ResolveVerificationMethod(query, did.Authentication); err == nil {
		return vm, nil
	}
	return holder.ResolveVerificationMethod(query, did.RelationshipAny)
}

func validateCredential(ctx context.Context, rawCredential []byte, holder did.Document, issuers []did.Document, options *ValidationOptions, credentialOptions *vc.ValidationOptions) []error {
	decoded, err := vc.Decode(rawCredential)
	if err != nil {
		return []error{err}
	}

	issuerDoc, err := issuerDocumentFor(decoded, issuers)
	if err != nil {
		return []error{err}
	}

	var errs []error
	if err := vc.ValidateDecoded(ctx, decoded, issuerDoc, credentialOptions); err != nil {
		var compound *vc.CompoundError
		if errors.As(err, &compound) {
			errs = append(errs, compound.Errs...)
		} else {
			errs = append(errs, err)
		}
	}

	errs = append(errs, checkSubjectHolderRelationship(decoded, holder, options)...)
	return errs
}

func issuerDocumentFor(decoded *vc.DecodedCredential, issuers []did.Document) (did.Document, error) {
	issuer, err := did.Parse(decoded.Contents.Issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingIssuerDocument, err)
	}

	for _, doc := range issuers {
		if doc.DID() == issuer {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrMissingIssuerDocument, issuer)
}

func checkSubjectHolderRelationship(decoded *vc.DecodedCredential, holder did.Document, options *ValidationOptions) []error {
	if options.relationship == AnyRelationship {
		return nil
	}
	if options.relationship == SubjectOnNonTransferable && !decoded.Contents.NonTransferable {
		return nil
	}

	holderID := holder.DID().String()
	var errs []error
	for _, subject := range decoded.Contents.Subject {
		if subject.ID != holderID {
			errs = append(errs, fmt.Errorf("%w: subject %q, holder %q",
				ErrSubjectHolderRelationshipViolation, subject.ID, holderID))
		}
	}
	return errs
}

func credentialIssuer(rawCredential []byte) (did.DID, error) {
	decoded, err := vc.Decode(rawCredential)
	if err != nil {
		return did.DID{}, err
	}
	return did.Parse(decoded.Contents.Issuer)
}

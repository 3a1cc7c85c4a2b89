package vp

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkcrypto "github.com/veridian/go-identity-sdk/credential/common/crypto"
	"github.com/veridian/go-identity-sdk/credential/common/jsonmap"
	"github.com/veridian/go-identity-sdk/credential/common/jwt"
	"github.com/veridian/go-identity-sdk/credential/vc"
	"github.com/veridian/go-identity-sdk/did"
)

func newIdentity(t *testing.T, didStr string) (string, *did.CoreDocument) {
	t.Helper()

	privKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	privHex := hex.EncodeToString(ethcrypto.FromECDSA(privKey))

	pubHex, err := sdkcrypto.PublicKeyHex(privHex)
	require.NoError(t, err)

	doc, err := did.ParseCoreDocument([]byte(`{
		"@context": ["https://www.w3.org/ns/did/v1"],
		"id": "` + didStr + `",
		"verificationMethod": [{
			"id": "` + didStr + `#key-1",
			"type": "EcdsaSecp256k1VerificationKey2019",
			"controller": "` + didStr + `",
			"publicKeyHex": "` + pubHex + `"
		}],
		"authentication": ["#key-1"],
		"assertionMethod": ["#key-1"]
	}`))
	require.NoError(t, err)

	return privHex, doc
}

func issueCredential(t *testing.T, issuerPriv, issuer, subject string, mutate func(jsonmap.JSONMap)) string {
	t.Helper()

	doc := jsonmap.JSONMap{
		"@context":  []interface{}{vc.BaseContextV1},
		"type":      []interface{}{vc.BaseType},
		"issuer":    issuer,
		"validFrom": "2025-01-01T00:00:00Z",
		"credentialSubject": map[string]interface{}{
			"id": subject,
		},
	}
	if mutate != nil {
		mutate(doc)
	}
	token, err := jwt.NewSigner(issuerPriv, issuer, "").SignDocument(doc, "vc", map[string]interface{}{"iss": doc.String("issuer")})
	require.NoError(t, err)
	return token
}

func presentCredentials(t *testing.T, holderPriv, holder string, extraClaims map[string]interface{}, credentials ...string) []byte {
	t.Helper()

	entries := make([]interface{}, len(credentials))
	for i, c := range credentials {
		entries[i] = c
	}
	doc := jsonmap.JSONMap{
		"@context":             []interface{}{BaseContextV1},
		"type":                 []interface{}{BaseType},
		"holder":               holder,
		"verifiableCredential": entries,
	}

	claims := map[string]interface{}{"iss": holder}
	for key, value := range extraClaims {
		claims[key] = value
	}
	token, err := jwt.NewSigner(holderPriv, holder, "").SignDocument(doc, "vp", claims)
	require.NoError(t, err)
	return []byte(token)
}

// vpOpts pins the per-credential temporal checks to a window the fixed
// test timestamps fall into.
func vpOpts(extra ...ValidationOpt) []ValidationOpt {
	opts := []ValidationOpt{
		WithCredentialOptions(
			vc.WithEarliestExpiryDate(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
			vc.WithLatestIssuanceDate(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		),
	}
	return append(opts, extra...)
}

func TestValidate(t *testing.T) {
	issuerPriv, issuerDoc := newIdentity(t, "did:example:issuer")
	holderPriv, holderDoc := newIdentity(t, "did:example:alice")

	credential := issueCredential(t, issuerPriv, "did:example:issuer", "did:example:alice", nil)
	raw := presentCredentials(t, holderPriv, "did:example:alice", map[string]interface{}{"nonce": "challenge-1"}, credential)

	decoded, err := Validate(context.Background(), raw, holderDoc, []did.Document{issuerDoc},
		vpOpts(WithChallenge("challenge-1"))...)
	require.NoError(t, err)

	assert.Equal(t, "did:example:alice", decoded.Contents.Holder)
	assert.Len(t, decoded.Contents.Credentials, 1)
}

func TestValidateMalformedEnvelope(t *testing.T) {
	_, holderDoc := newIdentity(t, "did:example:alice")

	for _, raw := range [][]byte{nil, []byte("{}"), []byte("a.b")} {
		_, err := Validate(context.Background(), raw, holderDoc, nil)
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
	}
}

func TestValidateStructure(t *testing.T) {
	holderPriv, holderDoc := newIdentity(t, "did:example:alice")

	t.Run("Base context must be first", func(t *testing.T) {
		token, err := jwt.NewSigner(holderPriv, "did:example:alice", "").SignDocument(jsonmap.JSONMap{
			"@context": []interface{}{"https://example.org/custom/v1", BaseContextV1},
			"type":     []interface{}{BaseType},
			"holder":   "did:example:alice",
		}, "vp", map[string]interface{}{"iss": "did:example:alice"})
		require.NoError(t, err)

		_, err = Validate(context.Background(), []byte(token), holderDoc, nil)
		assert.ErrorIs(t, err, ErrInvalidStructure)
	})

	t.Run("Missing base type", func(t *testing.T) {
		token, err := jwt.NewSigner(holderPriv, "did:example:alice", "").SignDocument(jsonmap.JSONMap{
			"@context": []interface{}{BaseContextV1},
			"type":     []interface{}{"CustomPresentation"},
			"holder":   "did:example:alice",
		}, "vp", map[string]interface{}{"iss": "did:example:alice"})
		require.NoError(t, err)

		_, err = Validate(context.Background(), []byte(token), holderDoc, nil)
		assert.ErrorIs(t, err, ErrInvalidStructure)
	})
}

func TestValidateHolderMismatch(t *testing.T) {
	issuerPriv, issuerDoc := newIdentity(t, "did:example:issuer")
	holderPriv, _ := newIdentity(t, "did:example:alice")
	_, bobDoc := newIdentity(t, "did:example:bob")

	credential := issueCredential(t, issuerPriv, "did:example:issuer", "did:example:alice", nil)
	raw := presentCredentials(t, holderPriv, "did:example:alice", nil, credential)

	_, err := Validate(context.Background(), raw, bobDoc, []did.Document{issuerDoc}, vpOpts()...)
	assert.ErrorIs(t, err, ErrHolderMismatch)
}

func TestValidateHolderSignature(t *testing.T) {
	issuerPriv, issuerDoc := newIdentity(t, "did:example:issuer")
	_, holderDoc := newIdentity(t, "did:example:alice")
	strangerPriv, _ := newIdentity(t, "did:example:alice")

	credential := issueCredential(t, issuerPriv, "did:example:issuer", "did:example:alice", nil)
	raw := presentCredentials(t, strangerPriv, "did:example:alice", nil, credential)

	_, err := Validate(context.Background(), raw, holderDoc, []did.Document{issuerDoc}, vpOpts()...)
	assert.ErrorIs(t, err, vc.ErrProofVerificationFailed)
}

func TestValidateChallengeBinding(t *testing.T) {
	issuerPriv, issuerDoc := newIdentity(t, "did:example:issuer")
	holderPriv, holderDoc := newIdentity(t, "did:example:alice")

	credential := issueCredential(t, issuerPriv, "did:example:issuer", "did:example:alice", nil)

	t.Run("Nonce mismatch", func(t *testing.T) {
		raw := presentCredentials(t, holderPriv, "did:example:alice", map[string]interface{}{"nonce": "stale"}, credential)
		_, err := Validate(context.Background(), raw, holderDoc, []did.Document{issuerDoc},
			vpOpts(WithChallenge("challenge-1"))...)
		assert.ErrorIs(t, err, ErrSignatureChallengeMismatch)
	})

	t.Run("Missing nonce", func(t *testing.T) {
		raw := presentCredentials(t, holderPriv, "did:example:alice", nil, credential)
		_, err := Validate(context.Background(), raw, holderDoc, []did.Document{issuerDoc},
			vpOpts(WithChallenge("challenge-1"))...)
		assert.ErrorIs(t, err, ErrSignatureChallengeMismatch)
	})

	t.Run("Domain mismatch", func(t *testing.T) {
		raw := presentCredentials(t, holderPriv, "did:example:alice", map[string]interface{}{"aud": "https://other.example.org"}, credential)
		_, err := Validate(context.Background(), raw, holderDoc, []did.Document{issuerDoc},
			vpOpts(WithDomain("https://verifier.example.org"))...)
		assert.ErrorIs(t, err, ErrSignatureChallengeMismatch)
	})

	t.Run("No binding requested", func(t *testing.T) {
		raw := presentCredentials(t, holderPriv, "did:example:alice", nil, credential)
		_, err := Validate(context.Background(), raw, holderDoc, []did.Document{issuerDoc}, vpOpts()...)
		assert.NoError(t, err)
	})
}

func TestValidateSubjectHolderRelationship(t *testing.T) {
	issuerPriv, issuerDoc := newIdentity(t, "did:example:issuer")
	holderPriv, holderDoc := newIdentity(t, "did:example:alice")

	bobCredential := issueCredential(t, issuerPriv, "did:example:issuer", "did:example:bob", nil)
	bobNonTransferable := issueCredential(t, issuerPriv, "did:example:issuer", "did:example:bob", func(doc jsonmap.JSONMap) {
		doc["nonTransferable"] = true
	})

	t.Run("AlwaysSubject rejects foreign subject", func(t *testing.T) {
		raw := presentCredentials(t, holderPriv, "did:example:alice", nil, bobCredential)
		_, err := Validate(context.Background(), raw, holderDoc, []did.Document{issuerDoc}, vpOpts()...)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSubjectHolderRelationshipViolation)

		var credErr *CredentialError
		require.ErrorAs(t, err, &credErr)
		assert.Equal(t, 0, credErr.Index)
	})

	t.Run("SubjectOnNonTransferable allows transferable", func(t *testing.T) {
		raw := presentCredentials(t, holderPriv, "did:example:alice", nil, bobCredential)
		_, err := Validate(context.Background(), raw, holderDoc, []did.Document{issuerDoc},
			vpOpts(WithSubjectHolderRelationship(SubjectOnNonTransferable))...)
		assert.NoError(t, err)
	})

	t.Run("SubjectOnNonTransferable rejects non-transferable", func(t *testing.T) {
		raw := presentCredentials(t, holderPriv, "did:example:alice", nil, bobNonTransferable)
		_, err := Validate(context.Background(), raw, holderDoc, []did.Document{issuerDoc},
			vpOpts(WithSubjectHolderRelationship(SubjectOnNonTransferable))...)
		assert.ErrorIs(t, err, ErrSubjectHolderRelationshipViolation)
	})

	t.Run("AnyRelationship enforces nothing", func(t *testing.T) {
		raw := presentCredentials(t, holderPriv, "did:example:alice", nil, bobNonTransferable)
		_, err := Validate(context.Background(), raw, holderDoc, []did.Document{issuerDoc},
			vpOpts(WithSubjectHolderRelationship(AnyRelationship))...)
		assert.NoError(t, err)
	})
}

func TestValidateMissingIssuerDocument(t *testing.T) {
	issuerPriv, _ := newIdentity(t, "did:example:issuer")
	holderPriv, holderDoc := newIdentity(t, "did:example:alice")

	credential := issueCredential(t, issuerPriv, "did:example:issuer", "did:example:alice", nil)
	raw := presentCredentials(t, holderPriv, "did:example:alice", nil, credential)

	_, err := Validate(context.Background(), raw, holderDoc, nil, vpOpts()...)
	assert.ErrorIs(t, err, ErrMissingIssuerDocument)
}

func TestValidateAggregation(t *testing.T) {
	issuerPriv, issuerDoc := newIdentity(t, "did:example:issuer")
	holderPriv, holderDoc := newIdentity(t, "did:example:alice")

	expired := issueCredential(t, issuerPriv, "did:example:issuer", "did:example:alice", func(doc jsonmap.JSONMap) {
		doc["validUntil"] = "2025-03-01T00:00:00Z"
	})
	future := issueCredential(t, issuerPriv, "did:example:issuer", "did:example:alice", func(doc jsonmap.JSONMap) {
		doc["validFrom"] = "2025-12-01T00:00:00Z"
	})
	raw := presentCredentials(t, holderPriv, "did:example:alice", nil, expired, future)

	t.Run("FirstError stops at the first credential", func(t *testing.T) {
		_, err := Validate(context.Background(), raw, holderDoc, []did.Document{issuerDoc}, vpOpts()...)
		require.Error(t, err)

		var credErr *CredentialError
		require.ErrorAs(t, err, &credErr)
		assert.Equal(t, 0, credErr.Index)
		assert.ErrorIs(t, err, vc.ErrExpiredCredential)
		assert.NotErrorIs(t, err, vc.ErrIssuedInFuture)
	})

	t.Run("AllErrors tags every credential failure with its position", func(t *testing.T) {
		decoded, err := Validate(context.Background(), raw, holderDoc, []did.Document{issuerDoc},
			vpOpts(WithFailFast(vc.AllErrors))...)
		require.Error(t, err)
		require.NotNil(t, decoded)

		var compound *vc.CompoundError
		require.ErrorAs(t, err, &compound)
		require.Len(t, compound.Errs, 2)

		indexes := make([]int, 0, len(compound.Errs))
		for _, failure := range compound.Errs {
			var credErr *CredentialError
			require.ErrorAs(t, failure, &credErr)
			indexes = append(indexes, credErr.Index)
		}
		assert.Equal(t, []int{0, 1}, indexes)
		assert.ErrorIs(t, err, vc.ErrExpiredCredential)
		assert.ErrorIs(t, err, vc.ErrIssuedInFuture)
	})
}

func TestExtractHolder(t *testing.T) {
	issuerPriv, _ := newIdentity(t, "did:example:issuer")
	holderPriv, _ := newIdentity(t, "did:example:alice")

	credential := issueCredential(t, issuerPriv, "did:example:issuer", "did:example:alice", nil)
	raw := presentCredentials(t, holderPriv, "did:example:alice", nil, credential)

	holder, err := ExtractHolder(raw)
	require.NoError(t, err)
	assert.Equal(t, did.MustParse("did:example:alice"), holder)

	_, err = ExtractHolder([]byte("junk"))
	assert.ErrorIs(t, err, ErrMalformedEnvelope)
}

func TestExtractIssuers(t *testing.T) {
	issuerAPriv, _ := newIdentity(t, "did:example:issuer-a")
	issuerBPriv, _ := newIdentity(t, "did:example:issuer-b")
	holderPriv, _ := newIdentity(t, "did:example:alice")

	credentials := []string{
		issueCredential(t, issuerAPriv, "did:example:issuer-a", "did:example:alice", nil),
		issueCredential(t, issuerBPriv, "did:example:issuer-b", "did:example:alice", nil),
		issueCredential(t, issuerAPriv, "did:example:issuer-a", "did:example:alice", nil),
	}
	raw := presentCredentials(t, holderPriv, "did:example:alice", nil, credentials...)

	issuers, err := ExtractIssuers(raw)
	require.NoError(t, err)
	assert.Equal(t, []did.DID{
		did.MustParse("did:example:issuer-a"),
		did.MustParse("did:example:issuer-b"),
	}, issuers)
}

func TestExtractIssuersBadCredential(t *testing.T) {
	holderPriv, _ := newIdentity(t, "did:example:alice")

	raw := presentCredentials(t, holderPriv, "did:example:alice", nil, "not-a-credential")

	_, err := ExtractIssuers(raw)
	require.Error(t, err)

	var credErr *CredentialError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, 0, credErr.Index)
}

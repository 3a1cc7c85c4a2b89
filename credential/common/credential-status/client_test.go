package credentialstatus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian/go-identity-sdk/credential/vc"
	"github.com/veridian/go-identity-sdk/revocation"
)

func newStatusServer(t *testing.T, list *revocation.StatusList2021) *httptest.Server {
	t.Helper()

	encoded, err := list.Encode()
	require.NoError(t, err)

	credential := StatusListCredential{
		Context: []string{"https://www.w3.org/2018/credentials/v1"},
		ID:      "https://example.org/status/1",
		Type:    []string{"VerifiableCredential"},
		Issuer:  "did:example:issuer",
		CredentialSubject: StatusListCredentialSubject{
			ID:          "https://example.org/status/1#list",
			Type:        revocation.StatusType2022,
			EncodedList: encoded,
		},
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(credential)
	}))
}

func TestFetchStatusListCredential(t *testing.T) {
	list := revocation.New(64)
	list.Set(3, true)

	server := newStatusServer(t, list)
	defer server.Close()

	client := NewClient()
	credential, err := client.FetchStatusListCredential(context.Background(), server.URL)
	require.NoError(t, err)

	decoded, err := revocation.Decode(credential.CredentialSubject.EncodedList)
	require.NoError(t, err)

	revoked, ok := decoded.Get(3)
	require.True(t, ok)
	assert.True(t, revoked)

	revoked, ok = decoded.Get(4)
	require.True(t, ok)
	assert.False(t, revoked)
}

func TestFetchStatusListCredentialErrors(t *testing.T) {
	client := NewClient()

	_, err := client.FetchStatusListCredential(context.Background(), "")
	assert.ErrorContains(t, err, "URL is empty")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err = client.FetchStatusListCredential(context.Background(), server.URL)
	assert.ErrorContains(t, err, "non-200 status")
}

func TestLookup(t *testing.T) {
	list := revocation.New(64)
	server := newStatusServer(t, list)
	defer server.Close()

	lookup := NewClientWithHTTPClient(server.Client()).Lookup()

	encoded, err := lookup(context.Background(), vc.Status{
		Type:                 revocation.StatusType2022,
		StatusListIndex:      "3",
		StatusListCredential: server.URL,
	})
	require.NoError(t, err)

	decoded, err := revocation.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, 64, decoded.Len())

	// Falls back to the status id when statusListCredential is absent.
	_, err = lookup(context.Background(), vc.Status{Type: revocation.StatusType2022, ID: server.URL})
	assert.NoError(t, err)
}

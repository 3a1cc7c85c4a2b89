// Package credentialstatus fetches published status list credentials
// over HTTP. It is the transport adapter the validators deliberately do
// not contain; wire its Lookup into the vc validation options.
package credentialstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/veridian/go-identity-sdk/credential/vc"
)

// Client fetches status list credentials from their statusListCredential
// URLs.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a status list client with a sensible default timeout
// and an instrumented transport.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// NewClientWithHTTPClient creates a status list client around a caller
// supplied HTTP client.
func NewClientWithHTTPClient(httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient}
}

// FetchStatusListCredential fetches and parses the status list
// credential located at the given URL.
func (c *Client) FetchStatusListCredential(ctx context.Context, url string) (*StatusListCredential, error) {
	if url == "" {
		return nil, fmt.Errorf("statusListCredential URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status list request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call status list credential endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status list credential endpoint returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read status list credential response body: %w", err)
	}

	var credential StatusListCredential
	if err := json.Unmarshal(body, &credential); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status list credential JSON: %w", err)
	}

	return &credential, nil
}

// Lookup returns a StatusListLookup backed by this client, fetching the
// encoded list from the credential referenced by the status entry.
func (c *Client) Lookup() vc.StatusListLookup {
	return func(ctx context.Context, status vc.Status) (string, error) {
		url := status.StatusListCredential
		if url == "" {
			url = status.ID
		}

		credential, err := c.FetchStatusListCredential(ctx, url)
		if err != nil {
			return "", err
		}
		if credential.CredentialSubject.EncodedList == "" {
			return "", fmt.Errorf("status list credential %q carries no encodedList", url)
		}
		return credential.CredentialSubject.EncodedList, nil
	}
}

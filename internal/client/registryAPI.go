package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ds124wfegd/pushService/internal/entity"
)

// RegistryAPI is the thin HTTP transport the page uses to report
// subscription changes to the server-side registry.
type RegistryAPI struct {
	baseURL string
	client  *http.Client
}

func NewRegistryAPI(baseURL string, httpClient *http.Client) *RegistryAPI {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RegistryAPI{baseURL: baseURL, client: httpClient}
}

func (a *RegistryAPI) Subscribe(ctx context.Context, sub *entity.Subscription) error {
	return a.post(ctx, "/api/v1/subscribe", sub)
}

func (a *RegistryAPI) Unsubscribe(ctx context.Context, endpoint string) error {
	return a.post(ctx, "/api/v1/unsubscribe", map[string]string{"endpoint": endpoint})
}

func (a *RegistryAPI) post(ctx context.Context, path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("registry returned status %d for %s", resp.StatusCode, path)
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// controlClient talks to a transflow server's control HTTP surface
// (internal/control), the counterpart to the teacher's upload client.
type controlClient struct {
	serverURL string
	token     string
	http      *http.Client
}

func newControlClient() (*controlClient, error) {
	cfg := GetConfig()
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server URL not configured. Please run 'transflowctl configure'")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("control token not configured. Please run 'transflowctl configure'")
	}
	return &controlClient{serverURL: cfg.ServerURL, token: cfg.Token, http: &http.Client{Timeout: 10 * time.Second}}, nil
}

func (c *controlClient) do(method, path string) ([]byte, error) {
	req, err := http.NewRequest(method, c.serverURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// ListQueue fetches every currently active job.
func (c *controlClient) ListQueue() (json.RawMessage, error) {
	return c.do(http.MethodGet, "/api/v1/queue")
}

// GetJob fetches a single job by id.
func (c *controlClient) GetJob(id uint) (json.RawMessage, error) {
	return c.do(http.MethodGet, fmt.Sprintf("/api/v1/queue/%d", id))
}

// CancelJob requests cancellation of a queued or running job.
func (c *controlClient) CancelJob(id uint) (json.RawMessage, error) {
	return c.do(http.MethodPost, fmt.Sprintf("/api/v1/queue/%d/cancel", id))
}

// Healthz checks the server's liveness probe, which needs no auth.
func (c *controlClient) Healthz() error {
	req, err := http.NewRequest(http.MethodGet, c.serverURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

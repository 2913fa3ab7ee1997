package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hackgods/studio-booking/pkg/logging"
)

const (
	defaultBaseURL = "https://api.retellai.com"
	defaultTimeout = 15 * time.Second
)

// WebCall is what the browser needs to join a voice agent call.
type WebCall struct {
	CallType     string `json:"call_type,omitempty"`
	AccessToken  string `json:"access_token"`
	CallID       string `json:"call_id"`
	AgentID      string `json:"agent_id"`
	AgentVersion int    `json:"agent_version,omitempty"`
	CallStatus   string `json:"call_status,omitempty"`
}

// RetellClient wraps the Retell REST API.
type RetellClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logging.Logger
}

func NewRetellClient(baseURL, apiKey string, logger *logging.Logger) *RetellClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RetellClient{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
}

func (c *RetellClient) CreateWebCall(ctx context.Context, agentID string) (*WebCall, error) {
	body := map[string]string{"agent_id": agentID}
	var call WebCall
	if err := c.doJSON(ctx, http.MethodPost, "/v2/create-web-call", body, &call); err != nil {
		return nil, fmt.Errorf("create web call: %w", err)
	}
	if call.AccessToken == "" {
		return nil, fmt.Errorf("create web call: response has no access_token")
	}
	return &call, nil
}

func (c *RetellClient) doJSON(ctx context.Context, method, path string, body any, out any) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("retell API non-2xx response", "status", resp.StatusCode, "path", path, "body", msg)
		return fmt.Errorf("retell API returned %d: %s", resp.StatusCode, msg)
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

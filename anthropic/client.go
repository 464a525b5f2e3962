package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fwojciec/relay"
)

// Interface compliance check.
var _ relay.Connector = (*Client)(nil)

// Client implements [relay.Connector] for the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new Anthropic [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Connect validates cfg and prepares a session for it. No request is made
// until the turn is complete.
func (c *Client) Connect(ctx context.Context, cfg relay.ModelConfig) (relay.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	return &session{client: c, cfg: cfg}, nil
}

// post sends one streaming Messages request and returns the SSE body.
func (c *Client) post(ctx context.Context, cfg relay.ModelConfig, text string) (io.ReadCloser, error) {
	body, err := buildRequestBody(cfg, text)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}
	return resp.Body, nil
}

// buildRequestBody maps cfg onto a single-turn request. Modalities, voice
// and safety settings have no Messages API equivalent.
func buildRequestBody(cfg relay.ModelConfig, text string) ([]byte, error) {
	maxTokens := cfg.Generation.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	apiReq := apiRequest{
		Model:     cfg.Model,
		MaxTokens: maxTokens,
		Stream:    true,
		System:    convertSystem(cfg.SystemInstruction),
		Messages: []apiMessage{{
			Role:    "user",
			Content: []apiContentBlock{{Type: "text", Text: text}},
		}},
		Temperature: cfg.Generation.Temperature,
		TopP:        cfg.Generation.TopP,
		TopK:        cfg.Generation.TopK,
	}
	return json.Marshal(apiReq)
}

// convertSystem converts a system instruction to content blocks. Returns nil
// when the instruction is empty.
func convertSystem(instruction string) []apiContentBlock {
	if instruction == "" {
		return nil
	}
	return []apiContentBlock{{Type: "text", Text: instruction}}
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("anthropic: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return fmt.Errorf("anthropic: %s: %s", apiErr.Error.Type, apiErr.Error.Message)
}

package openai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fwojciec/relay"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/responses"
)

// Interface compliance check.
var _ relay.Connector = (*Client)(nil)

// Client implements [relay.Connector] for the OpenAI Responses API.
type Client struct {
	client     openai.Client
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

// New creates a new OpenAI [Client] with the given API key and options.
// Requests are not retried: a failed delivery is reported to the caller.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{}
	for _, o := range opts {
		o(c)
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if c.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(c.baseURL))
	}
	if c.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(c.httpClient))
	}
	c.client = openai.NewClient(reqOpts...)
	return c
}

// Connect validates cfg and prepares a session for it. No request is made
// until the first turn is complete.
func (c *Client) Connect(ctx context.Context, cfg relay.ModelConfig) (relay.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return newSession(&c.client, ConvertParams(cfg)), nil
}

// ConvertParams converts a relay ModelConfig to Responses API parameters.
// Top-k, voice and safety settings have no Responses API equivalent and are
// dropped. Exported for testing.
func ConvertParams(cfg relay.ModelConfig) responses.ResponseNewParams {
	p := responses.ResponseNewParams{Model: cfg.Model}
	if t := cfg.Generation.Temperature; t != nil {
		p.Temperature = param.NewOpt(*t)
	}
	if tp := cfg.Generation.TopP; tp != nil {
		p.TopP = param.NewOpt(*tp)
	}
	if n := cfg.Generation.MaxOutputTokens; n > 0 {
		p.MaxOutputTokens = param.NewOpt(int64(n))
	}
	if cfg.SystemInstruction != "" {
		p.Instructions = param.NewOpt(cfg.SystemInstruction)
	}
	return p
}

package gemini

import (
	"context"
	"fmt"

	"github.com/fwojciec/relay"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ relay.Connector = (*Client)(nil)

// Client implements [relay.Connector] over the Gemini Live API.
type Client struct {
	client     *genai.Client
	apiVersion string
	baseURL    string
}

// Option configures a [Client].
type Option func(*Client)

// WithAPIVersion sets the API version. Default is v1alpha.
func WithAPIVersion(version string) Option {
	return func(c *Client) { c.apiVersion = version }
}

// WithBaseURL sets the API base URL. A ws:// URL is dialed as-is, which is
// useful for testing against a local websocket server.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	c := &Client{apiVersion: defaultAPIVersion}
	for _, o := range opts {
		o(c)
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			APIVersion: c.apiVersion,
			BaseURL:    c.baseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c.client = gc
	return c, nil
}

// Connect opens a Live session configured from cfg.
func (c *Client) Connect(ctx context.Context, cfg relay.ModelConfig) (relay.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	ls, err := c.client.Live.Connect(ctx, cfg.Model, ConvertConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return newSession(ls), nil
}

// ConvertConfig converts a relay ModelConfig to a genai LiveConnectConfig.
// The Live setup message has no safety settings, so cfg.Safety is not sent.
// Exported for testing.
func ConvertConfig(cfg relay.ModelConfig) *genai.LiveConnectConfig {
	lc := &genai.LiveConnectConfig{
		MaxOutputTokens: int32(cfg.Generation.MaxOutputTokens),
	}
	for _, m := range cfg.Modalities {
		lc.ResponseModalities = append(lc.ResponseModalities, genai.Modality(m))
	}
	if t := cfg.Generation.Temperature; t != nil {
		lc.Temperature = genai.Ptr(float32(*t))
	}
	if p := cfg.Generation.TopP; p != nil {
		lc.TopP = genai.Ptr(float32(*p))
	}
	if k := cfg.Generation.TopK; k != nil {
		lc.TopK = genai.Ptr(float32(*k))
	}
	if v := cfg.Voice; v != nil {
		lc.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: v.Name},
			},
			LanguageCode: v.LanguageCode,
		}
	}
	if cfg.SystemInstruction != "" {
		lc.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}
	return lc
}

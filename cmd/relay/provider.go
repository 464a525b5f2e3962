package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/anthropic"
	"github.com/fwojciec/relay/gemini"
	"github.com/fwojciec/relay/openai"
)

const (
	providerGemini    = "gemini"
	providerOpenAI    = "openai"
	providerAnthropic = "anthropic"
)

// defaultModels replaces the preset's Gemini model for the other providers
// when --model is not given.
var defaultModels = map[string]string{
	providerOpenAI:    "gpt-4o-mini",
	providerAnthropic: "claude-sonnet-4-20250514",
}

// apiKeys holds the provider API keys found in the environment.
type apiKeys struct {
	gemini    string
	openAI    string
	anthropic string
}

// resolveCredentials selects the provider and its API key. All env var
// values are passed in as parameters.
func resolveCredentials(providerName, apiKeyFlag string, keys apiKeys) (string, string, error) {
	provider := providerName

	// Auto-detect from env vars if not named.
	if provider == "" {
		var found []string
		if keys.gemini != "" {
			found = append(found, providerGemini)
		}
		if keys.openAI != "" {
			found = append(found, providerOpenAI)
		}
		if keys.anthropic != "" {
			found = append(found, providerAnthropic)
		}
		switch {
		case len(found) > 1:
			return "", "", fmt.Errorf("multiple API keys found (%s): use --provider to select: %w", strings.Join(found, ", "), relay.ErrNoProvider)
		case len(found) == 1:
			provider = found[0]
		case apiKeyFlag != "":
			provider = providerGemini
		default:
			return "", "", fmt.Errorf("no API key found: set GEMINI_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY (or use --provider and --api-key): %w", relay.ErrNoProvider)
		}
	}

	// Explicit flag overrides env var.
	key := apiKeyFlag
	switch provider {
	case providerGemini:
		if key == "" {
			key = keys.gemini
		}
		if key == "" {
			return "", "", fmt.Errorf("GEMINI_API_KEY not set (use --api-key or environment variable): %w", relay.ErrNoProvider)
		}
	case providerOpenAI:
		if key == "" {
			key = keys.openAI
		}
		if key == "" {
			return "", "", fmt.Errorf("OPENAI_API_KEY not set (use --api-key or environment variable): %w", relay.ErrNoProvider)
		}
	case providerAnthropic:
		if key == "" {
			key = keys.anthropic
		}
		if key == "" {
			return "", "", fmt.Errorf("ANTHROPIC_API_KEY not set (use --api-key or environment variable): %w", relay.ErrNoProvider)
		}
	default:
		return "", "", fmt.Errorf("unknown provider %q: must be %q, %q or %q: %w",
			provider, providerGemini, providerOpenAI, providerAnthropic, relay.ErrNoProvider)
	}
	return provider, key, nil
}

// newConnector constructs the connector for a resolved provider.
func newConnector(ctx context.Context, provider, apiKey, apiVersion string) (relay.Connector, error) {
	switch provider {
	case providerGemini:
		client, err := gemini.New(ctx, apiKey, gemini.WithAPIVersion(apiVersion))
		if err != nil {
			return nil, err
		}
		return client, nil
	case providerOpenAI:
		return openai.New(apiKey), nil
	case providerAnthropic:
		return anthropic.New(apiKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q: %w", provider, relay.ErrNoProvider)
	}
}

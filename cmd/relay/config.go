package main

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/fwojciec/relay"
	"github.com/rs/zerolog"
)

const (
	defaultPort       = 5003
	defaultAPIVersion = "v1alpha"
	defaultTimeout    = 2 * time.Minute
)

// options holds parsed command-line flags.
type options struct {
	port         int
	portSet      bool
	provider     string
	apiKey       string
	apiVersion   string
	preset       string
	model        string
	system       string
	timeout      time.Duration
	strictErrors bool
	envFile      string
	logLevel     string
	logFormat    string
}

// environment holds the env vars relay reads.
type environment struct {
	port           string
	provider       string
	preset         string
	geminiKey      string
	reactGeminiKey string
	openAIKey      string
	anthropicKey   string
}

// config is the resolved process configuration.
type config struct {
	addr       string
	provider   string
	apiKey     string
	apiVersion string
	model      relay.ModelConfig
	persona    string
	timeout    time.Duration
	strict     bool
}

// resolveConfig merges flags, env vars and defaults. Flags win over env
// vars, env vars win over defaults.
func resolveConfig(opts options, env environment) (config, error) {
	port := opts.port
	if !opts.portSet && env.port != "" {
		p, err := strconv.Atoi(env.port)
		if err != nil {
			return config{}, fmt.Errorf("invalid PORT %q: %w", env.port, err)
		}
		port = p
	}
	if port < 0 || port > 65535 {
		return config{}, fmt.Errorf("port %d out of range", port)
	}
	if opts.timeout < 0 {
		return config{}, fmt.Errorf("timeout must not be negative, got %s", opts.timeout)
	}

	provider, key, err := resolveCredentials(
		firstNonEmpty(opts.provider, env.provider), opts.apiKey,
		apiKeys{
			gemini:    firstNonEmpty(env.geminiKey, env.reactGeminiKey),
			openAI:    env.openAIKey,
			anthropic: env.anthropicKey,
		})
	if err != nil {
		return config{}, err
	}

	presetName := firstNonEmpty(opts.preset, env.preset, relay.PresetPersona)
	model, persona, err := relay.Preset(presetName)
	if err != nil {
		return config{}, err
	}
	if m := firstNonEmpty(opts.model, defaultModels[provider]); m != "" {
		model.Model = m
	}
	if opts.system != "" {
		model.SystemInstruction = opts.system
	}
	if err := model.Validate(); err != nil {
		return config{}, err
	}

	return config{
		addr:       net.JoinHostPort("", strconv.Itoa(port)),
		provider:   provider,
		apiKey:     key,
		apiVersion: opts.apiVersion,
		model:      model,
		persona:    persona,
		timeout:    opts.timeout,
		strict:     opts.strictErrors,
	}, nil
}

// newLogger builds the process logger. Format is "console" or "json".
func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	switch format {
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Logger{}, fmt.Errorf("invalid log format %q: must be \"console\" or \"json\"", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

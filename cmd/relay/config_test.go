package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultOptions() options {
	return options{
		port:       defaultPort,
		apiVersion: defaultAPIVersion,
		timeout:    defaultTimeout,
		envFile:    defaultEnvFile,
		logLevel:   "info",
		logFormat:  "console",
	}
}

func TestResolveConfig_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := resolveConfig(defaultOptions(), environment{geminiKey: "gk"})
	require.NoError(t, err)

	assert.Equal(t, ":5003", cfg.addr)
	assert.Equal(t, "gemini", cfg.provider)
	assert.Equal(t, "gk", cfg.apiKey)
	assert.Equal(t, "v1alpha", cfg.apiVersion)
	assert.Equal(t, relay.PersonaPreset(), cfg.model)
	assert.Equal(t, relay.PersonaPrefix, cfg.persona)
	assert.Equal(t, 2*time.Minute, cfg.timeout)
	assert.False(t, cfg.strict)
}

func TestResolveConfig_ReactEnvKeyFallback(t *testing.T) {
	t.Parallel()
	cfg, err := resolveConfig(defaultOptions(), environment{reactGeminiKey: "gk-react"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.provider)
	assert.Equal(t, "gk-react", cfg.apiKey)
}

func TestResolveConfig_PortFromEnv(t *testing.T) {
	t.Parallel()
	cfg, err := resolveConfig(defaultOptions(), environment{port: "8080", geminiKey: "gk"})
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.addr)
}

func TestResolveConfig_PortFlagWinsOverEnv(t *testing.T) {
	t.Parallel()
	opts := defaultOptions()
	opts.port, opts.portSet = 9000, true
	cfg, err := resolveConfig(opts, environment{port: "8080", geminiKey: "gk"})
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.addr)
}

func TestResolveConfig_InvalidPort(t *testing.T) {
	t.Parallel()
	_, err := resolveConfig(defaultOptions(), environment{port: "http", geminiKey: "gk"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid PORT")

	opts := defaultOptions()
	opts.port, opts.portSet = 70000, true
	_, err = resolveConfig(opts, environment{geminiKey: "gk"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestResolveConfig_PlainPresetFromEnv(t *testing.T) {
	t.Parallel()
	cfg, err := resolveConfig(defaultOptions(), environment{preset: "plain", geminiKey: "gk"})
	require.NoError(t, err)
	assert.Equal(t, relay.PlainPreset(), cfg.model)
	assert.Empty(t, cfg.persona)
}

func TestResolveConfig_PresetFlagWinsOverEnv(t *testing.T) {
	t.Parallel()
	opts := defaultOptions()
	opts.preset = "persona"
	cfg, err := resolveConfig(opts, environment{preset: "plain", geminiKey: "gk"})
	require.NoError(t, err)
	assert.Equal(t, relay.PersonaPrefix, cfg.persona)
}

func TestResolveConfig_UnknownPreset(t *testing.T) {
	t.Parallel()
	opts := defaultOptions()
	opts.preset = "pirate"
	_, err := resolveConfig(opts, environment{geminiKey: "gk"})
	assert.ErrorIs(t, err, relay.ErrValidation)
}

func TestResolveConfig_ModelOverride(t *testing.T) {
	t.Parallel()
	opts := defaultOptions()
	opts.model = "gpt-4o-mini"
	cfg, err := resolveConfig(opts, environment{openAIKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.provider)
	assert.Equal(t, "gpt-4o-mini", cfg.model.Model)
	assert.Equal(t, relay.PersonaPreset().Generation, cfg.model.Generation)
}

func TestResolveConfig_SystemInstruction(t *testing.T) {
	t.Parallel()
	cfg, err := resolveConfig(defaultOptions(), environment{geminiKey: "gk"})
	require.NoError(t, err)
	assert.Empty(t, cfg.model.SystemInstruction)

	opts := defaultOptions()
	opts.system = "Answer in one sentence."
	cfg, err = resolveConfig(opts, environment{geminiKey: "gk"})
	require.NoError(t, err)
	assert.Equal(t, "Answer in one sentence.", cfg.model.SystemInstruction)
	assert.Equal(t, relay.PersonaPrefix, cfg.persona)
}

func TestRootCmd_SystemInstructionFlag(t *testing.T) {
	t.Parallel()
	f := newRootCmd().Flags().Lookup("system-instruction")
	require.NotNil(t, f)
	assert.Equal(t, "", f.DefValue)
}

func TestResolveConfig_ProviderDefaultModel(t *testing.T) {
	t.Parallel()
	cfg, err := resolveConfig(defaultOptions(), environment{anthropicKey: "sk-ant"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.model.Model)

	cfg, err = resolveConfig(defaultOptions(), environment{openAIKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.model.Model)
}

func TestResolveConfig_ProviderFromEnv(t *testing.T) {
	t.Parallel()
	cfg, err := resolveConfig(defaultOptions(), environment{provider: "openai", geminiKey: "gk", openAIKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.provider)
	assert.Equal(t, "sk", cfg.apiKey)
}

func TestResolveConfig_TimeoutAndStrict(t *testing.T) {
	t.Parallel()
	opts := defaultOptions()
	opts.timeout = 0
	opts.strictErrors = true
	cfg, err := resolveConfig(opts, environment{geminiKey: "gk"})
	require.NoError(t, err)
	assert.Zero(t, cfg.timeout)
	assert.True(t, cfg.strict)

	opts.timeout = -time.Second
	_, err = resolveConfig(opts, environment{geminiKey: "gk"})
	assert.Error(t, err)
}

func TestResolveConfig_NoProvider(t *testing.T) {
	t.Parallel()
	_, err := resolveConfig(defaultOptions(), environment{})
	assert.ErrorIs(t, err, relay.ErrNoProvider)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		l, err := newLogger(&buf, "warn", "json")
		require.NoError(t, err)
		l.Info().Msg("hidden")
		l.Warn().Msg("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), `"message":"shown"`)
	})

	t.Run("console", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		l, err := newLogger(&buf, "info", "console")
		require.NoError(t, err)
		l.Info().Msg("hello")
		assert.Contains(t, buf.String(), "hello")
		assert.NotContains(t, buf.String(), `"message"`)
	})

	t.Run("bad level", func(t *testing.T) {
		t.Parallel()
		_, err := newLogger(&bytes.Buffer{}, "loud", "json")
		assert.Error(t, err)
	})

	t.Run("bad format", func(t *testing.T) {
		t.Parallel()
		_, err := newLogger(&bytes.Buffer{}, "info", "xml")
		assert.Error(t, err)
	})
}

func TestLoadEnvFile(t *testing.T) {
	// Not parallel: godotenv writes the process environment.
	dir := t.TempDir()

	t.Run("missing default is tolerated", func(t *testing.T) {
		require.NoError(t, loadEnvFile(filepath.Join(dir, ".env"), false))
	})

	t.Run("missing explicit is an error", func(t *testing.T) {
		require.Error(t, loadEnvFile(filepath.Join(dir, "nope.env"), true))
	})

	t.Run("empty path is skipped", func(t *testing.T) {
		require.NoError(t, loadEnvFile("", true))
	})

	t.Run("loads without overriding", func(t *testing.T) {
		path := filepath.Join(dir, "test.env")
		require.NoError(t, os.WriteFile(path, []byte("RELAY_TEST_NEW=from-file\nRELAY_TEST_SET=from-file\n"), 0o600))
		t.Setenv("RELAY_TEST_SET", "from-env")
		t.Setenv("RELAY_TEST_NEW", "")
		require.NoError(t, os.Unsetenv("RELAY_TEST_NEW"))

		require.NoError(t, loadEnvFile(path, true))

		assert.Equal(t, "from-file", os.Getenv("RELAY_TEST_NEW"))
		assert.Equal(t, "from-env", os.Getenv("RELAY_TEST_SET"))
	})
}

// Command relay serves a synchronous chat endpoint in front of a streaming
// model session.
//
// Usage:
//
//	GEMINI_API_KEY=gk-... relay [flags]
//	OPENAI_API_KEY=sk-... relay [flags]
//	ANTHROPIC_API_KEY=sk-ant-... relay [flags]
//
// Each POST /chat opens one remote session, sends the message as a single
// turn and answers with the assembled reply. Environment variables may also
// come from a .env file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fwojciec/relay"
	relayhttp "github.com/fwojciec/relay/http"
	"github.com/fwojciec/relay/prometheus"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	defaultEnvFile  = ".env"
	shutdownTimeout = 30 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "relay",
		Short:         "Serve a synchronous chat endpoint backed by a streaming model session",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			opts.portSet = flags.Changed("port")
			if err := loadEnvFile(opts.envFile, flags.Changed("env-file")); err != nil {
				return err
			}
			// Env vars are read here and passed as values.
			cfg, err := resolveConfig(opts, environment{
				port:           os.Getenv("PORT"),
				provider:       os.Getenv("RELAY_PROVIDER"),
				preset:         os.Getenv("RELAY_PRESET"),
				geminiKey:      os.Getenv("GEMINI_API_KEY"),
				reactGeminiKey: os.Getenv("REACT_APP_GEMINI_API_KEY"),
				openAIKey:      os.Getenv("OPENAI_API_KEY"),
				anthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
			})
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.port, "port", defaultPort, "Listen port (env PORT)")
	f.StringVar(&opts.provider, "provider", "", "Provider: gemini, openai, anthropic (env RELAY_PROVIDER, auto-detected from API keys if omitted)")
	f.StringVar(&opts.apiKey, "api-key", "", "API key (overrides the provider's env var)")
	f.StringVar(&opts.apiVersion, "api-version", defaultAPIVersion, "Gemini API version")
	f.StringVar(&opts.preset, "preset", "", "Model preset: plain, persona (env RELAY_PRESET, default persona)")
	f.StringVar(&opts.model, "model", "", "Model ID (default: the preset's model)")
	f.StringVar(&opts.system, "system-instruction", "", "System instruction sent to the model natively (distinct from the persona prefix)")
	f.DurationVar(&opts.timeout, "timeout", defaultTimeout, "Per-request bound on the remote session, 0 disables")
	f.BoolVar(&opts.strictErrors, "strict-errors", false, "Answer failed deliveries with 502 instead of 200")
	f.StringVar(&opts.envFile, "env-file", defaultEnvFile, "Environment file to load before reading env vars")
	f.StringVar(&opts.logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")
	f.StringVar(&opts.logFormat, "log-format", "console", "Log format: console, json")
	return cmd
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing default file is not an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// run serves until ctx is canceled, then shuts the server down gracefully.
func run(ctx context.Context, cfg config, logger zerolog.Logger) error {
	connector, err := newConnector(ctx, cfg.provider, cfg.apiKey, cfg.apiVersion)
	if err != nil {
		return err
	}

	metrics := prometheus.New()
	bridge := relay.NewBridge(metrics.Instrument(connector), cfg.model,
		relay.WithPersona(cfg.persona),
		relay.WithTimeout(cfg.timeout),
		relay.WithObserver(metrics),
	)
	srv := relayhttp.NewServer(bridge,
		relayhttp.WithAddr(cfg.addr),
		relayhttp.WithLogger(logger),
		relayhttp.WithMetrics(metrics.Handler()),
		relayhttp.WithStrictErrors(cfg.strict),
	)

	logger.Info().
		Str("provider", cfg.provider).
		Str("model", cfg.model.Model).
		Bool("persona", cfg.persona != "").
		Dur("timeout", cfg.timeout).
		Msg("starting relay")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
			return err
		}
		return nil
	})
	return g.Wait()
}

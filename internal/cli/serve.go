package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/formflow/internal/config"
	"github.com/roach88/formflow/internal/formdef"
	"github.com/roach88/formflow/internal/ident"
	"github.com/roach88/formflow/internal/journal"
	"github.com/roach88/formflow/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Config string
	Listen string

	// Source overrides the dispatch id source (for testing).
	Source ident.Source
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve forms over HTTP",
		Long: `Load form definitions and serve them over HTTP.

The config file names the definitions directory, upload limits, and the
optional journal database. Relative paths are resolved against the config
file's directory.

Example:
  formflow serve --config ./formflow.yaml
  formflow serve --config ./formflow.yaml --listen :9090 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "path to YAML config (required)")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address, overrides the config")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	slog.SetDefault(logger)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}

	logger.Info("loading forms", "dir", cfg.FormsDir)
	defs, err := formdef.LoadDir(cfg.FormsDir)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load forms", err)
	}
	logger.Info("forms loaded", "count", len(defs))

	var jr *journal.Journal
	if cfg.Journal.Path != "" {
		logger.Info("opening journal", "path", cfg.Journal.Path)
		jr, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := jr.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
	}

	env := formdef.Env{
		UploadDir:     cfg.UploadDir,
		TempDir:       cfg.TempDir,
		UploadLimitKB: cfg.UploadLimitKB,
		Source:        opts.Source,
		Logger:        logger,
	}
	if cfg.Replay.Enabled {
		env.Replay = ident.NewReplayRegistry(cfg.Replay.MaxRenders, cfg.Replay.MaxItems)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	srv, err := server.New(ctx, defs, server.Options{Env: env, Journal: jr, Logger: logger})
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build forms", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := srv.Run(ctx, cfg.Listen); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

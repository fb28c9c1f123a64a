package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tcpchat/internal/app"
	"github.com/vovakirdan/tcpchat/internal/config"
	"github.com/vovakirdan/tcpchat/internal/log"
)

const defaultEnvFile = ".env"

type serveOptions struct {
	configPath string
	envFile    string
	overrides  config.Config
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "path to config file (yaml or json)")
	f.StringVar(&opts.envFile, "env-file", defaultEnvFile, "dotenv file with TCPCHAT_* variables")
	f.StringVar(&opts.overrides.Host, "host", "", "listen host")
	f.IntVarP(&opts.overrides.Port, "port", "p", 0, "listen port")
	f.StringVar(&opts.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&opts.overrides.AdminAddr, "admin-addr", "", "admin HTTP address, empty to disable")
	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	bootLog := log.New(zerolog.LevelInfoValue)

	if err := loadEnvFile(opts.envFile); err != nil {
		return err
	}

	cfg, path, err := config.Load(bootLog, opts.configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(opts.overrides)

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	logger.Debug().Str("config", path).Msg("configuration loaded")

	application, err := app.New(&cfg, logger)
	if err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// loadEnvFile exports TCPCHAT_* variables from a dotenv file. Only a missing
// default file is tolerated; a malformed one is an error.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || (path == defaultEnvFile && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

func newLogger(cfg config.Config) (*zerolog.Logger, error) {
	if !cfg.Syslog {
		return log.New(cfg.LogLevel), nil
	}
	logger, err := log.NewWithSyslog(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("syslog: %w", err)
	}
	return logger, nil
}

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tordrt/ddlschema/internal/api"
	"github.com/tordrt/ddlschema/internal/config"
	"github.com/tordrt/ddlschema/internal/logging"
)

var configFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the parser over HTTP",
	Long: `serve exposes POST /parse-sql (multipart upload), POST /parse-text (JSON) and
GET /ws/parse (websocket). Settings come from --config, DDLSCHEMA_* environment
variables, a .env file and the flags below.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&configFile, "config", "", "YAML config file")
	f.String("addr", config.DefaultAddr, "Listen address")
	f.Int64("max-upload-bytes", config.DefaultMaxUploadBytes, "Largest accepted request body")
	f.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn or error")
	f.Bool("log-development", false, "Human-readable development logging")
	f.StringSlice("allowed-origins", nil, "Origins allowed for CORS and websockets (\"*\" for any)")
	f.Duration("shutdown-timeout", config.DefaultShutdownTimeout, "Grace period for in-flight requests on shutdown")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Debug("loaded config",
		zap.String("addr", cfg.Addr),
		zap.Int64("max_upload_bytes", cfg.MaxUploadBytes),
		zap.Strings("allowed_origins", cfg.AllowedOrigins),
	)

	return api.NewServer(cfg, logger).ListenAndServe(ctx)
}

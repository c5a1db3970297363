package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/image-editor-mcp/internal/config"
	"github.com/ironsheep/image-editor-mcp/internal/editor"
	"github.com/ironsheep/image-editor-mcp/internal/media"
	"github.com/ironsheep/image-editor-mcp/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions, info BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdin/stdout",
		Long: `Run the image editor as an MCP server.

Requests are read from stdin and responses written to stdout, one JSON-RPC
message per line. Logs go to stderr. Configure it in your MCP client as the
command "image-editor serve".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts, info, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, info BuildInfo, in io.Reader, out io.Writer) error {
	cfg, log, err := loadConfig(opts)
	if err != nil {
		return err
	}
	defer log.Sync()

	srv, closeStore, err := newServer(cfg, log, info)
	if err != nil {
		return err
	}
	defer closeStore()

	log.Info("image editor MCP server starting",
		zap.String("version", info.Version),
		zap.String("build_time", info.BuildTime),
		zap.String("commit", info.GitCommit),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Serve blocks on stdin; a signal must not wait for the next line.
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, in, out) }()

	return waitForServe(ctx, done, shutdownGrace, log)
}

// shutdownGrace bounds how long a signal waits for the request in flight.
var shutdownGrace = 5 * time.Second

// waitForServe returns when Serve does. After ctx is done it waits up to
// grace for the current request to finish, so the media library is not
// closed under a running save.
func waitForServe(ctx context.Context, done <-chan error, grace time.Duration, log *zap.Logger) error {
	select {
	case err := <-done:
		if err != nil {
			return WrapExitError(ExitFailure, "server error", err)
		}
		log.Info("stdin closed, shutting down")
		return nil
	case <-ctx.Done():
		log.Info("signal received, shutting down")
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		// Serve is parked on a stdin read, not inside a request.
		log.Debug("server still reading stdin after grace period")
	}
	return nil
}

// newServer wires the configuration into a server. The returned func closes
// the media library, if one was opened.
func newServer(cfg config.Config, log *zap.Logger, info BuildInfo) (*server.Server, func(), error) {
	var store *media.Store
	closeStore := func() {}
	if cfg.Media.Dir != "" {
		var err error
		store, err = media.Open(media.Config{Dir: cfg.Media.Dir, Database: cfg.MediaDatabase()}, log.Named("media"))
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open media library", err)
		}
		closeStore = func() {
			if err := store.Close(); err != nil {
				log.Warn("failed to close media library", zap.Error(err))
			}
		}
	}

	srv := server.New(server.Options{
		LoaderConfig:        cfg.LoaderOptions(),
		Export:              editor.ExportOptions{Format: cfg.ExportFormat(), Quality: cfg.Export.Quality},
		GuideColor:          cfg.GuideColor(),
		PreviewMaxDimension: cfg.Preview.MaxDimension,
		Media:               store,
		Logger:              log,
		Version:             info.Version,
	})
	return srv, closeStore, nil
}

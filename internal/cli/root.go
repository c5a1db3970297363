// Package cli implements the image-editor command line: the stdio MCP
// server and batch recipe runs.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/image-editor-mcp/internal/config"
	"github.com/ironsheep/image-editor-mcp/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"
}

// BuildInfo is stamped into the binary by ldflags.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the image-editor CLI.
func NewRootCommand(info BuildInfo) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "image-editor",
		Short: "Raster image editor: rotate, filter, crop and resize",
		Long: `Raster image editor exposing rotate, filter, crop and resize
as MCP tools over stdio, or as batch recipes from the command line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file (default $"+config.EnvConfigFile+")")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts, info))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts, info))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig reads the configuration and builds the logger for a command.
// --verbose forces debug logging.
func loadConfig(opts *RootOptions) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, logging.New(cfg.Log), nil
}

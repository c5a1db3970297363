package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions, info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootOpts.Format == "json" {
				f := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
				return f.Success(map[string]string{
					"version":    info.Version,
					"build_time": info.BuildTime,
					"git_commit": info.GitCommit,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "image-editor %s\n", info.Version)
			fmt.Fprintf(out, "  Build time: %s\n", info.BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", info.GitCommit)
			return nil
		},
	}
}

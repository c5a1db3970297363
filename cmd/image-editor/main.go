package main

import (
	"context"
	"os"

	"github.com/ironsheep/image-editor-mcp/internal/cli"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cmd := cli.NewRootCommand(cli.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}

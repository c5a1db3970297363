package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/image-editor-mcp/internal/config"
	"github.com/ironsheep/image-editor-mcp/internal/editor"
	"github.com/ironsheep/image-editor-mcp/internal/imaging"
	"github.com/ironsheep/image-editor-mcp/internal/media"
	"github.com/ironsheep/image-editor-mcp/internal/recipe"
)

// EditOptions holds flags for the edit command.
type EditOptions struct {
	Output      string
	Strict      bool
	Save        bool
	WriteRecipe string
}

// EditResult describes a completed edit.
type EditResult struct {
	Source    string                `json:"source"`
	Output    string                `json:"output,omitempty"`
	MediaID   string                `json:"media_id,omitempty"`
	Recipe    string                `json:"recipe,omitempty"`
	SizeBytes int                   `json:"size_bytes"`
	Metadata  editor.ExportMetadata `json:"metadata"`
}

func (r EditResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s → %dx%d %s, %d bytes", r.Source, r.Metadata.Width, r.Metadata.Height, r.Metadata.Format, r.SizeBytes)
	if r.Output != "" {
		fmt.Fprintf(&b, "\n  wrote %s", r.Output)
	}
	if r.MediaID != "" {
		fmt.Fprintf(&b, "\n  saved as %s", r.MediaID)
	}
	if r.Recipe != "" {
		fmt.Fprintf(&b, "\n  replay recipe %s", r.Recipe)
	}
	return b.String()
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{}

	cmd := &cobra.Command{
		Use:   "edit <recipe>",
		Short: "Apply a YAML or JSON recipe to an image",
		Long: `Load the recipe's source, replay its rotation, filters, crop and
target size, and write the exported image.

Out-of-range values are clamped like the interactive editor does; use
--strict to reject them instead. When the recipe sets no output format it is
taken from the output file extension, then from the configuration.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Errors are reported through the formatter
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			return runEdit(cmd.Context(), rootOpts, opts, args[0], formatter)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (overrides the recipe's output.path)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "reject out-of-range values instead of clamping")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "also store the result in the media library")
	cmd.Flags().StringVar(&opts.WriteRecipe, "write-recipe", "", "write a recipe that replays this export to the given file")

	return cmd
}

// fail reports err through the formatter and returns the exit error.
func fail(f *OutputFormatter, exitCode int, code, message string, err error) error {
	var details interface{}
	if err != nil {
		details = err.Error()
	}
	if outErr := f.Error(code, message, details); outErr != nil {
		return outErr
	}
	return WrapExitError(exitCode, message, err)
}

func runEdit(ctx context.Context, rootOpts *RootOptions, opts *EditOptions, path string, f *OutputFormatter) error {
	cfg, log, err := loadConfig(rootOpts)
	if err != nil {
		return fail(f, ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
	}
	defer log.Sync()

	r, err := recipe.Load(path)
	if err != nil {
		return fail(f, ExitCommandError, ErrCodeRecipe, "failed to load recipe", err)
	}
	if opts.Strict {
		if err := r.Validate(); err != nil {
			return fail(f, ExitCommandError, ErrCodeRecipe, "recipe is invalid", err)
		}
	}

	if opts.Output != "" {
		r.Output.Path = opts.Output
	}
	if r.Output.Path == "" && !opts.Save {
		return fail(f, ExitCommandError, ErrCodeRecipe, "no output: set output.path, --output or --save", nil)
	}
	resolveOutput(r, cfg)

	exportOpts, err := r.ExportOptions()
	if err != nil {
		return fail(f, ExitCommandError, ErrCodeRecipe, "invalid output settings", err)
	}
	f.VerboseLog("Editing %s (%s, quality %d)", r.Source, exportOpts.Format, exportOpts.Quality)

	session := editor.NewSession(editor.Options{
		Loader:     imaging.NewLoader(cfg.LoaderOptions(), nil),
		Export:     exportOpts,
		GuideColor: cfg.GuideColor(),
		Logger:     log.Named("editor"),
	})

	img, meta, err := r.Run(ctx, session)
	if err != nil {
		var loadErr *editor.LoadError
		if errors.As(err, &loadErr) {
			return fail(f, ExitFailure, ErrCodeLoad, "failed to load source", err)
		}
		return fail(f, ExitFailure, ErrCodeExport, "failed to export", err)
	}

	result := EditResult{Source: r.Source, SizeBytes: len(img.Data), Metadata: meta}

	if r.Output.Path != "" {
		if err := writeFile(r.Output.Path, img.Data); err != nil {
			return fail(f, ExitFailure, ErrCodeOutput, "failed to write output", err)
		}
		result.Output = r.Output.Path
		f.VerboseLog("Wrote %s", r.Output.Path)
	}

	if opts.Save {
		id, err := saveToMedia(ctx, cfg, log, img, meta)
		if err != nil {
			return fail(f, ExitFailure, ErrCodeOutput, "failed to save to media library", err)
		}
		result.MediaID = id
	}

	if opts.WriteRecipe != "" {
		replay := recipe.FromMetadata(r.Source, meta)
		replay.Output.Path = r.Output.Path
		data, err := replay.Marshal()
		if err == nil {
			err = writeFile(opts.WriteRecipe, data)
		}
		if err != nil {
			return fail(f, ExitFailure, ErrCodeOutput, "failed to write replay recipe", err)
		}
		result.Recipe = opts.WriteRecipe
	}

	return f.Success(result)
}

// resolveOutput fills the output format and quality the recipe leaves open:
// format from the output extension, then from the configuration.
func resolveOutput(r *recipe.Recipe, cfg config.Config) {
	if r.Output.Format == "" {
		ext := strings.TrimPrefix(filepath.Ext(r.Output.Path), ".")
		if format, err := imaging.ParseFormat(ext); err == nil && ext != "" {
			r.Output.Format = string(format)
		} else {
			r.Output.Format = string(cfg.ExportFormat())
		}
	}
	if r.Output.Quality == 0 {
		r.Output.Quality = cfg.Export.Quality
	}
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func saveToMedia(ctx context.Context, cfg config.Config, log *zap.Logger, img *editor.EncodedImage, meta editor.ExportMetadata) (string, error) {
	if cfg.Media.Dir == "" {
		return "", fmt.Errorf("media.dir is not configured (set %s)", config.EnvMediaDir)
	}
	store, err := media.Open(media.Config{Dir: cfg.Media.Dir, Database: cfg.MediaDatabase()}, log.Named("media"))
	if err != nil {
		return "", err
	}
	defer store.Close()
	return store.Save(ctx, img, meta)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-editor-mcp/internal/imaging"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, imaging.FormatJPEG, cfg.ExportFormat())
	assert.Equal(t, 90, cfg.Export.Quality)
	assert.Equal(t, "", cfg.MediaDatabase())
	assert.Equal(t, imaging.DefaultGuideColor, cfg.GuideColor())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "editor.yaml", `
log:
  level: debug
loader:
  timeout: 5s
  max_bytes: 1024
export:
  format: webp
  quality: 75
preview:
  max_dimension: 512
  guide_color: "#FF000080"
media:
  dir: /tmp/media
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.Loader.Timeout)
	assert.Equal(t, int64(1024), cfg.Loader.MaxBytes)
	assert.Equal(t, imaging.FormatWebP, cfg.ExportFormat())
	assert.Equal(t, 75, cfg.Export.Quality)
	assert.Equal(t, 512, cfg.Preview.MaxDimension)
	assert.Equal(t, uint8(0x80), cfg.GuideColor().A)
	assert.Equal(t, filepath.Join("/tmp/media", "media.db"), cfg.MediaDatabase())
	// Unset keys keep their defaults.
	assert.Equal(t, imaging.DefaultLoaderConfig().UserAgent, cfg.Loader.UserAgent)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "editor.yaml", "export:\n  quality: 60\n")
	t.Setenv(EnvExportQuality, "85")
	t.Setenv(EnvLoadTimeout, "2m")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 85, cfg.Export.Quality)
	assert.Equal(t, 2*time.Minute, cfg.Loader.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_ConfigFromEnv(t *testing.T) {
	path := writeFile(t, "editor.yaml", "preview:\n  max_dimension: 300\n")
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Preview.MaxDimension)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Equal(t, CodeFileUnreadable, Code(err))
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "export: [unclosed"))
		require.Error(t, err)
		assert.Equal(t, CodeFileInvalid, Code(err))
	})

	t.Run("bad env integer", func(t *testing.T) {
		t.Setenv(EnvPreviewMax, "big")
		_, err := Load("")
		require.Error(t, err)
		assert.Equal(t, CodeInvalidValue, Code(err))
		assert.Contains(t, err.Error(), EnvPreviewMax)
	})

	t.Run("bad env duration", func(t *testing.T) {
		t.Setenv(EnvLoadTimeout, "soon")
		_, err := Load("")
		assert.Equal(t, CodeInvalidValue, Code(err))
	})
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Export.Format = "gif"
	cfg.Export.Quality = 0
	cfg.Preview.GuideColor = "#12"
	cfg.Media.Database = "/tmp/x.db"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"export.format", "export.quality", "preview.guide_color", "media.dir"} {
		assert.Contains(t, err.Error(), want)
	}
	assert.Equal(t, CodeInvalidValue, Code(err))
}

func TestError_Error(t *testing.T) {
	withAction := &Error{Code: "X", Message: "Bad thing", Action: "Fix it"}
	assert.Equal(t, "Bad thing. Fix it", withAction.Error())

	bare := &Error{Code: "X", Message: "Bad thing"}
	assert.Equal(t, "Bad thing", bare.Error())
}

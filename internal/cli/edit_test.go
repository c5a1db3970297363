package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-editor-mcp/internal/config"
	"github.com/ironsheep/image-editor-mcp/internal/editor"
	"github.com/ironsheep/image-editor-mcp/internal/imaging"
	"github.com/ironsheep/image-editor-mcp/internal/recipe"
)

type editResponse struct {
	Status string      `json:"status"`
	Data   *EditResult `json:"data"`
	Error  *CLIError   `json:"error"`
}

// isolateConfig keeps the developer's environment out of the test.
func isolateConfig(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvConfigFile, config.EnvMediaDir, config.EnvMediaDB, config.EnvExportFormat, config.EnvExportQuality} {
		t.Setenv(key, "")
	}
}

// writeFixture writes a 400x300 PNG and a recipe next to it.
func writeFixture(t *testing.T, recipeYAML string) (dir, recipePath string) {
	t.Helper()
	dir = t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 400, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 400; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 90, A: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, "photo.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	recipePath = filepath.Join(dir, "edit.yaml")
	require.NoError(t, os.WriteFile(recipePath, []byte(recipeYAML), 0o644))
	return dir, recipePath
}

func runCLI(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand(BuildInfo{Version: "test"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func decodeEdit(t *testing.T, buf *bytes.Buffer) editResponse {
	t.Helper()
	var resp editResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp), buf.String())
	return resp
}

const scenarioRecipe = `
source: photo.png
rotation: 90
filters:
  sepia: 25
crop: {x: 0, y: 0, width: 300, height: 400}
target: {width: 150, height: 200}
`

func TestEdit_WritesOutput(t *testing.T) {
	isolateConfig(t)
	dir, recipePath := writeFixture(t, scenarioRecipe)
	out := filepath.Join(dir, "out", "result.jpg")

	buf, err := runCLI(t, "--format", "json", "edit", recipePath, "-o", out)
	require.NoError(t, err)

	resp := decodeEdit(t, buf)
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Data)
	assert.Equal(t, out, resp.Data.Output)
	assert.Equal(t, filepath.Join(dir, "photo.png"), resp.Data.Source)
	assert.Equal(t, 150, resp.Data.Metadata.Width)
	assert.Equal(t, 200, resp.Data.Metadata.Height)
	assert.Equal(t, "jpeg", resp.Data.Metadata.Format)
	assert.Equal(t, 90, resp.Data.Metadata.Quality)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, resp.Data.SizeBytes, len(data))
	img, format, err := imaging.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 150, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestEdit_TextOutput(t *testing.T) {
	isolateConfig(t)
	dir, recipePath := writeFixture(t, scenarioRecipe)
	out := filepath.Join(dir, "result.jpg")

	buf, err := runCLI(t, "edit", recipePath, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "150x200 jpeg")
	assert.Contains(t, buf.String(), "wrote "+out)
}

func TestEdit_FormatFromExtension(t *testing.T) {
	isolateConfig(t)
	dir, recipePath := writeFixture(t, "source: photo.png\n")
	out := filepath.Join(dir, "result.png")

	buf, err := runCLI(t, "--format", "json", "edit", recipePath, "-o", out)
	require.NoError(t, err)

	resp := decodeEdit(t, buf)
	assert.Equal(t, "png", resp.Data.Metadata.Format)
	assert.Equal(t, 400, resp.Data.Metadata.Width)
}

func TestEdit_Strict(t *testing.T) {
	isolateConfig(t)
	dir, recipePath := writeFixture(t, "source: photo.png\nfilters:\n  brightness: 500\n")
	out := filepath.Join(dir, "result.jpg")

	buf, err := runCLI(t, "--format", "json", "edit", recipePath, "-o", out, "--strict")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	resp := decodeEdit(t, buf)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeRecipe, resp.Error.Code)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))

	// Without --strict the value is clamped.
	buf, err = runCLI(t, "--format", "json", "edit", recipePath, "-o", out)
	require.NoError(t, err)
	resp = decodeEdit(t, buf)
	assert.Equal(t, 200.0, resp.Data.Metadata.Filters.Brightness)
}

func TestEdit_Errors(t *testing.T) {
	isolateConfig(t)
	dir, recipePath := writeFixture(t, "source: missing.png\n")

	tests := []struct {
		name     string
		args     []string
		exitCode int
		errCode  string
	}{
		{"missing recipe", []string{filepath.Join(dir, "nope.yaml"), "-o", filepath.Join(dir, "a.jpg")}, ExitCommandError, ErrCodeRecipe},
		{"no output", []string{recipePath}, ExitCommandError, ErrCodeRecipe},
		{"missing source", []string{recipePath, "-o", filepath.Join(dir, "a.jpg")}, ExitFailure, ErrCodeLoad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := runCLI(t, append([]string{"--format", "json", "edit"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			resp := decodeEdit(t, buf)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.errCode, resp.Error.Code)
		})
	}
}

func TestEdit_SaveRequiresMediaDir(t *testing.T) {
	isolateConfig(t)
	_, recipePath := writeFixture(t, scenarioRecipe)

	buf, err := runCLI(t, "--format", "json", "edit", recipePath, "--save")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decodeEdit(t, buf)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeOutput, resp.Error.Code)
	assert.Contains(t, resp.Error.Details, config.EnvMediaDir)
}

func TestEdit_SaveToMedia(t *testing.T) {
	isolateConfig(t)
	dir, recipePath := writeFixture(t, scenarioRecipe)
	t.Setenv(config.EnvMediaDir, filepath.Join(dir, "media"))

	buf, err := runCLI(t, "--format", "json", "edit", recipePath, "--save")
	require.NoError(t, err)

	resp := decodeEdit(t, buf)
	assert.NotEmpty(t, resp.Data.MediaID)
	assert.Empty(t, resp.Data.Output)
	assert.FileExists(t, filepath.Join(dir, "media", resp.Data.MediaID+".jpg"))
}

func TestEdit_WriteRecipe(t *testing.T) {
	isolateConfig(t)
	dir, recipePath := writeFixture(t, scenarioRecipe)
	out := filepath.Join(dir, "result.jpg")
	replayPath := filepath.Join(dir, "replay.yaml")

	buf, err := runCLI(t, "--format", "json", "edit", recipePath, "-o", out, "--write-recipe", replayPath)
	require.NoError(t, err)
	first := decodeEdit(t, buf)
	assert.Equal(t, replayPath, first.Data.Recipe)

	replay, err := recipe.Load(replayPath)
	require.NoError(t, err)
	assert.Equal(t, 90, replay.Rotation)
	assert.Equal(t, &editor.Dimensions{Width: 150, Height: 200}, replay.Target)
	require.NoError(t, replay.Validate())

	// Replaying produces the same export.
	buf, err = runCLI(t, "--format", "json", "edit", replayPath)
	require.NoError(t, err)
	second := decodeEdit(t, buf)
	assert.Equal(t, first.Data.Metadata, second.Data.Metadata)
}

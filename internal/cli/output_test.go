package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	err := NewExitError(ExitCommandError, "bad recipe")
	assert.Equal(t, "bad recipe", err.Error())
	assert.Nil(t, err.Unwrap())

	cause := errors.New("no such file")
	wrapped := WrapExitError(ExitFailure, "load failed", cause)
	assert.Equal(t, "load failed: no such file", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "x"))))
}

func TestOutputFormatter_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(map[string]int{"width": 150}))
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)

	buf.Reset()
	require.NoError(t, f.Error(ErrCodeRecipe, "recipe is invalid", "brightness=500"))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E002", resp.Error.Code)
	assert.Equal(t, "brightness=500", resp.Error.Details)
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success("done"))
	assert.Contains(t, buf.String(), "done")

	buf.Reset()
	require.NoError(t, f.Error(ErrCodeLoad, "failed to load source", "timeout"))
	assert.Contains(t, buf.String(), "Error [E003]")
	assert.Contains(t, buf.String(), "failed to load source")
	assert.NotContains(t, buf.String(), "timeout", "details only in verbose mode")

	buf.Reset()
	f.Verbose = true
	require.NoError(t, f.Error(ErrCodeLoad, "failed to load source", "timeout"))
	assert.Contains(t, buf.String(), "timeout")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}

	f.VerboseLog("hidden %d", 1)
	assert.Empty(t, errOut.String())

	f.Verbose = true
	f.VerboseLog("shown %d", 2)
	assert.Contains(t, errOut.String(), "shown 2")
	assert.Empty(t, out.String(), "verbose output must not corrupt JSON")
}

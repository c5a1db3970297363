package editor

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSource is returned when an operation needs a loaded source image.
	ErrNoSource = errors.New("no source image loaded")

	// ErrSuperseded marks a load whose result was discarded because a newer
	// load (or a cancel) started before it finished.
	ErrSuperseded = errors.New("load superseded by a newer request")

	// ErrSourceReplaced marks an export whose source changed while it was
	// being encoded.
	ErrSourceReplaced = errors.New("source replaced during export")
)

// LoadError reports a source image that could not be fetched or decoded.
// The session is left Empty, except for ErrSuperseded where the newer load
// owns the session.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.URL, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ExportError reports a failed export. The session stays Ready so the
// caller can retry without reloading.
type ExportError struct {
	Op  string
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export (%s): %v", e.Op, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

package config

import (
	"errors"
	"fmt"
)

// Error is a configuration problem with an instruction for fixing it.
type Error struct {
	Code    string // stable identifier for programmatic handling
	Message string
	Action  string
}

func (e *Error) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes.
const (
	CodeFileUnreadable = "CONFIG_FILE_UNREADABLE"
	CodeFileInvalid    = "CONFIG_FILE_INVALID"
	CodeInvalidValue   = "INVALID_VALUE"
)

func errFileUnreadable(path string, err error) *Error {
	return &Error{
		Code:    CodeFileUnreadable,
		Message: fmt.Sprintf("Cannot read configuration file %s: %v", path, err),
		Action:  "Check the --config flag or " + EnvConfigFile,
	}
}

func errFileInvalid(path string, err error) *Error {
	return &Error{
		Code:    CodeFileInvalid,
		Message: fmt.Sprintf("Invalid YAML in %s: %v", path, err),
		Action:  "Fix the syntax error and try again",
	}
}

func errInvalidValue(key, reason, action string) *Error {
	return &Error{
		Code:    CodeInvalidValue,
		Message: fmt.Sprintf("Invalid %s: %s", key, reason),
		Action:  action,
	}
}

// Code returns the code of the first *Error in err's chain, or "".
func Code(err error) string {
	var cfgErr *Error
	if errors.As(err, &cfgErr) {
		return cfgErr.Code
	}
	return ""
}

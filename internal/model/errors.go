package model

import (
	"errors"
	"fmt"
)

var (
	ErrConfig       = errors.New("configuration error")
	ErrNotFound     = errors.New("not found")
	ErrExternalTool = errors.New("external tool failed")
)

// ConfigError reports a malformed, missing or inconsistent setting.
type ConfigError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "config"
	if e.Key != "" {
		msg += " " + e.Key
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

func NewConfigError(key, format string, args ...any) *ConfigError {
	return &ConfigError{Key: key, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a persisted artifact missing on resume or plot.
type NotFoundError struct {
	What string
	Path string
}

func (e *NotFoundError) Error() string {
	if e.What == "" {
		return fmt.Sprintf("not found: %s", e.Path)
	}
	return fmt.Sprintf("%s not found: %s", e.What, e.Path)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ExternalToolError reports a failure of the simulation engine or a renderer.
// File names the artifact to re-run standalone.
type ExternalToolError struct {
	Tool   string
	JobID  string
	File   string
	Output string
	Err    error
}

func (e *ExternalToolError) Error() string {
	msg := e.Tool
	if msg == "" {
		msg = "external tool"
	}
	if e.JobID != "" {
		msg += " job " + e.JobID
	}
	msg += " failed on " + e.File
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

func (e *ExternalToolError) Is(target error) bool { return target == ErrExternalTool }

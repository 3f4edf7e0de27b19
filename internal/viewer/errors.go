package viewer

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by the typed errors below.
var (
	ErrEmptyBuffer    = errors.New("buffer is empty")
	ErrInvalidName    = errors.New("model name is required")
	ErrMissingScene   = errors.New("scene is required")
	ErrMissingCamera  = errors.New("camera is required")
	ErrMissingEngine  = errors.New("geometry engine is required")
	ErrNotInitialized = errors.New("viewer is not initialized")
	ErrModelNotFound  = errors.New("model not found")
	ErrLoadInProgress = errors.New("another load is in progress")
	ErrDisposed       = errors.New("viewer was disposed during the load")
)

// ConfigurationError means a required collaborator is missing or could not
// be set up. The manager must be initialized again.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: configuration: %v", e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ValidationError reports bad caller input. Nothing was changed.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("load model: invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// LoadError reports a failed load. Err carries the engine's message unchanged.
type LoadError struct {
	Name  string
	Stage Status // Stage the load was in when it failed
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load model %q: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ExportError reports a failed export.
type ExportError struct {
	ID   string
	Name string
	Err  error
}

func (e *ExportError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("export model %s: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("export model %q (%s): %v", e.Name, e.ID, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// DisposalWarning reports a cleanup step that failed. It is logged and
// never returned to callers.
type DisposalWarning struct {
	ID   string
	Name string
	Op   string // detach, dispose, engine, close
	Err  error
}

func (e *DisposalWarning) Error() string {
	return fmt.Sprintf("%s model %q (%s): %v", e.Op, e.Name, e.ID, e.Err)
}

func (e *DisposalWarning) Unwrap() error { return e.Err }

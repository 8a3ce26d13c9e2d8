package model

import (
	"fmt"
)

// MissingInputError reports a required input file that does not exist.
// It is recoverable: the caller may generate a template or disable the
// feature that needs the file.
type MissingInputError struct {
	Path string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("input file not found: %s", e.Path)
}

// MissingCollateralError reports that the target folder or the source face
// image needed for face pairing is absent. The face swap phase is skipped.
type MissingCollateralError struct {
	// What names the missing item, e.g. "target folder" or "source image".
	What string
	Path string
}

func (e *MissingCollateralError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.What, e.Path)
}

// Sides of a face swap, used by NoFaceFoundError.
const (
	SideTarget = "target"
	SideSource = "source"
)

// NoFaceFoundError reports that one side of a swap contains no face.
type NoFaceFoundError struct {
	Side string
	Path string
}

func (e *NoFaceFoundError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("no face found in %s image", e.Side)
	}
	return fmt.Sprintf("no face found in %s image %s", e.Side, e.Path)
}

// EngineUnavailableError reports that the external face runtime cannot be
// used. Every engine operation fails with it once the runtime failed to load.
type EngineUnavailableError struct {
	Err error
}

func (e *EngineUnavailableError) Error() string {
	if e.Err == nil {
		return "face swap engine unavailable"
	}
	return fmt.Sprintf("face swap engine unavailable: %v", e.Err)
}

func (e *EngineUnavailableError) Unwrap() error {
	return e.Err
}

// ConfigValidationError reports an out-of-range or malformed configuration
// value. It is fatal and raised before any task is built.
type ConfigValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// MissingFaceModelWarning is returned alongside a complete task list when
// face swap is enabled but the face model image is missing. It is not fatal.
type MissingFaceModelWarning struct {
	Path string
}

func (e *MissingFaceModelWarning) Error() string {
	return fmt.Sprintf("face swap enabled but face model image not found: %s", e.Path)
}

package convert

import (
	"errors"
	"fmt"
)

// ErrImageSizeUnavailable is returned when an annotation record carries no
// original size and the source image cannot be read to recover it.
var ErrImageSizeUnavailable = errors.New("original image size unavailable")

// ErrNoImageMatch is returned when no image file with a supported extension
// matches an annotation record's base name.
var ErrNoImageMatch = errors.New("no matching image file")

// SchemaError reports an annotation record that does not match the expected
// JSON shape. The record is skipped, not fatal to the batch.
type SchemaError struct {
	Index  int
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("annotation %d: %s", e.Index, e.Reason)
}

// UnknownLabelError reports an annotation whose label has no entry in the
// class table. The annotation is skipped with a warning.
type UnknownLabelError struct {
	Index int
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("annotation %d: label %q not in class table", e.Index, e.Label)
}

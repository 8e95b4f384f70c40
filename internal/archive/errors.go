package archive

import (
	"errors"
	"fmt"
)

// ErrNotDirectory is returned when the archive root is not a directory.
var ErrNotDirectory = errors.New("archive root is not a directory")

// MalformedEntryError reports a fragment that could not be read or decoded.
// A single malformed fragment fails the whole load.
type MalformedEntryError struct {
	Path string
	Err  error
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("malformed archive entry %s: %v", e.Path, e.Err)
}

func (e *MalformedEntryError) Unwrap() error {
	return e.Err
}

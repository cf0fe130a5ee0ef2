package asset

import (
	"errors"
	"fmt"
)

var (
	// ErrNotGLB means the input is not a version 2 binary glTF container.
	ErrNotGLB = errors.New("not a binary glTF 2.0 container")

	ErrNoPrimitives      = errors.New("asset: document has no mesh primitives")
	ErrUnsupported       = errors.New("asset: unsupported geometry")
	ErrAlreadyCompressed = errors.New("asset: primitive is already compressed")
	ErrInvalidOptions    = errors.New("asset: invalid compression options")
	ErrCorruptPayload    = errors.New("asset: corrupt compressed payload")
)

// ParseError reports an input model that could not be read.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("asset: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

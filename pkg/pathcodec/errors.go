package pathcodec

import "errors"

var (
	ErrEmptyPath    = errors.New("pathcodec: path cannot be empty")
	ErrEmptySegment = errors.New("pathcodec: path contains an empty segment")
	ErrNilDocument  = errors.New("pathcodec: document cannot be nil")
	ErrNilValue     = errors.New("pathcodec: value cannot be nil")
)

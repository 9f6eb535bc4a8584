package localesync

import "errors"

var (
	ErrNoLanguages       = errors.New("localesync: no languages configured")
	ErrInvalidLanguage   = errors.New("localesync: invalid language")
	ErrMissingStore      = errors.New("localesync: content and bundle stores must be configured together")
	ErrAlreadyStarted    = errors.New("localesync: engine already started")
	ErrClosed            = errors.New("localesync: engine closed")
	ErrAutoRebuildNoSync = errors.New("localesync: auto rebuild requires a subscriber")
)

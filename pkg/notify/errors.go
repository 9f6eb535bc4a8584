package notify

import "errors"

var (
	ErrClosed           = errors.New("notify: closed")
	ErrSubscribeFailed  = errors.New("notify: failed to subscribe")
	ErrPublishFailed    = errors.New("notify: failed to publish")
	ErrInvalidChannel   = errors.New("notify: invalid channel name")
	ErrMalformedPayload = errors.New("notify: malformed payload")
)

package rebuild

import "errors"

var (
	ErrRebuildAborted    = errors.New("rebuild: aborted, previous bundle kept")
	ErrUnknownLanguage   = errors.New("rebuild: unsupported language")
	ErrPersistFailed     = errors.New("rebuild: failed to store bundle")
	ErrPoolRequired      = errors.New("rebuild: database pool is required")
	ErrAlreadyStarted    = errors.New("rebuild: queue already started")
	ErrNotStarted        = errors.New("rebuild: queue not started")
	ErrInvalidSchedule   = errors.New("rebuild: invalid cron schedule")
	ErrHealthcheckFailed = errors.New("rebuild: healthcheck failed")
)

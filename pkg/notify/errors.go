package notify

import "errors"

var (
	ErrNoNotifiers   = errors.New("no notifiers configured")
	ErrInvalidConfig = errors.New("invalid notifier config")
	ErrSendFailed    = errors.New("failed to send notification")
)

package notification

import "errors"

var (
	// ErrStaleToken means FCM no longer knows the device token.
	ErrStaleToken   = errors.New("device token is no longer registered")
	ErrRelayClosed  = errors.New("notification relay closed")
	ErrMissingToken = errors.New("fcm token is required")
)

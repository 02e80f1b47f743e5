package realtime

import "errors"

var (
	ErrManagerClosed = errors.New("realtime manager closed")
	ErrEmptyMessage  = errors.New("message is empty")
)

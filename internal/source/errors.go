package source

import "codeberg.org/treska/revmon/internal/errors"

const (
	// Configuration errors
	ErrUnknownDevice = errors.ErrorCode("source_unknown_device")
	ErrMissingPort   = errors.ErrorCode("source_missing_port")

	// Transport errors
	ErrOpenFailed = errors.ErrorCode("source_open_failed")
	ErrReadFailed = errors.ErrorCode("source_read_failed")
	ErrPollFailed = errors.ErrorCode("source_poll_failed")
)

package monitor

import "codeberg.org/treska/revmon/internal/errors"

const (
	ErrReadSample = errors.ErrorCode("monitor_read_sample_failed")
)

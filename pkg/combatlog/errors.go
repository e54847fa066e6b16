package combatlog

import "errors"

var (
	// ErrEmptyLog is returned when no candidate lines remain after filtering.
	ErrEmptyLog = errors.New("no usable lines in combat log")
	// ErrMalformedNumber is returned when a numeric field does not fit an int64.
	ErrMalformedNumber = errors.New("malformed numeric field")
	// ErrIgnored is returned for lines which are recognised but intentionally produce no event, such as
	// creep kills.
	ErrIgnored = errors.New("ignored line")
)

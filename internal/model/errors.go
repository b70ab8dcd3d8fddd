package model

import "errors"

// Sentinel errors for the three kinds of failure the pipeline distinguishes.
// Preprocessing errors abort the run; per-trial EmptySolution is logged and
// that trial dropped.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrCheckpointIO   = errors.New("checkpoint io")
	ErrEmptySolution  = errors.New("empty solution")
)

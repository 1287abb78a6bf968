package processor

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a job failed.
type ErrorKind string

const (
	KindDecodeError      ErrorKind = "DecodeError"
	KindUnknownFilter    ErrorKind = "UnknownFilter"
	KindInvalidDimension ErrorKind = "InvalidDimension"
	KindEncodeError      ErrorKind = "EncodeError"
	KindWriteError       ErrorKind = "WriteError"
	KindCancelled        ErrorKind = "Cancelled"
)

var (
	ErrUnknownFilter    = errors.New("unknown filter")
	ErrInvalidDimension = errors.New("invalid dimension")
	ErrInvalidOptions   = errors.New("invalid options")
	ErrCancelled        = errors.New("batch cancelled")
)

// JobError is the failure recorded for a single job.
type JobError struct {
	Kind ErrorKind
	Err  error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

func jobErr(kind ErrorKind, err error) *JobError {
	return &JobError{Kind: kind, Err: err}
}

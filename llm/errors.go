package llm

import "errors"

// TransientError marks a failure worth retrying: timeouts, rate limits,
// 5xx responses.
type TransientError struct {
	wrapped error
}

func (e *TransientError) Error() string { return e.wrapped.Error() }
func (e *TransientError) Unwrap() error { return e.wrapped }

// FatalError marks a failure no retry can fix: bad credentials, malformed
// requests, unknown models.
type FatalError struct {
	wrapped error
}

func (e *FatalError) Error() string { return e.wrapped.Error() }
func (e *FatalError) Unwrap() error { return e.wrapped }

// NewTransientError classifies err as retryable.
func NewTransientError(err error) error {
	return &TransientError{wrapped: err}
}

// NewFatalError classifies err as permanent.
func NewFatalError(err error) error {
	return &FatalError{wrapped: err}
}

// IsTransient reports whether err is classified as retryable.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsFatal reports whether err is classified as permanent.
func IsFatal(err error) bool {
	var f *FatalError
	return errors.As(err, &f)
}

//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package timeline

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable is returned when the backend cannot be reached or
	// fails to execute an operation.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrEncoding is returned when a segment cannot be encoded as a record.
	ErrEncoding = errors.New("encoding error")

	// ErrDecoding is returned when a stored record is malformed.
	ErrDecoding = errors.New("decoding error")

	// ErrInvariantViolation is returned when the stored neighborhood of a
	// timestamp is inconsistent, e.g. a record ends before it starts.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrConflict is returned when a transactional executor aborted the unit
	// of work because of a concurrent writer. Nothing has been applied.
	ErrConflict = errors.New("conflicting concurrent update")
)

// RecordError binds a codec failure to the record it was raised for.
type RecordError struct {
	Key string
	Raw []byte
	Err error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("timeline %q record %x: %v", e.Key, e.Raw, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

type invariantViolation struct {
	key string
	ts  int64
	why string
}

func (e *invariantViolation) Error() string {
	return fmt.Sprintf("%v: timeline %q at %d: %s", ErrInvariantViolation, e.key, e.ts, e.why)
}

func (e *invariantViolation) Is(target error) bool { return target == ErrInvariantViolation }

// IsRetryable reports if the failed operation may be repeated by the caller.
// Store outages and transactional conflicts are transient, codec failures and
// invariant violations are permanent.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrConflict)
}

// errorKind is the label of the error in metrics and logs.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrEncoding):
		return "encoding"
	case errors.Is(err, ErrDecoding):
		return "decoding"
	case errors.Is(err, ErrInvariantViolation):
		return "invariant"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrStoreUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}

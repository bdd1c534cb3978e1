// Package kv implements the KV Store Facade (component A): a typed,
// column-family-style key space backed by a single cockroachdb/pebble
// instance, with atomic multi-family batches and four classified error
// kinds.
package kv

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a Store error so callers (the cache layer, the
// pipeline state machine) can decide whether a failure is retryable.
type ErrorKind int

const (
	// KindNotFound means the key is absent. Not an error condition on its
	// own; returned so callers can distinguish "absent" from "empty".
	KindNotFound ErrorKind = iota
	// KindCorruption means pebble detected on-disk corruption. Unrecoverable
	// without a resync.
	KindCorruption
	// KindLockPoisoned means a concurrent writer panicked mid-batch,
	// leaving the store's in-memory guard poisoned.
	KindLockPoisoned
	// KindIo covers any other storage I/O failure (disk full, permission,
	// handle exhaustion).
	KindIo
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindCorruption:
		return "corruption"
	case KindLockPoisoned:
		return "lock_poisoned"
	default:
		return "io"
	}
}

// Error wraps a Store failure with its ErrorKind, so errors.Is/As can
// classify a wrapped error without string matching.
type Error struct {
	Kind ErrorKind
	Op   string
	Key  []byte
	Err  error
}

func (e *Error) Error() string {
	if e.Key != nil {
		return fmt.Sprintf("kv: %s %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("kv: %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrNotFound is the sentinel wrapped by any Error of KindNotFound;
// errors.Is(err, ErrNotFound) is the idiomatic absence check.
var ErrNotFound = errors.New("kv: key not found")

// errLockPoisoned is wrapped by any Error of KindLockPoisoned.
var errLockPoisoned = errors.New("kv: store lock poisoned by a prior failed commit")

func notFound(op string, key []byte) error {
	return &Error{Kind: KindNotFound, Op: op, Key: key, Err: ErrNotFound}
}

func classify(op string, key []byte, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: classifyKind(err), Op: op, Key: key, Err: err}
}

// classifyKind maps a raw pebble/OS error to one of the four Store error
// kinds. Pebble surfaces corruption as a plain *errors.errorString from its
// internal "corrupt" reporting path rather than a typed error we can
// errors.As against, so that check is substring-based; everything else
// that isn't the not-found sentinel is treated as KindIo.
func classifyKind(err error) ErrorKind {
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	if errors.Is(err, errLockPoisoned) {
		return KindLockPoisoned
	}
	if isCorruptionError(err) {
		return KindCorruption
	}
	return KindIo
}

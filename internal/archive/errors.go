package archive

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds returned by Connector methods. Callers use
// errors.Is to classify a failure and decide whether to retry, return a
// 404, or surface a 5xx.
var (
	// ErrNotFound means the attribute (or its configuration) does not
	// exist in the archive.
	ErrNotFound = errors.New("archive: attribute not found")

	// ErrUnprepared means the registry has no usable prepared statement
	// for the data type involved. The registry marks such a type at
	// startup without affecting other types; a request for an attribute of
	// that type fails with this error.
	ErrUnprepared = errors.New("archive: statement not prepared for data type")

	// ErrDriverTransient means the underlying driver call failed in a way
	// that is likely to succeed on retry (timeout, unavailable, overloaded).
	ErrDriverTransient = errors.New("archive: transient driver error")

	// ErrDriverPermanent means the underlying driver call failed in a way
	// retrying will not fix (syntax error, invalid query, auth failure).
	ErrDriverPermanent = errors.New("archive: permanent driver error")

	// ErrCacheTooLarge names the case where a fetched series exceeds the
	// cache's per-entry admission limit. No Connector method returns it:
	// the series is still returned to the caller, it is simply not cached.
	ErrCacheTooLarge = errors.New("archive: series too large to cache")
)

// wrapNotFound and wrapUnprepared attach context to a sentinel while
// preserving errors.Is matchability via %w.
func wrapNotFound(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func wrapUnprepared(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrUnprepared)...)
}

// classifyDriverError maps a raw error from the session/driver layer onto
// ErrDriverTransient or ErrDriverPermanent based on simple heuristics a
// caller can extend; unrecognized errors default to permanent, since
// retrying an error we can't classify risks masking a real bug.
func classifyDriverError(err error) error {
	if err == nil {
		return nil
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %v", ErrDriverTransient, err)
	}
	return fmt.Errorf("%w: %v", ErrDriverPermanent, err)
}

func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

var transientMarkers = []string{
	"timeout",
	"timed out",
	"unavailable",
	"overloaded",
	"no connections",
	"connection refused",
	"context deadline exceeded",
}

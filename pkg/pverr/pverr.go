// Package pverr defines the terminal error taxonomy shared by every pixveil
// pipeline stage. Every error that crosses a package boundary is wrapped into
// one of these kinds so callers can distinguish failure classes with
// errors.Is/errors.As instead of string matching.
package pverr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of terminal pipeline failure.
type Kind int

const (
	// IOError covers filesystem/network failures reading or writing carriers,
	// secrets, or output.
	IOError Kind = iota
	// InsufficientCapacity is returned when the carrier set cannot hold a
	// chunk (or the distribution map) after the placement engine exhausts
	// its candidate probing.
	InsufficientCapacity
	// MapNotFound is returned when decode cannot locate the distribution map
	// prefix in any carrier.
	MapNotFound
	// MapCorrupt is returned when the map's magic, framing, or decoded
	// fields are structurally invalid.
	MapCorrupt
	// DecryptFailed is returned when AES-CBC decryption fails (bad padding,
	// wrong key).
	DecryptFailed
	// ChecksumMismatch is returned when the decoded payload's SHA-256 does
	// not match the checksum carried in the map.
	ChecksumMismatch
	// InvalidConfig is returned when an EncodeConfig/DecodeConfig fails
	// up-front validation.
	InvalidConfig
	// VerifyFailed is returned when the optional post-encode verification
	// pass (re-decode and compare) does not reproduce the original secret.
	VerifyFailed
)

func (k Kind) String() string {
	switch k {
	case IOError:
		return "IO_ERROR"
	case InsufficientCapacity:
		return "INSUFFICIENT_CAPACITY"
	case MapNotFound:
		return "MAP_NOT_FOUND"
	case MapCorrupt:
		return "MAP_CORRUPT"
	case DecryptFailed:
		return "DECRYPT_FAILED"
	case ChecksumMismatch:
		return "CHECKSUM_MISMATCH"
	case InvalidConfig:
		return "INVALID_CONFIG"
	case VerifyFailed:
		return "VERIFY_FAILED"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Error is a terminal pipeline error tagged with a Kind and an optional
// wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind, wrapping cause (which may be nil).
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

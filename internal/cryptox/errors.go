package cryptox

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the crypto layer.
type ErrorKind int

const (
	// KindIO is a read/write failure on the underlying stream.
	KindIO ErrorKind = iota + 1
	// KindAuth is a GCM tag mismatch: wrong key or tampered bytes.
	KindAuth
	// KindMalformed is a chunk that cannot even be split into nonce and ciphertext.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindAuth:
		return "auth"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

var (
	ErrAuthFailed     = errors.New("message authentication failed")
	ErrMalformedChunk = errors.New("malformed chunk")
	ErrSectionTooLong = errors.New("section exceeds maximum size")
)

// Error is returned by every operation of this package that touches a stream.
type Error struct {
	Kind  ErrorKind
	Op    string // "encrypt", "decrypt", "read section", ...
	Chunk int    // 1-based chunk index, 0 when not applicable
	Err   error
}

func (e *Error) Error() string {
	if e.Chunk > 0 {
		return fmt.Sprintf("crypto %s error: %s (chunk %d): %v", e.Kind, e.Op, e.Chunk, e.Err)
	}
	return fmt.Sprintf("crypto %s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op string, chunk int, err error) error {
	return &Error{Kind: kind, Op: op, Chunk: chunk, Err: err}
}

// IsAuthError reports whether err is (or wraps) a tag-mismatch failure.
func IsAuthError(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == KindAuth
}

// IsMalformedError reports whether err is (or wraps) a structurally broken chunk.
func IsMalformedError(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == KindMalformed
}

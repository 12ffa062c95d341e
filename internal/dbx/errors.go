package dbx

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the relational store.
type ErrorKind int

const (
	// KindIO is a filesystem failure on the database file.
	KindIO ErrorKind = iota + 1
	// KindSQL is a failure reported by the database engine.
	KindSQL
	// KindScript is an init script that cannot be decoded.
	KindScript
	// KindState is an operation issued while the store is detached or closed.
	KindState
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindSQL:
		return "sql"
	case KindScript:
		return "script"
	case KindState:
		return "state"
	default:
		return "unknown"
	}
}

var (
	ErrDetached = errors.New("store is detached")
	ErrClosed   = errors.New("store is closed")
)

// StoreError is returned by Store operations.
type StoreError struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("store %s error: %s %s: %v", e.Kind, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("store %s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func newStoreError(kind ErrorKind, op, path string, err error) error {
	return &StoreError{Kind: kind, Op: op, Path: path, Err: err}
}

// IsStoreError reports whether err is a StoreError of the given kind.
func IsStoreError(err error, kind ErrorKind) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == kind
}

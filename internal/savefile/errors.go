package savefile

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ledgerkeeper/internal/cryptox"
	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
)

// ErrorKind classifies failures of the save-file layer.
type ErrorKind int

const (
	// KindCrypto wraps a cryptox.Error (wrong password, corrupted body, stream I/O).
	KindCrypto ErrorKind = iota + 1
	// KindStore wraps a dbx.StoreError.
	KindStore
	// KindIO is a filesystem failure outside the cipher and the store.
	KindIO
	KindAlreadyExists
	KindNotFound
	KindInvalidName
)

func (k ErrorKind) String() string {
	switch k {
	case KindCrypto:
		return "crypto"
	case KindStore:
		return "store"
	case KindIO:
		return "io"
	case KindAlreadyExists:
		return "already exists"
	case KindNotFound:
		return "not found"
	case KindInvalidName:
		return "invalid name"
	default:
		return "unknown"
	}
}

var (
	ErrAlreadyExists = errors.New("save already exists")
	ErrNotFound      = errors.New("save not found")
	ErrInvalidName   = errors.New("invalid save name")
	ErrNoMetadata    = errors.New("save file has no metadata section")
	ErrEmptyBody     = errors.New("save file has no encrypted body")
)

// Error is returned by Manager and Save operations.
type Error struct {
	Kind ErrorKind
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("save %q: %s: %v", e.Name, e.Op, e.Err)
	}
	return fmt.Sprintf("save: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op, name string, err error) error {
	return &Error{Kind: kind, Op: op, Name: name, Err: err}
}

// fromCrypto lifts an error chain containing a *cryptox.Error.
func fromCrypto(op, name string, err error) error {
	return newError(KindCrypto, op, name, err)
}

// fromStore lifts an error chain containing a *dbx.StoreError.
func fromStore(op, name string, err error) error {
	return newError(KindStore, op, name, err)
}

// lift converts an error from a lower layer into an *Error, keeping the
// original reachable through errors.As. Errors that already belong to this
// layer are returned unchanged.
func lift(op, name string, err error) error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return err
	}
	var ce *cryptox.Error
	if errors.As(err, &ce) {
		return fromCrypto(op, name, err)
	}
	var de *dbx.StoreError
	if errors.As(err, &de) {
		return fromStore(op, name, err)
	}
	return newError(KindIO, op, name, err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

// IsInvalidPassword reports whether err comes from a failed tag check, which
// is what a wrong password looks like.
func IsInvalidPassword(err error) bool {
	return cryptox.IsAuthError(err)
}

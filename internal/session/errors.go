package session

import (
	"errors"
	"fmt"
)

// ErrorKind classifies session failures.
type ErrorKind int

const (
	// KindSave wraps a savefile.Error.
	KindSave ErrorKind = iota + 1
	// KindAlreadyOpen is a request that needs no save open, or targets the open one.
	KindAlreadyOpen
	// KindNoSaveOpen is a request that needs an open save.
	KindNoSaveOpen
)

func (k ErrorKind) String() string {
	switch k {
	case KindSave:
		return "save"
	case KindAlreadyOpen:
		return "already open"
	case KindNoSaveOpen:
		return "no save open"
	default:
		return "unknown"
	}
}

var (
	ErrAlreadyOpen = errors.New("a save is already open")
	ErrNoSaveOpen  = errors.New("no save is open")
)

// Error is returned by Session methods.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// fromSave lifts an error returned by the save-file layer.
func fromSave(op string, err error) error {
	if err == nil {
		return nil
	}
	return newError(KindSave, op, err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

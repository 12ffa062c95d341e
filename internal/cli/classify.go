package cli

import (
	"errors"

	"github.com/dmitrijs2005/ledgerkeeper/internal/cryptox"
	"github.com/dmitrijs2005/ledgerkeeper/internal/ledger"
	"github.com/dmitrijs2005/ledgerkeeper/internal/savefile"
	"github.com/dmitrijs2005/ledgerkeeper/internal/session"
)

// Class says how the shell reacts to an error.
type Class int

const (
	// Expected errors are the user's to fix; they are shown and nothing else happens.
	Expected Class = iota + 1
	// Unexpected errors are logged and the open save is force closed.
	Unexpected
)

// inputError marks a malformed command line or argument.
type inputError struct{ err error }

func (e inputError) Error() string { return e.err.Error() }
func (e inputError) Unwrap() error { return e.err }

func badInput(err error) error { return inputError{err: err} }

// classify decides, for any error reaching the shell, whether it is Expected
// and the message to show the user.
func classify(err error) (Class, string) {
	var ie inputError
	switch {
	case errors.As(err, &ie):
		return Expected, ie.Error()

	case errors.Is(err, errPasswordMismatch):
		return Expected, errPasswordMismatch.Error()

	case session.IsKind(err, session.KindAlreadyOpen):
		return Expected, "a save is already open; close it first"
	case session.IsKind(err, session.KindNoSaveOpen):
		return Expected, "no save is open; use 'open' or 'new'"

	case savefile.IsInvalidPassword(err):
		return Expected, "invalid password"
	case savefile.IsKind(err, savefile.KindNotFound):
		return Expected, "save not found"
	case savefile.IsKind(err, savefile.KindAlreadyExists):
		return Expected, "a save with that name already exists"
	case savefile.IsKind(err, savefile.KindInvalidName):
		return Expected, "invalid save name"

	case errors.Is(err, ledger.ErrAccountExists),
		errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrCategoryExists),
		errors.Is(err, ledger.ErrCategoryNotFound),
		errors.Is(err, ledger.ErrEmptyName):
		return Expected, err.Error()

	case cryptox.IsMalformedError(err):
		return Unexpected, "save file is corrupted"
	default:
		return Unexpected, "internal error"
	}
}

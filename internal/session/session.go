// Package session holds the application state around save files: at most one
// save is open at a time, and it is closed before the process exits.
package session

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/filex"
	"github.com/dmitrijs2005/ledgerkeeper/internal/logging"
	"github.com/dmitrijs2005/ledgerkeeper/internal/savefile"
)

// Saves is the save-file manager as seen by the session.
type Saves interface {
	List(ctx context.Context) ([]savefile.Metadata, error)
	Create(ctx context.Context, name, description, password string) (*savefile.Save, error)
	Open(ctx context.Context, name, password string) (*savefile.Save, error)
	SetName(ctx context.Context, name, newName, password string) error
	SetDescription(ctx context.Context, name, description, password string) error
	ChangePassword(ctx context.Context, name, oldPassword, newPassword string) error
	Delete(ctx context.Context, name, password string) error
}

// Session serialises every operation on the open save.
type Session struct {
	mu      sync.Mutex
	saves   Saves
	current *savefile.Save
	log     logging.Logger
}

func New(saves Saves, log logging.Logger) *Session {
	return &Session{saves: saves, log: log}
}

// Current returns the metadata of the open save, if any.
func (s *Session) Current() (savefile.Metadata, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return savefile.Metadata{}, false
	}
	return s.current.Metadata(), true
}

func (s *Session) CreateSave(ctx context.Context, name, description, password string) error {
	const op = "create save"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return newError(KindAlreadyOpen, op, ErrAlreadyOpen)
	}
	sv, err := s.saves.Create(ctx, name, description, password)
	if err != nil {
		return fromSave(op, err)
	}
	s.current = sv
	return nil
}

func (s *Session) OpenSave(ctx context.Context, name, password string) error {
	const op = "open save"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return newError(KindAlreadyOpen, op, ErrAlreadyOpen)
	}
	sv, err := s.saves.Open(ctx, name, password)
	if err != nil {
		return fromSave(op, err)
	}
	s.current = sv
	return nil
}

// CloseSave writes the open save to disk and releases it. If writing fails
// the save stays open.
func (s *Session) CloseSave(ctx context.Context) error {
	const op = "close save"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return newError(KindNoSaveOpen, op, ErrNoSaveOpen)
	}
	if err := s.current.Close(ctx); err != nil {
		return fromSave(op, err)
	}
	s.current = nil
	return nil
}

// SaveCurrent writes the open save to disk and keeps it open.
func (s *Session) SaveCurrent(ctx context.Context) error {
	const op = "save"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return newError(KindNoSaveOpen, op, ErrNoSaveOpen)
	}
	return fromSave(op, s.current.Save(ctx))
}

// Transaction runs fn in one transaction on the open save. fn must not call
// back into the session.
func (s *Session) Transaction(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return newError(KindNoSaveOpen, "transaction", ErrNoSaveOpen)
	}
	err := s.current.Transaction(ctx, fn)
	var se *savefile.Error
	if errors.As(err, &se) {
		return fromSave("transaction", err)
	}
	return err
}

func (s *Session) ListSaves(ctx context.Context) ([]savefile.Metadata, error) {
	list, err := s.saves.List(ctx)
	if err != nil {
		return nil, fromSave("list saves", err)
	}
	return list, nil
}

func (s *Session) RenameSave(ctx context.Context, name, newName, password string) error {
	return s.onClosedSave("rename save", name, func() error {
		return s.saves.SetName(ctx, name, newName, password)
	})
}

func (s *Session) DescribeSave(ctx context.Context, name, description, password string) error {
	return s.onClosedSave("describe save", name, func() error {
		return s.saves.SetDescription(ctx, name, description, password)
	})
}

func (s *Session) ChangePassword(ctx context.Context, name, oldPassword, newPassword string) error {
	return s.onClosedSave("change password", name, func() error {
		return s.saves.ChangePassword(ctx, name, oldPassword, newPassword)
	})
}

func (s *Session) DeleteSave(ctx context.Context, name, password string) error {
	return s.onClosedSave("delete save", name, func() error {
		return s.saves.Delete(ctx, name, password)
	})
}

// Shutdown closes the open save, if any. It is the last call before exit.
func (s *Session) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	name := s.current.Name()
	if err := s.current.Close(ctx); err != nil {
		return fromSave("shutdown", err)
	}
	s.current = nil
	s.log.Info(ctx, "session shut down", "save", name)
	return nil
}

// ForceClose drops the open save without writing it, returning the session to
// its empty state. It is used after an unexpected failure left the save in an
// unknown state.
func (s *Session) ForceClose(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.log.Warn(ctx, "force closing save", "save", s.current.Name())
	s.current.Discard(ctx)
	s.current = nil
}

func (s *Session) onClosedSave(op, name string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && sameFile(s.current, name) {
		return newError(KindAlreadyOpen, op, ErrAlreadyOpen)
	}
	return fromSave(op, fn())
}

func sameFile(sv *savefile.Save, name string) bool {
	stem := strings.TrimSuffix(filepath.Base(sv.Path()), savefile.Ext)
	return stem == filex.SanitizeName(name)
}

package savefile

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/ledgerkeeper/internal/cryptox"
	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/filex"
)

// encryptFile is swapped out in tests to simulate a failing encryption pass.
var encryptFile = cryptox.EncryptFile

// Save is an open save file: its metadata, its key and the working database.
// The key never leaves the handle except as an argument to the cipher.
type Save struct {
	mu     sync.Mutex
	m      *Manager
	path   string
	meta   Metadata
	key    cryptox.Key
	store  *dbx.Store
	closed bool
}

// Metadata returns the metadata as it will be written on the next save.
func (s *Save) Metadata() Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// Name returns the display name of the save.
func (s *Save) Name() string {
	return s.Metadata().Name
}

// Path returns the location of the save file.
func (s *Save) Path() string {
	return s.path
}

// Transaction runs fn in one transaction on the working database. Errors
// returned by fn come back unchanged; store failures are lifted.
func (s *Save) Transaction(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	err := s.store.Transaction(ctx, fn)
	var de *dbx.StoreError
	if errors.As(err, &de) {
		return fromStore("transaction", s.Name(), err)
	}
	return err
}

// Save encrypts the working database into the save file. The previous save
// file is replaced only once the new one is fully written, so a failure here
// leaves it untouched and the working database usable.
func (s *Save) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, "save"); err != nil {
		return err
	}
	s.m.log.Debug(ctx, "save written", "save", s.meta.Name)
	return nil
}

// Close saves and then destroys the working database. If saving fails the
// handle stays open so the caller can retry or Discard.
func (s *Save) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, "close"); err != nil {
		return err
	}

	// The save file is durable at this point; cleanup problems are only logged.
	if err := s.store.DeleteWith(ctx, wipeFile); err != nil {
		s.m.log.Warn(ctx, "failed to remove working database", "save", s.meta.Name, "path", s.store.Path(), "error", err)
	}
	s.finish()

	s.m.log.Info(ctx, "save closed", "save", s.meta.Name)
	return nil
}

// Discard drops the working database without writing anything to the save
// file. It never fails; problems are logged.
func (s *Save) Discard(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.discardLocked(ctx)
	s.m.log.Info(ctx, "save discarded", "save", s.meta.Name)
}

func (s *Save) discard(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardLocked(ctx)
}

func (s *Save) discardLocked(ctx context.Context) {
	path := s.store.Path()
	if err := s.store.DeleteWith(ctx, wipeFile); err != nil {
		// A store that failed to reconnect is already closed; remove its files directly.
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.m.log.Warn(ctx, "failed to remove working database", "save", s.meta.Name, "path", path, "error", rmErr)
		}
		_ = os.Remove(path + "-journal")
	}
	s.finish()
}

func (s *Save) finish() {
	s.key.Wipe()
	s.closed = true
}

func (s *Save) persist(ctx context.Context, op string) error {
	if s.closed {
		return fromStore(op, s.meta.Name, &dbx.StoreError{Kind: dbx.KindState, Op: op, Path: s.path, Err: dbx.ErrClosed})
	}

	err := filex.WriteAtomic(s.path, func(out *os.File) error {
		if err := cryptox.WriteSection(out, encodeMetadata(s.meta)); err != nil {
			return err
		}
		return s.store.PauseWith(ctx, func(db *os.File) error {
			return encryptFile(db, out, s.key)
		})
	})
	return lift(op, s.meta.Name, err)
}

func wipeFile(f *os.File) error {
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err = io.CopyN(f, zeroReader{}, fi.Size())
	return err
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

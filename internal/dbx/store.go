package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/ledgerkeeper/internal/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

type storeState int

const (
	stateConnected storeState = iota
	stateDetached
	stateClosed
)

func (s storeState) err() error {
	switch s {
	case stateDetached:
		return ErrDetached
	case stateClosed:
		return ErrClosed
	default:
		return nil
	}
}

// Store owns one exclusive connection to an SQLite database file.
//
// The store moves between three states: connected, detached and closed.
// While detached the raw file belongs to the callback passed to PauseWith or
// DeleteWith; any Transaction issued meanwhile fails with ErrDetached.
type Store struct {
	mu    sync.Mutex
	path  string
	db    *sql.DB
	state storeState
}

// Create makes a new empty database file at path, opens it exclusively and
// initialises the schema. path must not exist.
func Create(ctx context.Context, path string) (*Store, error) {
	return CreateWith(ctx, path, nil)
}

// CreateWith makes a new file at path, hands it to fn to fill in (fn may be
// nil), then opens it exclusively and brings the schema up to date. On any
// failure the file is removed. Errors returned by fn are passed through as is.
func CreateWith(ctx context.Context, path string, fn func(f *os.File) error) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, newStoreError(KindIO, "create", path, err)
	}

	if fn != nil {
		if err := fn(f); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return nil, err
		}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, newStoreError(KindIO, "create", path, err)
	}

	s, err := Open(ctx, path)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return s, nil
}

// Open opens an existing database file exclusively and applies any schema
// migrations it has not seen yet.
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, newStoreError(KindIO, "open", path, err)
	}

	db, err := connect(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{path: path, db: db, state: stateConnected}, nil
}

// Path returns the location of the working database file.
func (s *Store) Path() string {
	return s.path
}

// Transaction runs fn inside a database transaction, committing if fn returns
// nil and rolling back otherwise. Errors from fn are returned unchanged.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.err(); err != nil {
		return newStoreError(KindState, "transaction", s.path, err)
	}

	return withTx(ctx, s.db, s.path, fn)
}

// PauseWith closes the connection, lets fn read or rewrite the raw database
// file, then opens a fresh exclusive connection to the same path. It waits for
// any running transaction to finish first. If fn fails its error is returned
// and the file may have been partially rewritten.
func (s *Store) PauseWith(ctx context.Context, fn func(f *os.File) error) error {
	if err := s.detach("pause"); err != nil {
		return err
	}

	fnErr := s.withRawFile(fn)

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := connect(ctx, s.path)
	if err != nil {
		s.state = stateClosed
		return errors.Join(fnErr, err)
	}
	s.db = db
	s.state = stateConnected
	return fnErr
}

// DeleteWith closes the connection, lets fn touch the raw file one last time
// (fn may be nil), and removes the file. The store cannot be used afterwards.
func (s *Store) DeleteWith(ctx context.Context, fn func(f *os.File) error) error {
	if err := s.detach("delete"); err != nil {
		return err
	}

	var fnErr error
	if fn != nil {
		fnErr = s.withRawFile(fn)
	}

	s.mu.Lock()
	s.state = stateClosed
	s.mu.Unlock()

	var rmErr error
	if err := os.Remove(s.path); err != nil {
		rmErr = newStoreError(KindIO, "delete", s.path, err)
	}
	_ = os.Remove(s.path + "-journal")

	return errors.Join(fnErr, rmErr)
}

// Delete closes the connection and removes the database file.
func (s *Store) Delete(ctx context.Context) error {
	return s.DeleteWith(ctx, nil)
}

func (s *Store) detach(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.err(); err != nil {
		return newStoreError(KindState, op, s.path, err)
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		s.state = stateClosed
		return newStoreError(KindSQL, op, s.path, err)
	}
	s.state = stateDetached
	return nil
}

func (s *Store) withRawFile(fn func(f *os.File) error) error {
	f, err := os.OpenFile(s.path, os.O_RDWR, 0)
	if err != nil {
		return newStoreError(KindIO, "open raw", s.path, err)
	}

	fnErr := fn(f)
	syncErr := f.Sync()
	closeErr := f.Close()

	if fnErr != nil {
		return fnErr
	}
	if err := errors.Join(syncErr, closeErr); err != nil {
		return newStoreError(KindIO, "close raw", s.path, err)
	}
	return nil
}

// connect opens path with a single pooled connection in exclusive locking mode
// and takes the exclusive file lock straight away, so a second handle on the
// same file fails here instead of at its first query.
func connect(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, newStoreError(KindSQL, "open", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := lockExclusive(ctx, db); err != nil {
		_ = db.Close()
		return nil, newStoreError(KindSQL, "lock", path, err)
	}
	return db, nil
}

// dsn builds a file: URI for path. The path is percent-escaped so '?', '#'
// and '%' in directory names reach SQLite as part of the file name.
func dsn(path string) string {
	u := url.URL{Path: path}
	return "file:" + u.EscapedPath() + "?_pragma=locking_mode(EXCLUSIVE)&_pragma=foreign_keys(1)"
}

func lockExclusive(ctx context.Context, db *sql.DB) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN EXCLUSIVE"); err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return err
	}
	return nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	if err := validateScripts(migrations.FS); err != nil {
		return newStoreError(KindScript, "migrate", "", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return newStoreError(KindScript, "migrate", "", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return newStoreError(KindSQL, "migrate", "", err)
	}
	return nil
}

func validateScripts(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		if !utf8.Valid(data) {
			return fmt.Errorf("%s: invalid UTF-8", name)
		}
		return nil
	})
}

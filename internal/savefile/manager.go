// Package savefile implements password-protected ledger save files.
//
// A save file is a plaintext metadata section followed by the ledger database,
// encrypted chunk by chunk with a key derived from the password. While a save
// is open the database lives decrypted in the temp directory, behind a
// dbx.Store that the Save handle owns.
package savefile

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/ledgerkeeper/internal/cryptox"
	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/filex"
	"github.com/dmitrijs2005/ledgerkeeper/internal/logging"
	"github.com/google/uuid"
)

const (
	// Ext is the file extension of save files.
	Ext = ".ledger"

	SavesDirName = "saves"
	TempDirName  = "temp"

	readBufferSize = 64 << 10
)

// Manager owns the saves and temp directories under one data root.
type Manager struct {
	savesDir string
	tempDir  string
	log      logging.Logger
	now      func() time.Time
}

// NewManager prepares root/saves and root/temp.
func NewManager(root string, log logging.Logger) (*Manager, error) {
	savesDir, err := filex.EnsureSubdDir(root, SavesDirName)
	if err != nil {
		return nil, newError(KindIO, "init", "", err)
	}
	tempDir, err := filex.EnsureSubdDir(root, TempDirName)
	if err != nil {
		return nil, newError(KindIO, "init", "", err)
	}
	return &Manager{
		savesDir: savesDir,
		tempDir:  tempDir,
		log:      log,
		now:      time.Now,
	}, nil
}

// SavesDir returns the directory holding the save files.
func (m *Manager) SavesDir() string { return m.savesDir }

// TempDir returns the directory holding plaintext working databases.
func (m *Manager) TempDir() string { return m.tempDir }

func (m *Manager) path(op, name string) (string, error) {
	stem := filex.SanitizeName(name)
	if stem == "" {
		return "", newError(KindInvalidName, op, name, ErrInvalidName)
	}
	return filepath.Join(m.savesDir, stem+Ext), nil
}

func (m *Manager) newTempPath() string {
	return filepath.Join(m.tempDir, uuid.NewString()+".db")
}

// Exists reports whether a save with this name is on disk.
func (m *Manager) Exists(name string) bool {
	p, err := m.path("exists", name)
	if err != nil {
		return false
	}
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

func (m *Manager) existing(op, name string) (string, error) {
	p, err := m.path(op, name)
	if err != nil {
		return "", err
	}
	if !m.Exists(name) {
		return "", newError(KindNotFound, op, name, ErrNotFound)
	}
	return p, nil
}

// List returns the metadata of every save, sorted by name. Files whose
// metadata cannot be read are skipped with a warning.
func (m *Manager) List(ctx context.Context) ([]Metadata, error) {
	entries, err := os.ReadDir(m.savesDir)
	if err != nil {
		return nil, newError(KindIO, "list", "", err)
	}

	out := make([]Metadata, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || filepath.Ext(e.Name()) != Ext {
			continue
		}
		meta, err := m.readMetadata(filepath.Join(m.savesDir, e.Name()))
		if err != nil {
			m.log.Warn(ctx, "skipping unreadable save file", "file", e.Name(), "error", err)
			continue
		}
		out = append(out, meta)
	}

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Create starts a new empty ledger and writes it to disk straight away.
func (m *Manager) Create(ctx context.Context, name, description, password string) (*Save, error) {
	const op = "create"

	p, err := m.path(op, name)
	if err != nil {
		return nil, err
	}
	if m.Exists(name) {
		return nil, newError(KindAlreadyExists, op, name, ErrAlreadyExists)
	}

	keyCh := cryptox.DeriveKeyAsync(password)

	store, err := dbx.Create(ctx, m.newTempPath())
	if err != nil {
		key := <-keyCh
		key.Wipe()
		return nil, lift(op, name, err)
	}

	now := m.now()
	s := &Save{
		m:     m,
		path:  p,
		key:   <-keyCh,
		store: store,
		meta: Metadata{
			Name:         name,
			Description:  description,
			CreatedAt:    now,
			LastOpenedAt: now,
		},
	}

	if err := s.Save(ctx); err != nil {
		s.discard(ctx)
		return nil, err
	}

	m.log.Info(ctx, "save created", "save", name)
	return s, nil
}

// Open decrypts the named save into a fresh working database and bumps its
// last-opened timestamp. A wrong password leaves nothing behind in the temp
// directory.
func (m *Manager) Open(ctx context.Context, name, password string) (*Save, error) {
	const op = "open"

	p, err := m.existing(op, name)
	if err != nil {
		return nil, err
	}

	keyCh := cryptox.DeriveKeyAsync(password)

	meta, err := m.readMetadata(p)
	key := <-keyCh
	if err != nil {
		key.Wipe()
		return nil, lift(op, name, err)
	}

	store, err := dbx.CreateWith(ctx, m.newTempPath(), func(dbFile *os.File) error {
		return decryptBody(p, dbFile, key)
	})
	if err != nil {
		key.Wipe()
		return nil, lift(op, name, err)
	}

	s := &Save{m: m, path: p, key: key, store: store, meta: meta}

	meta.LastOpenedAt = m.now()
	if err := m.rewrite(p, p, meta); err != nil {
		s.discard(ctx)
		return nil, lift(op, name, err)
	}
	s.meta = meta

	m.log.Info(ctx, "save opened", "save", meta.Name)
	return s, nil
}

// SetName renames a closed save. The encrypted body is copied byte for byte.
func (m *Manager) SetName(ctx context.Context, name, newName, password string) error {
	const op = "set name"

	p, err := m.existing(op, name)
	if err != nil {
		return err
	}
	q, err := m.path(op, newName)
	if err != nil {
		return err
	}
	if q != p && m.Exists(newName) {
		return newError(KindAlreadyExists, op, newName, ErrAlreadyExists)
	}

	meta, err := m.verify(p, password)
	if err != nil {
		return lift(op, name, err)
	}

	meta.Name = newName
	if err := m.rewrite(p, q, meta); err != nil {
		return lift(op, name, err)
	}
	if q != p {
		if err := os.Remove(p); err != nil {
			m.log.Warn(ctx, "failed to remove save under old name", "save", newName, "path", p, "error", err)
		}
	}

	m.log.Info(ctx, "save renamed", "save", newName, "from", name)
	return nil
}

// SetDescription replaces the description of a closed save.
func (m *Manager) SetDescription(ctx context.Context, name, description, password string) error {
	const op = "set description"

	p, err := m.existing(op, name)
	if err != nil {
		return err
	}

	meta, err := m.verify(p, password)
	if err != nil {
		return lift(op, name, err)
	}

	meta.Description = description
	if err := m.rewrite(p, p, meta); err != nil {
		return lift(op, name, err)
	}

	m.log.Info(ctx, "save description updated", "save", name)
	return nil
}

// ChangePassword re-encrypts the whole save under a key derived from
// newPassword.
func (m *Manager) ChangePassword(ctx context.Context, name, oldPassword, newPassword string) error {
	s, err := m.Open(ctx, name, oldPassword)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.key.Wipe()
	s.key = cryptox.DeriveKey(newPassword)
	s.mu.Unlock()

	if err := s.Close(ctx); err != nil {
		s.discard(ctx)
		return err
	}

	m.log.Info(ctx, "save password changed", "save", name)
	return nil
}

// Delete removes a save after checking the password against its body.
func (m *Manager) Delete(ctx context.Context, name, password string) error {
	const op = "delete"

	p, err := m.existing(op, name)
	if err != nil {
		return err
	}
	if _, err := m.verify(p, password); err != nil {
		return lift(op, name, err)
	}
	if err := os.Remove(p); err != nil {
		return newError(KindIO, op, name, err)
	}

	m.log.Info(ctx, "save deleted", "save", name)
	return nil
}

// PurgeTemp removes working databases and half-written save files left over
// by a crash. It must not run while a save is open.
func (m *Manager) PurgeTemp(ctx context.Context) (int, error) {
	var removed int
	var errs []error

	purge := func(dir string, match func(string) bool) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			errs = append(errs, err)
			return
		}
		for _, e := range entries {
			if e.IsDir() || !match(e.Name()) {
				continue
			}
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
				continue
			}
			removed++
		}
	}

	purge(m.tempDir, func(string) bool { return true })
	purge(m.savesDir, func(n string) bool { return strings.HasSuffix(n, Ext+filex.TempSuffix) })

	if removed > 0 {
		m.log.Info(ctx, "purged leftover temp files", "count", removed)
	}
	if err := errors.Join(errs...); err != nil {
		return removed, newError(KindIO, "purge temp", "", err)
	}
	return removed, nil
}

func (m *Manager) readMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()

	return m.readMetadataFrom(f, path)
}

func (m *Manager) readMetadataFrom(r io.Reader, path string) (Metadata, error) {
	data, err := readMetaSection(r)
	if err != nil {
		return Metadata{}, err
	}
	stem := strings.TrimSuffix(filepath.Base(path), Ext)
	return parseMetadata(data, stem, m.now()), nil
}

// verify checks password against every chunk of the body without writing any
// plaintext, and returns the metadata read on the way.
func (m *Manager) verify(path, password string) (Metadata, error) {
	key := cryptox.DeriveKey(password)
	defer key.Wipe()

	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, readBufferSize)
	meta, err := m.readMetadataFrom(br, path)
	if err != nil {
		return Metadata{}, err
	}
	if err := requireBody(br); err != nil {
		return Metadata{}, err
	}
	if err := cryptox.TryDecryptFile(br, key); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

// rewrite atomically writes dst as meta followed by the encrypted body of src.
// src and dst may be the same path.
func (m *Manager) rewrite(src, dst string, meta Metadata) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if _, err := readMetaSection(in); err != nil {
		return err
	}

	return filex.WriteAtomic(dst, func(out *os.File) error {
		bw := bufio.NewWriterSize(out, readBufferSize)
		if err := cryptox.WriteSection(bw, encodeMetadata(meta)); err != nil {
			return err
		}
		if _, err := io.Copy(bw, in); err != nil {
			return err
		}
		return bw.Flush()
	})
}

func decryptBody(path string, dst io.Writer, key cryptox.Key) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, readBufferSize)
	if _, err := readMetaSection(br); err != nil {
		return err
	}
	if err := requireBody(br); err != nil {
		return err
	}
	return cryptox.DecryptFile(br, dst, key)
}

// readMetaSection reads the leading metadata section. A file cut off inside
// the section is malformed, the same as a truncated chunk.
func readMetaSection(r io.Reader) ([]byte, error) {
	data, err := cryptox.ReadSection(r)
	switch {
	case errors.Is(err, io.EOF):
		return nil, ErrNoMetadata
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, &cryptox.Error{Kind: cryptox.KindMalformed, Op: "read metadata", Err: err}
	case err != nil:
		return nil, err
	}
	return data, nil
}

// requireBody fails when nothing follows the metadata section. A working
// database is never empty, so a save without chunks has been cut short, and
// decrypting zero chunks would accept any key.
func requireBody(br *bufio.Reader) error {
	if _, err := br.Peek(1); errors.Is(err, io.EOF) {
		return &cryptox.Error{Kind: cryptox.KindMalformed, Op: "decrypt", Err: ErrEmptyBody}
	}
	return nil
}

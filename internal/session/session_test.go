package session

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/logging"
	"github.com/dmitrijs2005/ledgerkeeper/internal/savefile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

func newTestSession(t *testing.T) *Session {
	t.Helper()
	m, err := savefile.NewManager(t.TempDir(), nopLogger{})
	require.NoError(t, err)
	return New(m, nopLogger{})
}

func insertAccount(ctx context.Context, s *Session, name string) error {
	return s.Transaction(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (id, name, currency, created_at) VALUES (?, ?, 'USD', 0)`, name, name)
		return err
	})
}

func countAccounts(t *testing.T, s *Session) int {
	t.Helper()
	var n int
	require.NoError(t, s.Transaction(context.Background(), func(ctx context.Context, tx dbx.DBTX) error {
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n)
	}))
	return n
}

func TestSession_RequiresOpenSave(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	_, ok := s.Current()
	assert.False(t, ok)

	assert.True(t, IsKind(s.CloseSave(ctx), KindNoSaveOpen))
	assert.True(t, IsKind(s.SaveCurrent(ctx), KindNoSaveOpen))
	assert.True(t, IsKind(insertAccount(ctx, s, "cash"), KindNoSaveOpen))
	assert.NoError(t, s.Shutdown(ctx))
}

func TestSession_OneSaveAtATime(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.CreateSave(ctx, "A", "", "pw"))
	meta, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "A", meta.Name)

	assert.True(t, IsKind(s.CreateSave(ctx, "B", "", "pw"), KindAlreadyOpen))
	assert.True(t, IsKind(s.OpenSave(ctx, "A", "pw"), KindAlreadyOpen))

	require.NoError(t, s.CloseSave(ctx))
	_, ok = s.Current()
	assert.False(t, ok)
}

func TestSession_OpenSaveTargetsAreProtected(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.CreateSave(ctx, "A", "", "pw"))
	require.NoError(t, s.CloseSave(ctx))
	require.NoError(t, s.CreateSave(ctx, "B", "", "pw"))

	assert.True(t, IsKind(s.RenameSave(ctx, "B", "C", "pw"), KindAlreadyOpen))
	assert.True(t, IsKind(s.DescribeSave(ctx, "B", "x", "pw"), KindAlreadyOpen))
	assert.True(t, IsKind(s.ChangePassword(ctx, "B", "pw", "new"), KindAlreadyOpen))
	assert.True(t, IsKind(s.DeleteSave(ctx, "B", "pw"), KindAlreadyOpen))

	// other saves can still be managed while one is open
	require.NoError(t, s.DescribeSave(ctx, "A", "described", "pw"))
	list, err := s.ListSaves(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "described", list[0].Description)

	require.NoError(t, s.Shutdown(ctx))
}

func TestSession_SaveErrorsAreLifted(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.CreateSave(ctx, "A", "", "pw"))
	require.NoError(t, s.CloseSave(ctx))

	err := s.OpenSave(ctx, "A", "wrong")
	assert.True(t, IsKind(err, KindSave))
	assert.True(t, savefile.IsInvalidPassword(err))

	err = s.OpenSave(ctx, "missing", "pw")
	assert.True(t, IsKind(err, KindSave))
	assert.True(t, savefile.IsKind(err, savefile.KindNotFound))

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSession_ShutdownPersists(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.CreateSave(ctx, "A", "", "pw"))
	require.NoError(t, insertAccount(ctx, s, "cash"))
	require.NoError(t, s.Shutdown(ctx))

	require.NoError(t, s.OpenSave(ctx, "A", "pw"))
	assert.Equal(t, 1, countAccounts(t, s))
	require.NoError(t, s.CloseSave(ctx))
}

func TestSession_ForceCloseDiscards(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.CreateSave(ctx, "A", "", "pw"))
	require.NoError(t, insertAccount(ctx, s, "cash"))
	s.ForceClose(ctx)

	_, ok := s.Current()
	assert.False(t, ok)
	s.ForceClose(ctx)

	require.NoError(t, s.OpenSave(ctx, "A", "pw"))
	assert.Zero(t, countAccounts(t, s))
	require.NoError(t, s.CloseSave(ctx))
}

func TestSession_SaveCurrentKeepsOpen(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.CreateSave(ctx, "A", "", "pw"))
	require.NoError(t, insertAccount(ctx, s, "cash"))
	require.NoError(t, s.SaveCurrent(ctx))
	require.NoError(t, insertAccount(ctx, s, "bank"))
	assert.Equal(t, 2, countAccounts(t, s))
	s.ForceClose(ctx)

	require.NoError(t, s.OpenSave(ctx, "A", "pw"))
	assert.Equal(t, 1, countAccounts(t, s))
	require.NoError(t, s.CloseSave(ctx))
}

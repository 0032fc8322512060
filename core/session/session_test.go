package session

import (
	"context"
	"testing"

	"hardware-manager/core/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	store, err := NewGormStore(db)
	require.NoError(t, err)
	return store
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestGormStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(ctx, &Record{Username: "alice", Token: "t1"}))
	require.NoError(t, store.Save(ctx, &Record{Username: "alice", Token: "t2"}))

	rec, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultSlot, rec.Slot)
	assert.Equal(t, "t2", rec.Token)
	assert.False(t, rec.UpdatedAt.IsZero())

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestGormStore_LoadError(t *testing.T) {
	db, mock := setupMockDB(t)
	store := &GormStore{db: db, slot: DefaultSlot}

	mock.ExpectQuery(".*").WillReturnError(assert.AnError)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestSession_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	sess := New(store, zap.NewNop())
	require.NoError(t, sess.Restore(ctx))
	assert.False(t, sess.Authenticated())

	assert.ErrorIs(t, sess.Begin(ctx, "alice", ""), ErrMissingCredentials)
	require.NoError(t, sess.Begin(ctx, "alice", "tok"))
	assert.Equal(t, "alice", sess.Username())
	assert.Equal(t, "tok", sess.Token())

	// A new process restores the stored token.
	restored := New(store, nil)
	require.NoError(t, restored.Restore(ctx))
	assert.Equal(t, "alice", restored.Username())
	assert.True(t, restored.Authenticated())

	calls := 0
	restored.OnLogout(func() { calls++ })
	require.NoError(t, restored.Logout(ctx))

	assert.Equal(t, 1, calls)
	assert.False(t, restored.Authenticated())
	assert.Equal(t, "", restored.Username())
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSession_RestoreError(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(".*").WillReturnError(assert.AnError)

	sess := New(&GormStore{db: db, slot: DefaultSlot}, zap.NewNop())
	assert.Error(t, sess.Restore(context.Background()))
	assert.False(t, sess.Authenticated())
}

func TestSession_LogoutRunsHooksOnStoreError(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(".*").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	sess := New(&GormStore{db: db, slot: DefaultSlot}, zap.NewNop())
	sess.token = "tok"
	sess.username = "alice"

	reset := false
	sess.OnLogout(func() { reset = true })

	err := sess.Logout(context.Background())
	assert.Error(t, err)
	assert.True(t, reset)
	assert.False(t, sess.Authenticated())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	rec := &Record{Username: "bob", Token: "t"}
	require.NoError(t, store.Save(ctx, rec))
	rec.Token = "mutated"

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t", got.Token)
	assert.Equal(t, DefaultSlot, got.Slot)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

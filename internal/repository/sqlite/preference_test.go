package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/creamcroissant/xpref/internal/migrations"
	"github.com/creamcroissant/xpref/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xpref.db")
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(db, migrations.DialectSQLite))
	return db
}

func TestPreferenceRepo_FindMissing(t *testing.T) {
	store := NewStore(openTestDB(t))

	_, err := store.Preferences().FindByUserID(context.Background(), "u-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPreferenceRepo_UpsertCreatesThenReplaces(t *testing.T) {
	ctx := context.Background()
	clock := time.Unix(1_700_000_000, 0)
	repo := &preferenceRepo{db: openTestDB(t), now: func() time.Time { return clock }}

	require.NoError(t, repo.Upsert(ctx, &repository.UserPreference{UserID: "u-1", Payload: `{"locale":"fr"}`}))

	got, err := repo.FindByUserID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, `{"locale":"fr"}`, got.Payload)
	assert.Equal(t, clock.Unix(), got.CreatedAt)
	assert.Equal(t, clock.Unix(), got.UpdatedAt)

	clock = clock.Add(time.Hour)
	require.NoError(t, repo.Upsert(ctx, &repository.UserPreference{UserID: "u-1", Payload: `{"locale":"en"}`}))

	got, err = repo.FindByUserID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, `{"locale":"en"}`, got.Payload, "payload is replaced wholesale")
	assert.Equal(t, clock.Add(-time.Hour).Unix(), got.CreatedAt, "created_at survives the upsert")
	assert.Equal(t, clock.Unix(), got.UpdatedAt)
}

func TestPreferenceRepo_UsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := NewStore(openTestDB(t)).Preferences()

	require.NoError(t, repo.Upsert(ctx, &repository.UserPreference{UserID: "a", Payload: `{"locale":"fr"}`}))
	require.NoError(t, repo.Upsert(ctx, &repository.UserPreference{UserID: "b", Payload: `{"locale":"es"}`}))

	a, err := repo.FindByUserID(ctx, "a")
	require.NoError(t, err)
	b, err := repo.FindByUserID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, `{"locale":"fr"}`, a.Payload)
	assert.Equal(t, `{"locale":"es"}`, b.Payload)
}

func TestPreferenceRepo_UpsertRequiresUserID(t *testing.T) {
	repo := NewStore(openTestDB(t)).Preferences()

	assert.Error(t, repo.Upsert(context.Background(), &repository.UserPreference{Payload: `{}`}))
	assert.Error(t, repo.Upsert(context.Background(), nil))
}

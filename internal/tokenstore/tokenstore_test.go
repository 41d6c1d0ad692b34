package tokenstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "k", "v1"))
	require.NoError(t, m.Set(ctx, "k", "v2"))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	assert.False(t, IsAuthenticated(ctx, m))

	sess := Session{AccessToken: "a", RefreshToken: "r", User: CurrentUser{UserID: "u1", Email: "a@b.co"}}
	require.NoError(t, Save(ctx, m, sess))
	assert.True(t, IsAuthenticated(ctx, m))

	raw, err := m.Get(ctx, KeyCurrentUser)
	require.NoError(t, err)
	assert.JSONEq(t, `{"userId":"u1","email":"a@b.co"}`, raw)

	got, err := Load(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	require.NoError(t, Clear(ctx, m))
	assert.False(t, IsAuthenticated(ctx, m))
	_, err = Load(ctx, m)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, Save(ctx, s, Session{AccessToken: "a1", RefreshToken: "r1", User: CurrentUser{UserID: "u1", Email: "a@b.co"}}))
	require.NoError(t, s.Set(ctx, KeyAccessToken, "a2"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := Load(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "a2", got.AccessToken)
	assert.Equal(t, "r1", got.RefreshToken)
	assert.Equal(t, CurrentUser{UserID: "u1", Email: "a@b.co"}, got.User)

	require.NoError(t, Clear(ctx, s))
	assert.False(t, IsAuthenticated(ctx, s))
}

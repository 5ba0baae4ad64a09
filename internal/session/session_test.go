package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s, err := NewStore(path)
	require.NoError(t, err)

	_, err = s.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.Save(Session{Token: "abc", UserEmail: "rider@example.com"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Token)
	assert.Equal(t, "rider@example.com", got.UserEmail)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	_, err = s.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := NewStore(path)
	require.NoError(t, err)
	_, err = s.Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return tok
}

func TestParseClaims(t *testing.T) {
	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tok := signed(t, jwt.RegisteredClaims{Subject: "42", ExpiresAt: jwt.NewNumericDate(exp)})

	c, err := ParseClaims(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", c.Subject)
	assert.True(t, c.ExpiresAt.Equal(exp))
	assert.False(t, c.Expired(exp.Add(-time.Minute)))
	assert.True(t, c.Expired(exp))
}

func TestParseClaims_NoExpiry(t *testing.T) {
	c, err := ParseClaims(signed(t, jwt.RegisteredClaims{Subject: "7"}))
	require.NoError(t, err)
	assert.False(t, c.Expired(time.Now()))
}

func TestParseClaims_Garbage(t *testing.T) {
	_, err := ParseClaims("test-token")
	assert.Error(t, err)
}

package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/complaint-console/internal/models"
)

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewStore(path)

	saved := &Session{
		Token:     "jwt-here",
		Role:      models.RoleStudent,
		Name:      "Priya",
		StudentID: "stu-1",
	}
	require.NoError(t, store.Save(saved))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestStore_LoadMissingFileIsNotAnError(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.json"))
	sess, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestStore_LoadEmptyTokenMeansLoggedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"token": "", "role": "admin"}`), 0o600))

	sess, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestStore_ClearRemovesSessionAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(path)
	require.NoError(t, store.Save(&Session{Token: "x", Role: models.RoleAdmin}))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	sess, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestPeekClaims_ReadsRoleAndExpiryWithoutSecret(t *testing.T) {
	exp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	token := signedToken(t, jwt.MapClaims{
		"role": "admin",
		"exp":  exp.Unix(),
	})

	info, ok := PeekClaims(token)
	require.True(t, ok)
	assert.Equal(t, "admin", info.Role)
	assert.True(t, info.ExpiresAt.Equal(exp))
}

func TestPeekClaims_OpaqueTokenIsNotAnError(t *testing.T) {
	_, ok := PeekClaims("not-a-jwt")
	assert.False(t, ok)
}

func TestTokenInfo_Expired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, TokenInfo{ExpiresAt: now.Add(-time.Minute)}.Expired(now))
	assert.False(t, TokenInfo{ExpiresAt: now.Add(time.Minute)}.Expired(now))
	// No expiry claim means no local expiry judgement.
	assert.False(t, TokenInfo{}.Expired(now))
}

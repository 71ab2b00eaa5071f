package auth

import (
	"testing"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager() *TokenManager {
	return NewTokenManager(config.AuthConfig{
		Secret:     "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
}

func TestIssueAndParse(t *testing.T) {
	m := newManager()

	pair, err := m.Issue("64b7f0c2e1a2b3c4d5e6f708", true)
	require.NoError(t, err)

	claims, err := m.Parse(pair.AccessToken, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2e1a2b3c4d5e6f708", claims.UserID)
	assert.True(t, claims.IsAdmin)

	claims, err = m.Parse(pair.RefreshToken, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, RefreshToken, claims.Type)
}

func TestParseRejectsWrongType(t *testing.T) {
	m := newManager()
	pair, err := m.Issue("u1", false)
	require.NoError(t, err)

	_, err = m.Parse(pair.RefreshToken, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	m := newManager()
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }
	access, err := m.IssueAccess("u1", false)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(access, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	other := NewTokenManager(config.AuthConfig{Secret: "other", AccessTTL: time.Minute, RefreshTTL: time.Minute})
	access, err := other.IssueAccess("u1", false)
	require.NoError(t, err)

	_, err = newManager().Parse(access, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = newManager().Parse("not-a-jwt", AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, IsHashed(hash))
	assert.False(t, IsHashed("hunter22"))

	ok, err := CheckPassword(hash, "hunter22")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPassword("plaintext", "plaintext")
	assert.Error(t, err)
}

package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, accessDur time.Duration) *Manager {
	t.Helper()
	m, err := NewManager("test-secret", accessDur, time.Hour, "riverchat-test")
	require.NoError(t, err)
	return m
}

func TestGenerateAndValidate(t *testing.T) {
	m := newTestManager(t, time.Minute)

	access, refresh, exp, err := m.GenerateTokenPair("u1", "alice@example.com", "alice", "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.Greater(t, exp, time.Now().Unix())

	claims, err := m.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "Alice", claims.DisplayName)
	assert.Equal(t, "access", claims.Type)
}

func TestEmptySecretRejected(t *testing.T) {
	_, err := NewManager("", time.Minute, time.Hour, "riverchat-test")
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	m := newTestManager(t, -time.Minute)

	access, _, _, err := m.GenerateTokenPair("u1", "alice@example.com", "alice", "")
	require.NoError(t, err)

	_, err = m.ValidateToken(access)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestGarbageToken(t *testing.T) {
	m := newTestManager(t, time.Minute)

	_, err := m.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevocation(t *testing.T) {
	m := newTestManager(t, time.Minute)

	access, _, _, err := m.GenerateTokenPair("u1", "alice@example.com", "alice", "")
	require.NoError(t, err)

	m.RevokeUserTokens("u1")

	_, err = m.ValidateToken(access)
	assert.ErrorIs(t, err, ErrRevokedToken)
}

func TestLoginAfterRevocationIssuesValidTokens(t *testing.T) {
	m := newTestManager(t, time.Minute)

	oldAccess, _, _, err := m.GenerateTokenPair("u1", "alice@example.com", "alice", "")
	require.NoError(t, err)

	m.RevokeUserTokens("u1")

	_, err = m.ValidateToken(oldAccess)
	require.ErrorIs(t, err, ErrRevokedToken)

	// A fresh login ends the revocation window.
	newAccess, newRefresh, _, err := m.GenerateTokenPair("u1", "alice@example.com", "alice", "")
	require.NoError(t, err)

	claims, err := m.ValidateToken(newAccess)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	_, err = m.ValidateToken(newRefresh)
	assert.NoError(t, err)
}

func TestRefreshRequiresRefreshToken(t *testing.T) {
	m := newTestManager(t, time.Minute)

	access, refresh, _, err := m.GenerateTokenPair("u1", "alice@example.com", "alice", "")
	require.NoError(t, err)

	_, _, _, err = m.RefreshTokens(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	newAccess, _, _, err := m.RefreshTokens(refresh)
	require.NoError(t, err)

	claims, err := m.ValidateToken(newAccess)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

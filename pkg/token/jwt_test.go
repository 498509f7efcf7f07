package token

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	m := NewJWTManager("test-secret", 2, 7)
	userID := uuid.New()

	tokenString, err := m.GenerateToken(userID, "alice", "sess-1")
	require.NoError(t, err)

	claims, err := m.VerifyToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestVerifyTokenRejectsWrongKey(t *testing.T) {
	m := NewJWTManager("test-secret", 2, 7)
	other := NewJWTManager("other-secret", 2, 7)

	tokenString, err := m.GenerateToken(uuid.New(), "alice", "sess-1")
	require.NoError(t, err)

	_, err = other.VerifyToken(tokenString)
	assert.Error(t, err)

	_, err = m.VerifyToken("not-a-token")
	assert.Error(t, err)
}

func TestRefreshTokenSharesSession(t *testing.T) {
	m := NewJWTManager("test-secret", 2, 7)
	userID := uuid.New()

	refresh, err := m.GenerateRefreshToken(userID, "alice", "sess-1")
	require.NoError(t, err)
	claims, err := m.VerifyToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestGenerateRandomString(t *testing.T) {
	a := GenerateRandomString(8)
	b := GenerateRandomString(8)

	assert.Len(t, a, 16, "十六进制编码长度是字节数的两倍")
	assert.Len(t, GenerateRandomString(16), 32)
	assert.NotEqual(t, a, b)
}

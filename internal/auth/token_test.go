package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestGenerateAndParseToken(t *testing.T) {
	manager := auth.NewTokenManager("test-secret", 30)
	account := &domain.Account{ID: "acc-1", Username: "dana"}

	token, expiresAt, err := manager.GenerateToken(account)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, time.Minute)

	claims, err := manager.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "acc-1", claims.AccountID)
	require.Equal(t, "dana", claims.Username)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	manager := auth.NewTokenManager("test-secret", 30)
	other := auth.NewTokenManager("other-secret", 30)
	account := &domain.Account{ID: "acc-1", Username: "dana"}

	token, _, err := manager.GenerateToken(account)
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	require.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	manager := auth.NewTokenManager("test-secret", 30)
	_, err := manager.ParseToken("not-a-token")
	require.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("hunter2", 4)
	require.NoError(t, err)
	require.NoError(t, auth.ComparePassword(hash, "hunter2"))
	require.Error(t, auth.ComparePassword(hash, "hunter3"))
}

package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmko-sec/secdash/internal/audit"
	"github.com/dmko-sec/secdash/internal/domain"
	"github.com/dmko-sec/secdash/internal/infra/auth"
)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	return f.users[username], nil
}

type memRecorder struct {
	events []audit.Event
}

func (m *memRecorder) Record(e audit.Event) { m.events = append(m.events, e) }

func newAuthFixture(t *testing.T) (*AuthService, *auth.BaseValidator, *memRecorder) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse battery"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &fakeUserRepo{users: map[string]*domain.User{
		"alice": {
			ID:           "u-1",
			Username:     "alice",
			PasswordHash: string(hash),
			Scopes:       map[string]bool{domain.ScopeView: true},
		},
	}}

	rec := &memRecorder{}
	return NewAuthService(repo, key, time.Hour, rec), auth.NewBaseValidator(&key.PublicKey), rec
}

func TestGenerateTokenRoundTrip(t *testing.T) {
	svc, validator, rec := newAuthFixture(t)

	resp, err := svc.GenerateToken(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Positive(t, resp.ExpiresIn)

	claims, err := validator.VerifyToken("Bearer " + resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.True(t, claims.Scopes[domain.ScopeView])

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionLogin, rec.events[0].Action)
	assert.Equal(t, "success", rec.events[0].Status)
}

func TestGenerateTokenWrongPassword(t *testing.T) {
	svc, _, rec := newAuthFixture(t)

	_, err := svc.GenerateToken(context.Background(), "alice", "wrong")
	assert.Error(t, err)

	require.Len(t, rec.events, 1)
	assert.Equal(t, "denied", rec.events[0].Status)
}

func TestGenerateTokenUnknownUser(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.GenerateToken(context.Background(), "mallory", "whatever")
	assert.Error(t, err)
}

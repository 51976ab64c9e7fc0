package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmko-sec/secdash/internal/audit"
	"github.com/dmko-sec/secdash/internal/domain"
)

type memUserStore struct {
	users map[string]*domain.User // keyed by username
}

func (m *memUserStore) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	return m.users[username], nil
}

func (m *memUserStore) ListUsers(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memUserStore) CreateUser(_ context.Context, u *domain.User) error {
	if m.users == nil {
		m.users = make(map[string]*domain.User)
	}
	m.users[u.Username] = u
	return nil
}

func (m *memUserStore) UpdateUserScopes(_ context.Context, id, role string, scopes map[string]bool) error {
	for _, u := range m.users {
		if u.ID == id {
			u.Role = role
			u.Scopes = scopes
		}
	}
	return nil
}

func (m *memUserStore) DeleteUser(_ context.Context, id string) error {
	for name, u := range m.users {
		if u.ID == id {
			delete(m.users, name)
		}
	}
	return nil
}

func TestCreateUserHashesPassword(t *testing.T) {
	store := &memUserStore{}
	rec := &memRecorder{}
	svc := NewUserService(store, rec, bcrypt.MinCost, zap.NewNop())

	u, err := svc.Create(context.Background(), domain.CreateUserRequest{
		Username: "carol",
		Password: "a long enough password",
		Role:     "analyst",
	}, "admin-1")
	require.NoError(t, err)

	assert.NotEqual(t, "a long enough password", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("a long enough password")))

	// No scopes requested: read-only by default.
	assert.True(t, u.Scopes[domain.ScopeView])
	assert.False(t, u.Scopes[domain.ScopeAdmin])

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionCreateUser, rec.events[0].Action)
	assert.Equal(t, "admin-1", rec.events[0].UserID)
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewUserService(&memUserStore{}, &memRecorder{}, bcrypt.MinCost, zap.NewNop())

	_, err := svc.Create(context.Background(), domain.CreateUserRequest{Username: "x"}, "admin-1")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Create(context.Background(), domain.CreateUserRequest{
		Username: "x", Password: "short",
	}, "admin-1")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestCreateUserDuplicate(t *testing.T) {
	svc := NewUserService(&memUserStore{users: map[string]*domain.User{
		"carol": {ID: "u-1", Username: "carol"},
	}}, &memRecorder{}, bcrypt.MinCost, zap.NewNop())

	_, err := svc.Create(context.Background(), domain.CreateUserRequest{
		Username: "carol",
		Password: "a long enough password",
	}, "admin-1")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestUpdateAndDeleteAreAudited(t *testing.T) {
	store := &memUserStore{users: map[string]*domain.User{
		"carol": {ID: "u-1", Username: "carol"},
	}}
	rec := &memRecorder{}
	svc := NewUserService(store, rec, bcrypt.MinCost, zap.NewNop())

	require.NoError(t, svc.UpdateScopes(context.Background(), "u-1", "admin",
		map[string]bool{domain.ScopeAdmin: true}, "admin-1"))
	assert.Equal(t, "admin", store.users["carol"].Role)

	require.NoError(t, svc.Delete(context.Background(), "u-1", "admin-1"))
	assert.Empty(t, store.users)

	require.Len(t, rec.events, 2)
	assert.Equal(t, audit.ActionUpdateUser, rec.events[0].Action)
	assert.Equal(t, audit.ActionDeleteUser, rec.events[1].Action)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmko-sec/secdash/internal/audit"
	"github.com/dmko-sec/secdash/internal/domain"
)

var (
	ErrUserExists    = errors.New("username already taken")
	ErrWeakPassword  = errors.New("password too short")
	ErrMissingFields = errors.New("username and password are required")
)

const minPasswordLen = 12

// UserStore is the persistence surface for console accounts.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUserScopes(ctx context.Context, id string, role string, scopes map[string]bool) error
	DeleteUser(ctx context.Context, id string) error
}

// UserService manages console accounts. Every mutation lands in the
// audit trail under the acting admin's ID.
type UserService struct {
	store      UserStore
	trail      audit.Recorder
	bcryptCost int
	logger     *zap.Logger
}

func NewUserService(store UserStore, trail audit.Recorder, bcryptCost int, logger *zap.Logger) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		store:      store,
		trail:      trail,
		bcryptCost: bcryptCost,
		logger:     logger.Named("users"),
	}
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *UserService) Create(ctx context.Context, req domain.CreateUserRequest, actorID string) (*domain.User, error) {
	if req.Username == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	if len(req.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: minimum %d characters", ErrWeakPassword, minPasswordLen)
	}

	existing, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("users: check username: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}

	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = map[string]bool{domain.ScopeView: true}
	}

	now := time.Now()
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         req.Role,
		Scopes:       scopes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("users: create: %w", err)
	}

	s.trail.Record(audit.Event{
		UserID: actorID,
		Action: audit.ActionCreateUser,
		Target: u.ID,
		Detail: fmt.Sprintf("username=%s role=%s", u.Username, u.Role),
		Status: "success",
	})
	s.logger.Info("user created",
		zap.String("user_id", u.ID),
		zap.String("username", u.Username))

	return u, nil
}

func (s *UserService) UpdateScopes(ctx context.Context, id, role string, scopes map[string]bool, actorID string) error {
	if err := s.store.UpdateUserScopes(ctx, id, role, scopes); err != nil {
		return fmt.Errorf("users: update scopes: %w", err)
	}
	s.trail.Record(audit.Event{
		UserID: actorID,
		Action: audit.ActionUpdateUser,
		Target: id,
		Detail: fmt.Sprintf("role=%s", role),
		Status: "success",
	})
	return nil
}

func (s *UserService) Delete(ctx context.Context, id, actorID string) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	s.trail.Record(audit.Event{
		UserID: actorID,
		Action: audit.ActionDeleteUser,
		Target: id,
		Status: "success",
	})
	return nil
}

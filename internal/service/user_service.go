package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
)

// ErrInvalidCredentials is returned by Authenticate for any bad login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserService manages accounts and password hashes.
type UserService struct {
	store *repository.Store
}

func NewUserService(store *repository.Store) *UserService {
	return &UserService{store: store}
}

// EnsureUser returns the named user, creating it when missing. An empty
// password only looks the user up.
func (s *UserService) EnsureUser(ctx context.Context, username, password, role string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &ValidationError{Fields: []FieldError{{Field: "username", Reason: "is required"}}}
	}

	user, err := s.store.Users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("find user: %w", err)
	case password == "":
		return nil, fmt.Errorf("user %q does not exist and no password was given to create it", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if role == "" {
		role = model.RoleGuest
	}
	user = &model.User{Username: username, PasswordHash: string(hash), Role: role}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("[info] user created id=%d username=%s role=%s", user.ID, user.Username, user.Role)
	return user, nil
}

// Authenticate checks a username/password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.store.Users.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) SetPassword(ctx context.Context, userID uint, password string) error {
	if len(password) < 4 {
		return &ValidationError{Fields: []FieldError{{Field: "password", Reason: "must be at least 4 characters"}}}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.Users.UpdatePassword(ctx, userID, string(hash))
}

func (s *UserService) SetRole(ctx context.Context, userID uint, role string) error {
	switch role {
	case model.RoleGuest, model.RoleDev, model.RoleAdmin:
	default:
		return &ValidationError{Fields: []FieldError{{Field: "role", Reason: fmt.Sprintf("unknown role %q", role)}}}
	}
	return s.store.Users.UpdateRole(ctx, userID, role)
}

func (s *UserService) Get(ctx context.Context, userID uint) (*model.User, error) {
	return s.store.Users.FindByID(ctx, userID)
}

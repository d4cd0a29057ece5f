package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/domain"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/store"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/cryptox"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/idx"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/slogx"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// UserService handles registration and credential checks against the store.
type UserService struct {
	Store store.Store
}

// RegisterInput is the raw registration payload before validation.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register validates the input, hashes the password, and persists the user
// with the default customer role. Role escalation never happens through this
// path.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	if err := validateRegisterInput(in); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	slogx.FromContext(ctx).Info("user registered", slog.String("user_id", u.ID))
	return u, nil
}

// Authenticate checks an email/password pair. A missing user and a wrong
// password return the same error so the response leaks nothing about which
// accounts exist.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// SeedDemoUsers inserts the two demo accounts when the store is empty. Meant
// for development and demos only; the app skips it in production.
func (s *UserService) SeedDemoUsers(ctx context.Context) error {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("check users: %w", err)
	}
	if !empty {
		return nil
	}

	seeds := []struct {
		email     string
		firstName string
		lastName  string
		role      domain.Role
	}{
		{"user@example.com", "太郎", "田中", domain.RoleUser},
		{"admin@example.com", "花子", "佐藤", domain.RoleAdmin},
	}

	now := time.Now().UTC()
	for _, seed := range seeds {
		hash, err := cryptox.HashPassword("password")
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		u := domain.User{
			ID:           idx.New().String(),
			Email:        seed.email,
			FirstName:    seed.firstName,
			LastName:     seed.lastName,
			PasswordHash: hash,
			Role:         seed.role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.Store.Users().CreateUser(ctx, u); err != nil {
			return fmt.Errorf("seed %s: %w", seed.email, err)
		}
		slogx.FromContext(ctx).Info("seeded demo user",
			slog.String("email", seed.email),
			slog.String("role", string(seed.role)),
		)
	}
	return nil
}

func validateRegisterInput(in RegisterInput) error {
	fields := map[string]string{}

	email := strings.TrimSpace(in.Email)
	switch {
	case email == "":
		fields["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		fields["email"] = "Invalid email format"
	}

	switch {
	case in.Password == "":
		fields["password"] = "Password is required"
	case len(in.Password) < minPasswordLength:
		fields["password"] = fmt.Sprintf("Password must be at least %d characters long", minPasswordLength)
	}

	if strings.TrimSpace(in.FirstName) == "" {
		fields["firstName"] = "First name is required"
	}
	if strings.TrimSpace(in.LastName) == "" {
		fields["lastName"] = "Last name is required"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

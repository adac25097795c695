package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service manages user lifecycle and credential checks.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a user with a hashed password and the default role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !strings.Contains(email, "@") {
		return User{}, errors.New("valid email is required")
	}
	if len(in.Password) < 8 {
		return User{}, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         RoleUser,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Authenticate verifies credentials. The login field accepts an email or a
// phone number.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	login := strings.TrimSpace(creds.Login)
	var (
		user User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.repo.FindByEmail(ctx, strings.ToLower(login))
	} else {
		user, err = s.repo.FindByPhone(ctx, login)
	}
	if err != nil {
		return User{}, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, errors.New("invalid credentials")
	}
	return user, nil
}

// Resolve finds a user by exact phone or email match, for transfer
// recipient lookup. Exactly one of phone/email should be set.
func (s *Service) Resolve(ctx context.Context, phone, email string) (User, error) {
	if phone != "" {
		return s.repo.FindByPhone(ctx, strings.TrimSpace(phone))
	}
	if email != "" {
		return s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	}
	return User{}, ErrUserNotFound
}

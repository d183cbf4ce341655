package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service manages customer lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput captures data required to create a customer.
type RegisterInput struct {
	Username string
	Phone    string
	PIN      string
}

// Register creates a customer and stores a hashed PIN.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	if input.Username == "" {
		return User{}, errors.New("username is required")
	}
	if len(input.PIN) < 4 {
		return User{}, errors.New("PIN must be at least 4 digits")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.PIN), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	u := User{
		ID:        uuid.New().String(),
		Username:  input.Username,
		Phone:     input.Phone,
		PINHash:   hash,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}

	return u, nil
}

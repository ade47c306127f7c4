package services

import (
	"errors"
	"fmt"
	"sync"

	"blogapi/internal/models"
	"blogapi/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// UserService handles business logic related to users.
type UserService struct {
	repo      repositories.UserRepository
	publisher EventPublisher

	// emailMu serializes the email uniqueness check with the write that follows it.
	emailMu sync.Mutex
}

// NewUserService creates a new UserService. publisher may be nil.
func NewUserService(repo repositories.UserRepository, publisher EventPublisher) *UserService {
	return &UserService{
		repo:      repo,
		publisher: publisher,
	}
}

// ListUsers retrieves a page of users matching filter.
func (s *UserService) ListUsers(opts models.ListOptions, filter models.UserFilter) ([]models.User, error) {
	return s.repo.List(opts, filter)
}

// GetUserByID retrieves a single user by its ID.
func (s *UserService) GetUserByID(id int) (models.User, error) {
	return s.repo.GetByID(id)
}

// CreateUser hashes the password and stores a new user. The email must not be
// used by another user.
func (s *UserService) CreateUser(input models.UserCreate) (models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	s.emailMu.Lock()
	defer s.emailMu.Unlock()
	if err := s.ensureEmailFree(input.Email, 0); err != nil {
		return models.User{}, err
	}

	user, err := s.repo.Create(models.User{
		Name:         input.Name,
		Email:        input.Email,
		Age:          input.Age,
		Role:         input.Role,
		PasswordHash: string(hashedPassword),
	})
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	publish(s.publisher, EventUserCreated, user.ID, user)
	return user, nil
}

// UpdateUser applies a partial update. A new email must not be used by another user.
func (s *UserService) UpdateUser(id int, patch models.UserUpdate) (models.User, error) {
	s.emailMu.Lock()
	defer s.emailMu.Unlock()
	if email, ok := patch.Email.Get(); ok {
		if err := s.ensureEmailFree(email, id); err != nil {
			return models.User{}, err
		}
	}

	user, err := s.repo.Update(id, patch)
	if err != nil {
		return models.User{}, err
	}

	publish(s.publisher, EventUserUpdated, user.ID, user)
	return user, nil
}

// DeleteUser deletes a user and reports whether it existed.
func (s *UserService) DeleteUser(id int) (bool, error) {
	removed, err := s.repo.Delete(id)
	if err != nil {
		return false, err
	}
	if removed {
		publish(s.publisher, EventUserDeleted, id, nil)
	}
	return removed, nil
}

func (s *UserService) ensureEmailFree(email string, ownerID int) error {
	existing, err := s.repo.GetByEmail(email)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check email: %w", err)
	case existing.ID != ownerID:
		return fmt.Errorf("email '%s': %w", email, ErrEmailTaken)
	}
	return nil
}

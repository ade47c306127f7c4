package repositories

import (
	"fmt"
	"strings"

	"blogapi/internal/models"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	store *MemoryStore[models.User]
	opts  options
}

// NewMemoryUserRepository creates an empty MemoryUserRepository.
func NewMemoryUserRepository(opts ...Option) *MemoryUserRepository {
	return &MemoryUserRepository{
		store: NewMemoryStore[models.User](),
		opts:  newOptions(opts),
	}
}

// List returns a page of the users matching filter.
func (r *MemoryUserRepository) List(opts models.ListOptions, filter models.UserFilter) ([]models.User, error) {
	return r.store.List(opts, filter.Match), nil
}

// GetByID returns a user by its ID.
func (r *MemoryUserRepository) GetByID(id int) (models.User, error) {
	user, ok := r.store.Get(id)
	if !ok {
		return models.User{}, fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
	}
	return user, nil
}

// GetByEmail returns the first user with the given email, compared case-insensitively.
func (r *MemoryUserRepository) GetByEmail(email string) (models.User, error) {
	user, ok := r.store.Find(func(u models.User) bool {
		return strings.EqualFold(u.Email, email)
	})
	if !ok {
		return models.User{}, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
	}
	return user, nil
}

// Create stores a new user. The ID, created_at and updated_at fields of the
// argument are ignored; role defaults to "user".
func (r *MemoryUserRepository) Create(user models.User) (models.User, error) {
	return r.store.Insert(func(id int) models.User {
		user.ID = id
		if user.Role == "" {
			user.Role = models.RoleUser
		}
		user.CreatedAt = r.opts.now()
		user.UpdatedAt = nil
		return user
	}), nil
}

// Update merges the set fields of patch into the user and stamps updated_at.
func (r *MemoryUserRepository) Update(id int, patch models.UserUpdate) (models.User, error) {
	user, ok := r.store.Modify(id, func(u *models.User) {
		patch.Apply(u)
		now := r.opts.now()
		u.UpdatedAt = &now
	})
	if !ok {
		return models.User{}, fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
	}
	return user, nil
}

// Delete removes a user by its ID and reports whether it existed.
func (r *MemoryUserRepository) Delete(id int) (bool, error) {
	return r.store.Remove(id), nil
}

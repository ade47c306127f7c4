package repositories

import (
	"errors"
	"fmt"

	"blogapi/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db   *gorm.DB
	opts options
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB, opts ...Option) *GORMUserRepository {
	return &GORMUserRepository{
		db:   db,
		opts: newOptions(opts),
	}
}

// List retrieves a page of users in id order, filtered before pagination.
func (r *GORMUserRepository) List(opts models.ListOptions, filter models.UserFilter) ([]models.User, error) {
	users := make([]models.User, 0)
	if opts.Limit <= 0 {
		return users, nil
	}
	q := r.db.Model(&models.User{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if err := q.Order("id").Offset(opts.Skip).Limit(opts.Limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetByID retrieves a single user by its ID from the database.
func (r *GORMUserRepository) GetByID(id int) (models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
		}
		return models.User{}, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves the first user with the given email, compared case-insensitively.
func (r *GORMUserRepository) GetByEmail(email string) (models.User, error) {
	var user models.User
	if err := r.db.Order("id").First(&user, "LOWER(email) = LOWER(?)", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
		}
		return models.User{}, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return user, nil
}

// Create inserts a new user. The database assigns the ID.
func (r *GORMUserRepository) Create(user models.User) (models.User, error) {
	user.ID = 0
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = r.opts.now()
	user.UpdatedAt = nil
	if err := r.db.Create(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Update merges the set fields of patch into the stored user and stamps updated_at.
func (r *GORMUserRepository) Update(id int, patch models.UserUpdate) (models.User, error) {
	var user models.User
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		patch.Apply(&user)
		now := r.opts.now()
		user.UpdatedAt = &now
		return tx.Save(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
		}
		return models.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Delete deletes a user by its ID and reports whether a row was removed.
func (r *GORMUserRepository) Delete(id int) (bool, error) {
	res := r.db.Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete user: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

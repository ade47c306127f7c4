package repositories

import "blogapi/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	List(opts models.ListOptions, filter models.UserFilter) ([]models.User, error)
	GetByID(id int) (models.User, error)
	GetByEmail(email string) (models.User, error)
	Create(user models.User) (models.User, error)
	Update(id int, patch models.UserUpdate) (models.User, error)
	Delete(id int) (bool, error)
}

var (
	_ UserRepository = (*MemoryUserRepository)(nil)
	_ UserRepository = (*GORMUserRepository)(nil)
)

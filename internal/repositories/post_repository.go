package repositories

import "blogapi/internal/models"

// PostRepository defines the interface for post data access.
type PostRepository interface {
	List(opts models.ListOptions, filter models.PostFilter) ([]models.Post, error)
	GetByID(id int) (models.Post, error)
	Create(post models.Post) (models.Post, error)
	Update(id int, patch models.PostUpdate) (models.Post, error)
	Delete(id int) (bool, error)
}

var (
	_ PostRepository = (*MemoryPostRepository)(nil)
	_ PostRepository = (*GORMPostRepository)(nil)
)

package repositories

import (
	"fmt"

	"blogapi/internal/models"
)

// MemoryPostRepository is an in-memory implementation of PostRepository.
type MemoryPostRepository struct {
	store *MemoryStore[models.Post]
	opts  options
}

// NewMemoryPostRepository creates an empty MemoryPostRepository.
func NewMemoryPostRepository(opts ...Option) *MemoryPostRepository {
	return &MemoryPostRepository{
		store: NewMemoryStore[models.Post](),
		opts:  newOptions(opts),
	}
}

// List returns a page of the posts matching filter.
func (r *MemoryPostRepository) List(opts models.ListOptions, filter models.PostFilter) ([]models.Post, error) {
	return r.store.List(opts, filter.Match), nil
}

// GetByID returns a post by its ID.
func (r *MemoryPostRepository) GetByID(id int) (models.Post, error) {
	post, ok := r.store.Get(id)
	if !ok {
		return models.Post{}, fmt.Errorf("post with ID %d: %w", id, ErrNotFound)
	}
	return post, nil
}

// Create stores a new post. Tags default to an empty list and updated_at to nil.
// The author is not checked against the user store.
func (r *MemoryPostRepository) Create(post models.Post) (models.Post, error) {
	return r.store.Insert(func(id int) models.Post {
		post.ID = id
		if post.Tags == nil {
			post.Tags = []string{}
		}
		post.CreatedAt = r.opts.now()
		post.UpdatedAt = nil
		return post
	}), nil
}

// Update merges the set fields of patch into the post and stamps updated_at.
func (r *MemoryPostRepository) Update(id int, patch models.PostUpdate) (models.Post, error) {
	post, ok := r.store.Modify(id, func(p *models.Post) {
		patch.Apply(p)
		now := r.opts.now()
		p.UpdatedAt = &now
	})
	if !ok {
		return models.Post{}, fmt.Errorf("post with ID %d: %w", id, ErrNotFound)
	}
	return post, nil
}

// Delete removes a post by its ID and reports whether it existed.
func (r *MemoryPostRepository) Delete(id int) (bool, error) {
	return r.store.Remove(id), nil
}

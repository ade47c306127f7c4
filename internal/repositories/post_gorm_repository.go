package repositories

import (
	"errors"
	"fmt"

	"blogapi/internal/models"

	"gorm.io/gorm"
)

// GORMPostRepository is a GORM implementation of PostRepository.
type GORMPostRepository struct {
	db   *gorm.DB
	opts options
}

// NewGORMPostRepository creates a new instance of GORMPostRepository.
func NewGORMPostRepository(db *gorm.DB, opts ...Option) *GORMPostRepository {
	return &GORMPostRepository{
		db:   db,
		opts: newOptions(opts),
	}
}

// List retrieves a page of posts in id order, filtered before pagination.
func (r *GORMPostRepository) List(opts models.ListOptions, filter models.PostFilter) ([]models.Post, error) {
	posts := make([]models.Post, 0)
	if opts.Limit <= 0 {
		return posts, nil
	}
	q := r.db.Model(&models.Post{})
	if filter.AuthorID != nil {
		q = q.Where("author_id = ?", *filter.AuthorID)
	}
	if err := q.Order("id").Offset(opts.Skip).Limit(opts.Limit).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	for i := range posts {
		posts[i] = posts[i].Clone()
	}
	return posts, nil
}

// GetByID retrieves a single post by its ID from the database.
func (r *GORMPostRepository) GetByID(id int) (models.Post, error) {
	var post models.Post
	if err := r.db.First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Post{}, fmt.Errorf("post with ID %d: %w", id, ErrNotFound)
		}
		return models.Post{}, fmt.Errorf("failed to get post by ID %d: %w", id, err)
	}
	return post.Clone(), nil
}

// Create inserts a new post. The database assigns the ID.
func (r *GORMPostRepository) Create(post models.Post) (models.Post, error) {
	post = post.Clone()
	post.ID = 0
	post.CreatedAt = r.opts.now()
	post.UpdatedAt = nil
	if err := r.db.Create(&post).Error; err != nil {
		return models.Post{}, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

// Update merges the set fields of patch into the stored post and stamps updated_at.
func (r *GORMPostRepository) Update(id int, patch models.PostUpdate) (models.Post, error) {
	var post models.Post
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", id).Error; err != nil {
			return err
		}
		post = post.Clone()
		patch.Apply(&post)
		now := r.opts.now()
		post.UpdatedAt = &now
		return tx.Save(&post).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Post{}, fmt.Errorf("post with ID %d: %w", id, ErrNotFound)
		}
		return models.Post{}, fmt.Errorf("failed to update post: %w", err)
	}
	return post, nil
}

// Delete deletes a post by its ID and reports whether a row was removed.
func (r *GORMPostRepository) Delete(id int) (bool, error) {
	res := r.db.Delete(&models.Post{}, "id = ?", id)
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete post: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

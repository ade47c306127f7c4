package services

import (
	"errors"
	"fmt"

	"blogapi/internal/models"
	"blogapi/internal/repositories"
)

// PostService handles business logic related to posts.
type PostService struct {
	repo      repositories.PostRepository
	publisher EventPublisher
}

// NewPostService creates a new PostService. publisher may be nil.
func NewPostService(repo repositories.PostRepository, publisher EventPublisher) *PostService {
	return &PostService{
		repo:      repo,
		publisher: publisher,
	}
}

// ListPosts retrieves a page of posts matching filter.
func (s *PostService) ListPosts(opts models.ListOptions, filter models.PostFilter) ([]models.Post, error) {
	return s.repo.List(opts, filter)
}

// GetPostByID retrieves a single post by its ID.
func (s *PostService) GetPostByID(id int) (models.Post, error) {
	return s.repo.GetByID(id)
}

// CreatePost stores a new post. The author is not looked up.
func (s *PostService) CreatePost(input models.PostCreate) (models.Post, error) {
	if input.AuthorID == nil {
		return models.Post{}, errors.New("author_id is required")
	}
	post, err := s.repo.Create(models.Post{
		Title:    input.Title,
		Content:  input.Content,
		AuthorID: *input.AuthorID,
		Tags:     input.Tags,
	})
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to create post: %w", err)
	}

	publish(s.publisher, EventPostCreated, post.ID, post)
	return post, nil
}

// UpdatePost applies a partial update to a post.
func (s *PostService) UpdatePost(id int, patch models.PostUpdate) (models.Post, error) {
	post, err := s.repo.Update(id, patch)
	if err != nil {
		return models.Post{}, err
	}

	publish(s.publisher, EventPostUpdated, post.ID, post)
	return post, nil
}

// DeletePost deletes a post and reports whether it existed.
func (s *PostService) DeletePost(id int) (bool, error) {
	removed, err := s.repo.Delete(id)
	if err != nil {
		return false, err
	}
	if removed {
		publish(s.publisher, EventPostDeleted, id, nil)
	}
	return removed, nil
}

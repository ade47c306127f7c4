package handlers

import (
	"errors"
	"log/slog"

	"blogapi/internal/models"
	"blogapi/internal/repositories"
	"blogapi/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service  *services.PostService
	validate *validator.Validate
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service *services.PostService) *PostHandler {
	return &PostHandler{
		service:  service,
		validate: NewValidator(),
	}
}

// RegisterRoutes registers the post routes with the Fiber app.
func (h *PostHandler) RegisterRoutes(router fiber.Router) {
	postRoutes := router.Group("/posts")
	postRoutes.Get("/", h.HandleListPosts)
	postRoutes.Get("/:id", h.HandleGetPost)
	postRoutes.Post("/", h.HandleCreatePost)
	postRoutes.Put("/:id", h.HandleUpdatePost)
	postRoutes.Delete("/:id", h.HandleDeletePost)
}

// HandleListPosts returns a page of posts, optionally filtered by author.
func (h *PostHandler) HandleListPosts(c *fiber.Ctx) error {
	opts, err := parseListOptions(c, h.validate)
	if err != nil {
		return respondQueryError(c, err)
	}
	var filter models.PostFilter
	if c.Query("author_id") != "" {
		authorID, err := queryInt(c, "author_id", 0)
		if err != nil {
			return badRequest(c, "Invalid query parameters", err)
		}
		filter.AuthorID = &authorID
	}

	posts, err := h.service.ListPosts(opts, filter)
	if err != nil {
		slog.Error("error listing posts", "error", err)
		return internalError(c, "Could not retrieve posts", err)
	}
	return c.JSON(posts)
}

// HandleGetPost returns a single post.
func (h *PostHandler) HandleGetPost(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid post ID", err)
	}
	post, err := h.service.GetPostByID(id)
	if err != nil {
		return h.respondError(c, id, err)
	}
	return c.JSON(post)
}

// HandleCreatePost creates a new post.
func (h *PostHandler) HandleCreatePost(c *fiber.Ctx) error {
	var input models.PostCreate
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validate.Struct(input); err != nil {
		return validationFailed(c, err)
	}

	post, err := h.service.CreatePost(input)
	if err != nil {
		return h.respondError(c, 0, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// HandleUpdatePost applies a partial update to a post.
func (h *PostHandler) HandleUpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid post ID", err)
	}
	var patch models.PostUpdate
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validate.Struct(patch); err != nil {
		return validationFailed(c, err)
	}

	post, err := h.service.UpdatePost(id, patch)
	if err != nil {
		return h.respondError(c, id, err)
	}
	return c.JSON(post)
}

// HandleDeletePost deletes a post.
func (h *PostHandler) HandleDeletePost(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid post ID", err)
	}
	removed, err := h.service.DeletePost(id)
	if err != nil {
		slog.Error("error deleting post", "post_id", id, "error", err)
		return internalError(c, "Could not delete post", err)
	}
	if !removed {
		return notFound(c, "Post", id)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PostHandler) respondError(c *fiber.Ctx, id int, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound(c, "Post", id)
	}
	slog.Error("post request failed", "post_id", id, "error", err)
	return internalError(c, "Could not process post request", err)
}

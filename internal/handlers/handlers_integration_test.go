package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"blogapi/internal/handlers"
	"blogapi/internal/middleware"
	"blogapi/internal/repositories"
	"blogapi/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test_jwt_secret"

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

// setupApp wires handlers, services and the given repositories into a Fiber app.
func setupApp(userRepo repositories.UserRepository, postRepo repositories.PostRepository) *fiber.App {
	authService := services.NewAuthService(userRepo, testJWTSecret, 30*time.Minute)

	userHandler := handlers.NewUserHandler(services.NewUserService(userRepo, nil), services.NewAccessPolicy())
	postHandler := handlers.NewPostHandler(services.NewPostService(postRepo, nil))
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()
	api := app.Group("/api")
	authHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api, middleware.AuthRequired(authService))
	postHandler.RegisterRoutes(api)
	return app
}

func setupMemoryApp() *fiber.App {
	return setupApp(repositories.NewMemoryUserRepository(), repositories.NewMemoryPostRepository())
}

// doRequest sends a JSON request and decodes the response body into a generic value.
func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (int, interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) == 0 {
		return resp.StatusCode, nil
	}
	var decoded interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	return resp.StatusCode, decoded
}

func asMap(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	m, ok := v.(map[string]interface{})
	require.True(t, ok, "expected JSON object, got %T", v)
	return m
}

func asList(t *testing.T, v interface{}) []interface{} {
	t.Helper()
	l, ok := v.([]interface{})
	require.True(t, ok, "expected JSON array, got %T", v)
	return l
}

func createUser(t *testing.T, app *fiber.App, name, email, role string) int {
	t.Helper()
	body := map[string]interface{}{
		"name":     name,
		"email":    email,
		"age":      30,
		"password": "secret123",
	}
	if role != "" {
		body["role"] = role
	}
	status, resp := doRequest(t, app, http.MethodPost, "/api/users/", body, "")
	require.Equal(t, http.StatusCreated, status, "create user: %v", resp)
	return int(asMap(t, resp)["id"].(float64))
}

func login(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	status, resp := doRequest(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, status, "login: %v", resp)
	return asMap(t, resp)["token"].(string)
}

func runUserLifecycle(t *testing.T, app *fiber.App) {
	status, resp := doRequest(t, app, http.MethodPost, "/api/users/", map[string]interface{}{
		"name":     "Alice",
		"email":    "a@x.io",
		"age":      30,
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusCreated, status)
	user := asMap(t, resp)
	assert.Equal(t, float64(1), user["id"])
	assert.Equal(t, "user", user["role"])
	assert.Nil(t, user["updated_at"])
	assert.NotEmpty(t, user["created_at"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "password_hash")

	token := login(t, app, "a@x.io")

	status, resp = doRequest(t, app, http.MethodPut, "/api/users/1", map[string]interface{}{"age": 31}, token)
	require.Equal(t, http.StatusOK, status, "update: %v", resp)
	user = asMap(t, resp)
	assert.Equal(t, float64(31), user["age"])
	assert.Equal(t, "Alice", user["name"])
	assert.NotNil(t, user["updated_at"])

	status, resp = doRequest(t, app, http.MethodGet, "/api/users/1", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(31), asMap(t, resp)["age"])

	createUser(t, app, "Root", "root@x.io", "admin")
	adminToken := login(t, app, "root@x.io")

	status, _ = doRequest(t, app, http.MethodDelete, "/api/users/1", nil, adminToken)
	assert.Equal(t, http.StatusNoContent, status)

	status, resp = doRequest(t, app, http.MethodGet, "/api/users/1", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User 1 not found", asMap(t, resp)["message"])

	status, _ = doRequest(t, app, http.MethodDelete, "/api/users/1", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, status)

	// ids are never reused after a delete
	id := createUser(t, app, "Carol", "carol@x.io", "")
	assert.Equal(t, 3, id)
}

func TestUserLifecycle(t *testing.T) {
	runUserLifecycle(t, setupMemoryApp())
}

func TestUserLifecycleWithSQLite(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := repositories.OpenDatabase("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repositories.CloseDatabase(db) })

	runUserLifecycle(t, setupApp(repositories.NewGORMUserRepository(db), repositories.NewGORMPostRepository(db)))
}

func TestCreateUserValidation(t *testing.T) {
	app := setupMemoryApp()

	status, resp := doRequest(t, app, http.MethodPost, "/api/users/", map[string]interface{}{
		"name":     "A",
		"email":    "not-an-email",
		"age":      17,
		"password": "short",
		"role":     "owner",
	}, "")
	require.Equal(t, http.StatusBadRequest, status)
	body := asMap(t, resp)
	assert.Equal(t, "Validation failed", body["message"])
	errs := asMap(t, body["errors"])
	assert.Equal(t, "Field 'name' failed on the 'min=2' tag", errs["name"])
	assert.Equal(t, "Field 'email' failed on the 'email' tag", errs["email"])
	assert.Equal(t, "Field 'age' failed on the 'gte=18' tag", errs["age"])
	assert.Contains(t, errs, "password")
	assert.Contains(t, errs, "role")

	status, resp = doRequest(t, app, http.MethodGet, "/api/users/", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, asList(t, resp))
}

func TestCreateUserMalformedBody(t *testing.T) {
	app := setupMemoryApp()

	req := httptest.NewRequest(http.MethodPost, "/api/users/", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	app := setupMemoryApp()
	createUser(t, app, "Alice", "a@x.io", "")

	status, resp := doRequest(t, app, http.MethodPost, "/api/users/", map[string]interface{}{
		"name":     "Alias",
		"email":    "A@X.io",
		"age":      40,
		"password": "secret123",
	}, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Email already registered", asMap(t, resp)["message"])
}

func TestListUsersPaginationAndFilter(t *testing.T) {
	app := setupMemoryApp()
	for i := 1; i <= 5; i++ {
		role := "user"
		if i%2 == 0 {
			role = "admin"
		}
		createUser(t, app, fmt.Sprintf("User %d", i), fmt.Sprintf("u%d@x.io", i), role)
	}

	status, resp := doRequest(t, app, http.MethodGet, "/api/users/?skip=1&limit=2", nil, "")
	require.Equal(t, http.StatusOK, status)
	users := asList(t, resp)
	require.Len(t, users, 2)
	assert.Equal(t, float64(2), asMap(t, users[0])["id"])
	assert.Equal(t, float64(3), asMap(t, users[1])["id"])

	status, resp = doRequest(t, app, http.MethodGet, "/api/users/?role=admin&limit=1&skip=1", nil, "")
	require.Equal(t, http.StatusOK, status)
	users = asList(t, resp)
	require.Len(t, users, 1)
	assert.Equal(t, float64(4), asMap(t, users[0])["id"])

	status, resp = doRequest(t, app, http.MethodGet, "/api/users/?skip=10", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, asList(t, resp))
}

func TestListUsersRejectsBadQuery(t *testing.T) {
	app := setupMemoryApp()

	tests := []struct {
		name  string
		query string
	}{
		{"negative skip", "?skip=-1"},
		{"zero limit", "?limit=0"},
		{"limit above maximum", "?limit=101"},
		{"non-numeric limit", "?limit=ten"},
		{"unknown role", "?role=owner"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := doRequest(t, app, http.MethodGet, "/api/users/"+tt.query, nil, "")
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}

func TestGetUserInvalidID(t *testing.T) {
	app := setupMemoryApp()
	status, _ := doRequest(t, app, http.MethodGet, "/api/users/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUpdateUserAuthorization(t *testing.T) {
	app := setupMemoryApp()
	aliceID := createUser(t, app, "Alice", "a@x.io", "")
	bobID := createUser(t, app, "Bob", "b@x.io", "")
	createUser(t, app, "Root", "root@x.io", "admin")
	aliceToken := login(t, app, "a@x.io")
	adminToken := login(t, app, "root@x.io")

	t.Run("missing token", func(t *testing.T) {
		status, resp := doRequest(t, app, http.MethodPut, fmt.Sprintf("/api/users/%d", aliceID), map[string]interface{}{"age": 40}, "")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Authorization header required", asMap(t, resp)["message"])
	})

	t.Run("garbage token", func(t *testing.T) {
		status, _ := doRequest(t, app, http.MethodPut, fmt.Sprintf("/api/users/%d", aliceID), map[string]interface{}{"age": 40}, "garbage")
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("other user", func(t *testing.T) {
		status, resp := doRequest(t, app, http.MethodPut, fmt.Sprintf("/api/users/%d", bobID), map[string]interface{}{"age": 40}, aliceToken)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "You can only update your own profile", asMap(t, resp)["message"])
	})

	t.Run("admin updates anyone", func(t *testing.T) {
		status, resp := doRequest(t, app, http.MethodPut, fmt.Sprintf("/api/users/%d", bobID), map[string]interface{}{"name": "Robert"}, adminToken)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Robert", asMap(t, resp)["name"])
	})

	t.Run("missing user", func(t *testing.T) {
		status, resp := doRequest(t, app, http.MethodPut, "/api/users/999", map[string]interface{}{"age": 40}, adminToken)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "User 999 not found", asMap(t, resp)["message"])
	})

	t.Run("email taken", func(t *testing.T) {
		status, _ := doRequest(t, app, http.MethodPut, fmt.Sprintf("/api/users/%d", aliceID), map[string]interface{}{"email": "b@x.io"}, aliceToken)
		assert.Equal(t, http.StatusConflict, status)
	})
}

func TestUpdateUserValidation(t *testing.T) {
	app := setupMemoryApp()
	id := createUser(t, app, "Alice", "a@x.io", "")
	token := login(t, app, "a@x.io")
	path := fmt.Sprintf("/api/users/%d", id)

	tests := []struct {
		name  string
		patch map[string]interface{}
		field string
	}{
		{"age below minimum", map[string]interface{}{"age": 10}, "age"},
		{"explicit null name", map[string]interface{}{"name": nil}, "name"},
		{"empty email", map[string]interface{}{"email": ""}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := doRequest(t, app, http.MethodPut, path, tt.patch, token)
			require.Equal(t, http.StatusBadRequest, status)
			assert.Contains(t, asMap(t, asMap(t, resp)["errors"]), tt.field)
		})
	}

	status, resp := doRequest(t, app, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, status)
	user := asMap(t, resp)
	assert.Equal(t, "Alice", user["name"])
	assert.Equal(t, float64(30), user["age"])
	assert.Nil(t, user["updated_at"])
}

func TestEmptyUpdateStampsUpdatedAt(t *testing.T) {
	app := setupMemoryApp()
	id := createUser(t, app, "Alice", "a@x.io", "")
	token := login(t, app, "a@x.io")

	status, resp := doRequest(t, app, http.MethodPut, fmt.Sprintf("/api/users/%d", id), map[string]interface{}{}, token)
	require.Equal(t, http.StatusOK, status)
	user := asMap(t, resp)
	assert.Equal(t, "Alice", user["name"])
	assert.NotNil(t, user["updated_at"])
}

func TestDeleteUserRequiresAdmin(t *testing.T) {
	app := setupMemoryApp()
	id := createUser(t, app, "Alice", "a@x.io", "")
	token := login(t, app, "a@x.io")

	status, resp := doRequest(t, app, http.MethodDelete, fmt.Sprintf("/api/users/%d", id), nil, token)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Admin access required", asMap(t, resp)["message"])

	status, _ = doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d", id), nil, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestUserProfile(t *testing.T) {
	app := setupMemoryApp()
	aliceID := createUser(t, app, "Alice", "a@x.io", "")
	bobID := createUser(t, app, "Bob", "b@x.io", "")
	aliceToken := login(t, app, "a@x.io")

	status, resp := doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d/profile", aliceID), nil, aliceToken)
	require.Equal(t, http.StatusOK, status)
	body := asMap(t, resp)
	assert.Equal(t, "Alice", body["viewed_by"])
	assert.Equal(t, "a@x.io", asMap(t, body["user"])["email"])

	status, _ = doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d/profile", bobID), nil, aliceToken)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestLogin(t *testing.T) {
	app := setupMemoryApp()
	createUser(t, app, "Alice", "a@x.io", "")

	status, resp := doRequest(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "a@x.io",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, status)
	body := asMap(t, resp)
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.NotEmpty(t, body["token"])

	status, _ = doRequest(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "a@x.io",
		"password": "wrongpassword",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "nobody@x.io",
		"password": "secret123",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, app, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@x.io"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPostLifecycle(t *testing.T) {
	app := setupMemoryApp()

	status, resp := doRequest(t, app, http.MethodPost, "/api/posts/", map[string]interface{}{
		"title":     "Hello",
		"content":   "First post body",
		"author_id": 1,
	}, "")
	require.Equal(t, http.StatusCreated, status)
	post := asMap(t, resp)
	assert.Equal(t, float64(1), post["id"])
	assert.Equal(t, []interface{}{}, post["tags"])
	assert.Nil(t, post["updated_at"])

	status, resp = doRequest(t, app, http.MethodPut, "/api/posts/1", map[string]interface{}{
		"tags": []string{"go", "fiber"},
	}, "")
	require.Equal(t, http.StatusOK, status)
	post = asMap(t, resp)
	assert.Equal(t, []interface{}{"go", "fiber"}, post["tags"])
	assert.Equal(t, "Hello", post["title"])
	assert.NotNil(t, post["updated_at"])

	status, _ = doRequest(t, app, http.MethodDelete, "/api/posts/1", nil, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, resp = doRequest(t, app, http.MethodGet, "/api/posts/1", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Post 1 not found", asMap(t, resp)["message"])

	status, _ = doRequest(t, app, http.MethodPut, "/api/posts/1", map[string]interface{}{"title": "Again"}, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPostValidation(t *testing.T) {
	app := setupMemoryApp()

	status, resp := doRequest(t, app, http.MethodPost, "/api/posts/", map[string]interface{}{
		"title":   "Hi",
		"content": "short",
	}, "")
	require.Equal(t, http.StatusBadRequest, status)
	errs := asMap(t, asMap(t, resp)["errors"])
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "content")
	assert.Contains(t, errs, "author_id")

	tags := make([]string, 11)
	for i := range tags {
		tags[i] = fmt.Sprintf("t%d", i)
	}
	status, _ = doRequest(t, app, http.MethodPost, "/api/posts/", map[string]interface{}{
		"title":     "Too many tags",
		"content":   "Body that is long enough",
		"author_id": 1,
		"tags":      tags,
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListPostsByAuthor(t *testing.T) {
	app := setupMemoryApp()
	for i := 1; i <= 6; i++ {
		status, _ := doRequest(t, app, http.MethodPost, "/api/posts/", map[string]interface{}{
			"title":     fmt.Sprintf("Post %d", i),
			"content":   "Some content here",
			"author_id": i%2 + 1,
		}, "")
		require.Equal(t, http.StatusCreated, status)
	}

	status, resp := doRequest(t, app, http.MethodGet, "/api/posts/?author_id=1&skip=1&limit=2", nil, "")
	require.Equal(t, http.StatusOK, status)
	posts := asList(t, resp)
	require.Len(t, posts, 2)
	assert.Equal(t, float64(4), asMap(t, posts[0])["id"])
	assert.Equal(t, float64(6), asMap(t, posts[1])["id"])

	status, _ = doRequest(t, app, http.MethodGet, "/api/posts/?author_id=x", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreatePostAcceptsZeroAuthorID(t *testing.T) {
	app := setupMemoryApp()

	status, resp := doRequest(t, app, http.MethodPost, "/api/posts/", map[string]interface{}{
		"title":     "Anonymous",
		"content":   "Written by author zero",
		"author_id": 0,
	}, "")
	require.Equal(t, http.StatusCreated, status, "create post: %v", resp)
	assert.Equal(t, float64(0), asMap(t, resp)["author_id"])

	status, resp = doRequest(t, app, http.MethodPost, "/api/posts/", map[string]interface{}{
		"title":   "No author",
		"content": "The author field is missing",
	}, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Field 'author_id' failed on the 'required' tag", asMap(t, asMap(t, resp)["errors"])["author_id"])
}

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"blogapi/internal/config"
	"blogapi/internal/handlers"
	"blogapi/internal/middleware"
	"blogapi/internal/repositories"
	"blogapi/internal/services"
	"blogapi/pkg/rabbitmq"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "blogapi",
		Short: "REST API for users and posts",
		Long: `Serves CRUD endpoints for users and posts under /api.

Settings come from defaults, an optional ./config.yaml, environment variables
and the flags below, in increasing order of precedence.`,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	cmd.Flags().String("port", "", "listen address, e.g. :8000")
	cmd.Flags().String("storage", "", "storage driver: memory, sqlite or postgres")
	cmd.Flags().String("dsn", "", "database DSN for the sqlite or postgres driver")
	_ = v.BindPFlag("APP_PORT", cmd.Flags().Lookup("port"))
	_ = v.BindPFlag("STORAGE_DRIVER", cmd.Flags().Lookup("storage"))
	_ = v.BindPFlag("DATABASE_DSN", cmd.Flags().Lookup("dsn"))

	return cmd
}

func run(cfg *config.Config) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	// --- Storage ---
	userRepo, postRepo, closeStorage, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer logClose("storage", closeStorage)

	// --- Events ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.EventsExchange,
			Queue:    cfg.EventsQueue,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		defer logClose("RabbitMQ client", mqClient.Close)

		if err := mqClient.ConsumeEvents(rabbitmq.LogDelivery); err != nil {
			slog.Error("failed to start event consumer", "error", err)
		}
		publisher = eventPublisher{client: mqClient}
	} else {
		slog.Info("RABBITMQ_URL not set, event publishing disabled")
	}

	app := NewApp(cfg, userRepo, postRepo, publisher)

	// --- Start HTTP Server ---
	slog.Info("starting server", "addr", cfg.Port, "storage", cfg.StorageDriver)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(cfg.Port)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("error during Fiber shutdown", "error", err)
	}
	slog.Info("server gracefully stopped")
	return nil
}

// NewApp builds the Fiber application with every route and middleware wired to
// the given repositories. publisher may be nil.
func NewApp(cfg *config.Config, userRepo repositories.UserRepository, postRepo repositories.PostRepository, publisher services.EventPublisher) *fiber.App {
	// --- Services ---
	userService := services.NewUserService(userRepo, publisher)
	postService := services.NewPostService(postRepo, publisher)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.AccessTokenTTL)
	policy := services.NewAccessPolicy()

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService, policy)
	postHandler := handlers.NewPostHandler(postService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: errorHandler,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: func() string { return uuid.New().String() },
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORSOrigins, ","),
		AllowCredentials: !slices.Contains(cfg.CORSOrigins, "*"),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Hello from " + cfg.AppName,
			"docs":    "/api",
			"version": cfg.Version,
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": cfg.Version,
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// --- API Routes ---
	api := app.Group("/api")
	authHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api, middleware.AuthRequired(authService))
	postHandler.RegisterRoutes(api)

	return app
}

func openRepositories(cfg *config.Config) (repositories.UserRepository, repositories.PostRepository, func() error, error) {
	if cfg.StorageDriver == "memory" {
		return repositories.NewMemoryUserRepository(), repositories.NewMemoryPostRepository(), func() error { return nil }, nil
	}
	db, err := repositories.OpenDatabase(cfg.StorageDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	closeDB := func() error { return repositories.CloseDatabase(db) }
	return repositories.NewGORMUserRepository(db), repositories.NewGORMPostRepository(db), closeDB, nil
}

// logClose runs closeFn and logs its error.
func logClose(what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		slog.Error("error closing "+what, "error", err)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	if code >= fiber.StatusInternalServerError {
		slog.Error("unhandled error", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{
		"message": err.Error(),
	})
}

// eventPublisher adapts the RabbitMQ client to services.EventPublisher.
type eventPublisher struct {
	client *rabbitmq.Client
}

func (p eventPublisher) PublishEvent(routingKey string, event services.Event) error {
	return p.client.PublishJSON(routingKey, event)
}

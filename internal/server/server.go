package server

import (
	"errors"
	"log/slog"

	"backend-storymap/internal/adventure"
	"backend-storymap/internal/auth"
	"backend-storymap/internal/config"
	"backend-storymap/internal/db"
	"backend-storymap/internal/lock"
	"backend-storymap/internal/media"
	"backend-storymap/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

var _ adventure.Issuer = (*media.Service)(nil)

// bodySlack leaves room for multipart framing around the largest upload.
const bodySlack = 1 << 20

type Server struct {
	App       *fiber.App
	Cfg       config.Config
	DB        db.Querier
	Redis     *redis.Client
	Stream    *stream.Hub
	Lifecycle *adventure.Lifecycle
	Logger    *slog.Logger
}

// NewServer wires every route. A nil redisClient keeps stream fan-out and
// in-flight guards inside this process.
func NewServer(cfg config.Config, q db.Querier, redisClient *redis.Client, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	fcfg := fiber.Config{ErrorHandler: ErrorHandler(log)}
	if cfg.MediaMaxBytes > 0 {
		fcfg.BodyLimit = cfg.MediaMaxBytes + bodySlack
	}
	app := fiber.New(fcfg)
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     q,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient, log),
		Logger: log,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	optionalJWT := auth.OptionalJWT(s.Cfg.JWTSecret)

	mediaSvc := media.NewService(
		media.NewCloudinary(s.Cfg.MediaUploadURL, s.Cfg.MediaUploadPreset),
		media.NewLedger(s.DB),
		s.Cfg.MediaMaxBytes,
		s.Logger,
	)
	s.Lifecycle = adventure.NewLifecycle(
		adventure.NewPostgresStore(s.DB),
		mediaSvc,
		lock.New(s.Redis, s.Cfg.InflightTTL),
		s.Stream,
		s.Logger,
	)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB, s.Stream))
	adventure.RegisterRoutes(s.App.Group("/adventures"), s.Lifecycle, optionalJWT, jwtMiddleware)
	media.RegisterRoutes(s.App.Group("/media"), mediaSvc, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, jwtMiddleware)
}

// Close releases the stream hub's Redis subscription.
func (s *Server) Close() error {
	return s.Stream.Close()
}

// ErrorHandler renders every failure as {"error": message}. Only server
// faults are logged; client errors are expected traffic.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}

package server

import (
	"log"

	"backend-picfeed/internal/auth"
	"backend-picfeed/internal/config"
	"backend-picfeed/internal/db"
	"backend-picfeed/internal/metrics"
	"backend-picfeed/internal/posts"
	"backend-picfeed/internal/shared/apperr"
	"backend-picfeed/internal/stream"
	"backend-picfeed/internal/upload"
	"backend-picfeed/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	// multipart framing on top of the largest accepted file
	bodyOverhead = 1 << 20
	// used when MaxRequestBytes is unset
	defaultRequestBytes = 64 << 20
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      db.Querier
	Redis   *redis.Client
	Stream  *stream.Hub
	Uploads *upload.Store
	Tokens  *auth.TokenService
	Metrics *metrics.Metrics
}

func NewServer(cfg config.Config, pg *pgxpool.Pool, redisClient *redis.Client) *Server {
	var q db.Querier
	if pg != nil {
		q = pg
	}
	return New(cfg, q, redisClient)
}

// New builds the application on any Querier, which lets tests run the full
// route tree against a mock pool.
func New(cfg config.Config, q db.Querier, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.Handler(log.Printf),
		BodyLimit:    requestLimit(cfg),
		UnescapePath: true,
	})

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      q,
		Redis:   redisClient,
		Stream:  stream.NewHub(redisClient),
		Uploads: upload.NewStore(cfg.UploadDir, cfg.MaxUploadBytes),
		Tokens:  auth.NewTokenService(cfg.JWTSecret),
		Metrics: metrics.New(),
	}

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(s.Metrics.Middleware())

	registerRoutes(s)
	return s
}

// requestLimit is the transport cap on request bodies. It stays well above
// the per-file limit so oversize files reach upload validation and get a 400.
func requestLimit(cfg config.Config) int {
	limit := cfg.MaxRequestBytes
	if limit <= 0 {
		limit = defaultRequestBytes
	}
	if floor := cfg.MaxUploadBytes + bodyOverhead; limit < floor {
		limit = floor
	}
	return int(limit)
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get(metrics.Path, s.Metrics.Handler())
	s.App.Static(upload.PublicPath, s.Cfg.UploadDir)

	authMiddleware := auth.Middleware(s.Tokens)

	auth.RegisterRoutes(s.App.Group("/api"), auth.NewService(s.DB, s.Tokens, s.Cfg.TokenTTL), authMiddleware)
	posts.RegisterRoutes(s.App.Group("/api/posts"), posts.NewService(s.DB, s.Stream, s.Cfg.PublicBaseURL), s.Uploads, authMiddleware)
	users.RegisterRoutes(s.App.Group("/api/users"), users.NewService(s.DB, s.Cfg.PublicBaseURL), s.Uploads, authMiddleware)
	stream.RegisterRoutes(s.App.Group("/api/stream"), s.Stream, authMiddleware)
}

package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/barterhub/wallet/internal/config"
	"github.com/barterhub/wallet/internal/ledger"
	"github.com/barterhub/wallet/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app   *fiber.App
	cfg   config.Config
	db    *pgxpool.Pool
	cache *redis.Client
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: errorHandler(logger),
	})

	if err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger}); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, db: db, cache: cache}, nil
}

// errorHandler translates domain errors into stable machine-readable JSON
// responses. Unknown errors become an opaque 500 so infrastructure detail
// never leaks to clients.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if status, ok := domainStatus(err); ok {
			return c.Status(status).JSON(fiber.Map{
				"code":  ledger.Code(err),
				"error": err.Error(),
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}

		logger.Error("unhandled request error",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code":  "INTERNAL",
			"error": "internal server error",
		})
	}
}

func domainStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, ledger.ErrAmountOutOfRange),
		errors.Is(err, ledger.ErrInvalidRecipient),
		errors.Is(err, ledger.ErrInvalidVoucherFormat):
		return fiber.StatusBadRequest, true
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.StatusUnprocessableEntity, true
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrRecipientNotFound),
		errors.Is(err, ledger.ErrVoucherNotFound),
		errors.Is(err, ledger.ErrRequestNotFound):
		return fiber.StatusNotFound, true
	case errors.Is(err, ledger.ErrVoucherUsed),
		errors.Is(err, ledger.ErrAlreadyProcessed):
		return fiber.StatusConflict, true
	case errors.Is(err, ledger.ErrVoucherDisabled),
		errors.Is(err, ledger.ErrVoucherExpired),
		errors.Is(err, ledger.ErrVoucherUnavailable):
		return fiber.StatusGone, true
	}
	return 0, false
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

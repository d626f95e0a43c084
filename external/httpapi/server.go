package httpapi

import (
	"context"
	"errors"
	"log/slog"

	"github.com/foxseedlab/debaide/internal/apperr"
	"github.com/foxseedlab/debaide/internal/storage"
	"github.com/foxseedlab/debaide/pkg/debatedto"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const (
	serviceName    = "debaide API"
	serviceVersion = "1.0.0"
	uploadLimit    = 25 << 20
)

type Server struct {
	app  *fiber.App
	addr string
}

func NewServer(addr string, h *Handler, audio storage.AudioStore) *Server {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		BodyLimit:             uploadLimit,
		// Params, queries and form values outlive the request in the repositories.
		Immutable:             true,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${latency} ${method} ${path}\n",
	}))
	if audio != nil && audio.Root() != "" {
		app.Static(storage.URLPrefix, audio.Root())
	}
	h.Routes(app)
	return &Server{app: app, addr: addr}
}

// App exposes the fiber app for in-process tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks until the server stops.
func (s *Server) Listen() error {
	slog.Info("http server listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler renders every failure as {"detail": "..."}.
func errorHandler(c *fiber.Ctx, err error) error {
	status, detail := apperr.StatusOf(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status, detail = fe.Code, fe.Message
	}
	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
	} else {
		slog.Debug("request rejected", "method", c.Method(), "path", c.Path(), "status", status, "detail", detail)
	}
	return c.Status(status).JSON(debatedto.ErrorResponse{Detail: detail})
}

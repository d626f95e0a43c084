package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/foxseedlab/debaide/internal/apperr"
	"github.com/foxseedlab/debaide/internal/battle"
	"github.com/foxseedlab/debaide/internal/practice"
	"github.com/foxseedlab/debaide/internal/repository"
	"github.com/foxseedlab/debaide/internal/topic"
	"github.com/foxseedlab/debaide/internal/user"
	"github.com/foxseedlab/debaide/pkg/debatedto"
	"github.com/gofiber/fiber/v2"
)

const userLocalKey = "user"

type Handler struct {
	users    *user.Service
	topics   *topic.Service
	practice *practice.Service
	battles  *battle.Service
}

func NewHandler(users *user.Service, topics *topic.Service, practice *practice.Service, battles *battle.Service) *Handler {
	return &Handler{users: users, topics: topics, practice: practice, battles: battles}
}

func (h *Handler) Routes(app *fiber.App) {
	app.Get("/", h.Health)

	app.Post("/auth/register", h.Register)
	app.Post("/auth/login", h.Login)
	app.Get("/auth/me", h.RequireUser, h.Me)
	app.Get("/user/stats", h.RequireUser, h.Stats)

	app.Get("/topics", h.Topics)
	app.Get("/topics/daily", h.DailyTopic)

	app.Post("/session/start", h.StartSession)
	app.Post("/segment/upload", h.UploadSegment)
	app.Post("/segment/text", h.SubmitTextSegment)
	app.Post("/session/score", h.ScoreSession)
	app.Get("/session/:id/history", h.SessionHistory)
	app.Post("/stt/transcribe", h.RequireUser, h.Transcribe)

	b := app.Group("/battle", h.RequireUser)
	b.Get("/available", h.AvailableBattles)
	b.Post("/create", h.CreateBattle)
	b.Post("/:id/join", h.JoinBattle)
	b.Get("/:id/status", h.BattleStatus)
	b.Get("/:id/segments", h.BattleSegments)
	b.Post("/:id/segment", h.SubmitBattleSegment)
	b.Post("/:id/judge", h.JudgeBattle)
}

// param reads a scalar from the query string, then from form values.
func param(c *fiber.Ctx, name string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return c.FormValue(name)
}

func requiredParam(c *fiber.Ctx, name string) (string, error) {
	v := param(c, name)
	if v == "" {
		return "", apperr.New(http.StatusUnprocessableEntity, "Missing parameter: "+name)
	}
	return v, nil
}

func int64Param(c *fiber.Ctx, name string) (int64, error) {
	raw, err := requiredParam(c, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.New(http.StatusUnprocessableEntity, name+" must be an integer")
	}
	return v, nil
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireUser resolves the bearer token and stores the user for later handlers.
func (h *Handler) RequireUser(c *fiber.Ctx) error {
	u, err := h.users.Authenticate(c.UserContext(), bearerToken(c))
	if err != nil {
		return err
	}
	c.Locals(userLocalKey, u)
	return c.Next()
}

func currentUser(c *fiber.Ctx) *repository.User {
	u, _ := c.Locals(userLocalKey).(*repository.User)
	return u
}

func readUpload(c *fiber.Ctx, field string) (string, []byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil, apperr.New(http.StatusUnprocessableEntity, "Missing file upload: "+field)
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, apperr.BadRequest("Could not read uploaded file")
	}
	defer func() {
		_ = f.Close()
	}()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, apperr.BadRequest("Could not read uploaded file")
	}
	return fh.Filename, data, nil
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(debatedto.Health{Status: "healthy", Service: serviceName, Version: serviceVersion})
}

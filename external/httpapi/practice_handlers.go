package httpapi

import (
	"net/http"

	"github.com/foxseedlab/debaide/internal/apperr"
	"github.com/foxseedlab/debaide/pkg/debatedto"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) Topics(c *fiber.Ctx) error {
	topics, err := h.topics.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(topics)
}

func (h *Handler) DailyTopic(c *fiber.Ctx) error {
	t, err := h.topics.Daily(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(t)
}

func (h *Handler) StartSession(c *fiber.Ctx) error {
	var req debatedto.SessionStartRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(http.StatusUnprocessableEntity, "Invalid request body")
	}
	resp, err := h.practice.Start(c.UserContext(), req.UserID, req.TopicID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) UploadSegment(c *fiber.Ctx) error {
	sessionID, err := requiredParam(c, "session_id")
	if err != nil {
		return err
	}
	kind, err := requiredParam(c, "kind")
	if err != nil {
		return err
	}
	filename, data, err := readUpload(c, "file")
	if err != nil {
		return err
	}
	resp, err := h.practice.UploadSegment(c.UserContext(), sessionID, kind, filename, data)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) SubmitTextSegment(c *fiber.Ctx) error {
	sessionID, err := requiredParam(c, "session_id")
	if err != nil {
		return err
	}
	kind, err := requiredParam(c, "kind")
	if err != nil {
		return err
	}
	resp, err := h.practice.SubmitText(c.UserContext(), sessionID, kind, param(c, "text"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) ScoreSession(c *fiber.Ctx) error {
	sessionID, err := requiredParam(c, "session_id")
	if err != nil {
		return err
	}
	resp, err := h.practice.Score(c.UserContext(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) SessionHistory(c *fiber.Ctx) error {
	resp, err := h.practice.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) Transcribe(c *fiber.Ctx) error {
	_, data, err := readUpload(c, "file")
	if err != nil {
		return err
	}
	resp, err := h.practice.Transcribe(c.UserContext(), data, param(c, "language"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

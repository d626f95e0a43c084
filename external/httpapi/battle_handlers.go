package httpapi

import "github.com/gofiber/fiber/v2"

func (h *Handler) AvailableBattles(c *fiber.Ctx) error {
	list, err := h.battles.Available(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *Handler) CreateBattle(c *fiber.Ctx) error {
	topicID, err := int64Param(c, "topic_id")
	if err != nil {
		return err
	}
	stance, err := requiredParam(c, "stance")
	if err != nil {
		return err
	}
	resp, err := h.battles.Create(c.UserContext(), currentUser(c), topicID, stance)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) JoinBattle(c *fiber.Ctx) error {
	resp, err := h.battles.Join(c.UserContext(), currentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) BattleStatus(c *fiber.Ctx) error {
	resp, err := h.battles.Status(c.UserContext(), currentUser(c).ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) BattleSegments(c *fiber.Ctx) error {
	resp, err := h.battles.Segments(c.UserContext(), currentUser(c).ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) SubmitBattleSegment(c *fiber.Ctx) error {
	kind, err := requiredParam(c, "kind")
	if err != nil {
		return err
	}
	text, err := requiredParam(c, "text")
	if err != nil {
		return err
	}
	resp, err := h.battles.SubmitSegment(c.UserContext(), currentUser(c).ID, c.Params("id"), kind, text)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) JudgeBattle(c *fiber.Ctx) error {
	resp, err := h.battles.Judge(c.UserContext(), currentUser(c).ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

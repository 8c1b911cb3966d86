package api

import (
	"time"

	"intellidocs/app/agent"
	"intellidocs/model"
	"intellidocs/obs"
	"intellidocs/store"
	"intellidocs/types"

	"github.com/gofiber/fiber/v2"
)

type QAHandler struct {
	answerer *agent.Answerer
	history  *store.QAHistory
	events   *obs.Recorder
}

func NewQAHandler(vstore store.VectorStorer, history *store.QAHistory, events *obs.Recorder) *QAHandler {
	return &QAHandler{
		answerer: agent.NewAnswerer(vstore),
		history:  history,
		events:   events,
	}
}

func (h *QAHandler) HandleQA(c *fiber.Ctx) error {
	var params types.QARequest
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errs := types.Validate(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}

	result, err := h.answerer.Answer(c.Context(), params.Question, params.TopK)
	if err != nil {
		return err
	}

	val := model.ValidateAnswer(result.Text, result.Contexts)
	h.history.Add(params.Question, result.Text, result.Sources, val)
	h.events.Record("qa", fiber.Map{"question": params.Question, "sources": result.Sources, "score": val.Score})

	return c.JSON(types.QAResponse{
		Answer:     result.Text,
		Sources:    result.Sources,
		Validation: val,
		Timestamp:  time.Now().UTC(),
	})
}

func (h *QAHandler) HandleHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	return c.JSON(fiber.Map{"items": h.history.List(limit)})
}

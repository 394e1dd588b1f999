package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/api/dto"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/autoresponder"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/repository"
	apperrors "github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/pkg/util/errorutil"
)

// TrainingHandler manages the responder's trigger/answer corpus. Every
// mutation reloads the engine so changes take effect without restart.
type TrainingHandler struct {
	training repository.TrainingRepository
	engine   *autoresponder.Engine
	logger   *zap.Logger
}

// NewTrainingHandler constructs handler.
func NewTrainingHandler(training repository.TrainingRepository, engine *autoresponder.Engine, logger *zap.Logger) *TrainingHandler {
	return &TrainingHandler{training: training, engine: engine, logger: logger}
}

// List GET /training.
func (h *TrainingHandler) List(c *fiber.Ctx) error {
	entries, err := h.training.List(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.TrainingEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, trainingResponse(entry))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /training.
func (h *TrainingHandler) Create(c *fiber.Ctx) error {
	var req dto.TrainingEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	trigger := strings.TrimSpace(req.Trigger)
	answer := strings.TrimSpace(req.Answer)
	if trigger == "" || answer == "" {
		return apperrors.NewValidationError("trigger, answer required", nil)
	}

	entry := &domain.TrainingEntry{
		Trigger:  trigger,
		Answer:   answer,
		Category: strings.TrimSpace(req.Category),
	}
	if err := h.training.Create(c.Context(), entry); err != nil {
		return err
	}
	h.reloadCorpus(c)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": trainingResponse(*entry)})
}

// Delete DELETE /training/:id.
func (h *TrainingHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.training.Delete(c.Context(), id); err != nil {
		return apperrors.MapError(err)
	}
	h.reloadCorpus(c)
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

func (h *TrainingHandler) reloadCorpus(c *fiber.Ctx) {
	if err := h.engine.ReloadCorpus(c.Context()); err != nil {
		h.logger.Warn("training corpus reload failed", zap.Error(err))
	}
}

func trainingResponse(entry domain.TrainingEntry) dto.TrainingEntryResponse {
	return dto.TrainingEntryResponse{
		ID:        entry.ID,
		Trigger:   entry.Trigger,
		Answer:    entry.Answer,
		Category:  entry.Category,
		CreatedAt: entry.CreatedAt,
	}
}

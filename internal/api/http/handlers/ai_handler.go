package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/myhostelpal/complaint-service/internal/api/dto"
	"github.com/myhostelpal/complaint-service/internal/service"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

// AIHandler previews the classifier without filing a ticket.
type AIHandler struct {
	analyzer service.Analyzer
}

// NewAIHandler constructs handler.
func NewAIHandler(analyzer service.Analyzer) *AIHandler {
	return &AIHandler{analyzer: analyzer}
}

// Analyze POST /ai/analyze.
func (h *AIHandler) Analyze(c *fiber.Ctx) error {
	if _, err := principal(c); err != nil {
		return err
	}
	var req dto.AnalyzeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" && description == "" {
		return apperrors.NewValidationError("title or description is required", nil)
	}

	analysis := h.analyzer.Analyze(c.UserContext(), title, description, nil)
	keywords := analysis.Category.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	suggestions := analysis.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return c.JSON(dto.AnalyzeResponse{
		Category:           analysis.Category.Category,
		CategoryConfidence: analysis.Category.Confidence,
		Priority:           analysis.Priority.Priority,
		PriorityConfidence: analysis.Priority.Confidence,
		Keywords:           keywords,
		Suggestions:        suggestions,
		Reasoning:          analysis.Priority.Reasoning,
	})
}

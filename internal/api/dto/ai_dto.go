package dto

import "github.com/myhostelpal/complaint-service/internal/domain"

// AnalyzeRequest asks for a classification preview.
type AnalyzeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AnalyzeResponse is the classification preview.
type AnalyzeResponse struct {
	Category           domain.TicketCategory `json:"category"`
	CategoryConfidence float64               `json:"categoryConfidence"`
	Priority           domain.TicketPriority `json:"priority"`
	PriorityConfidence float64               `json:"priorityConfidence"`
	Keywords           []string              `json:"keywords"`
	Suggestions        []string              `json:"suggestions"`
	Reasoning          string                `json:"reasoning,omitempty"`
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/myhostelpal/complaint-service/internal/api/dto"
	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/service"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints shared by students and staff.
type TicketsHandler struct {
	tickets    *service.TicketService
	assignment *service.AssignmentService
	images     *ImageStore
	now        func() time.Time
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, assignment *service.AssignmentService, images *ImageStore) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, assignment: assignment, images: images, now: time.Now}
}

// CreateTicket POST /tickets. Accepts JSON or multipart with image files.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.CreateTicketRequest
	var uploaded []domain.Image
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return apperrors.NewValidationError("invalid multipart payload", nil)
		}
		req.Title = formValue(form.Value, "title")
		req.Description = formValue(form.Value, "description")
		if category := formValue(form.Value, "category"); category != "" {
			cat := domain.TicketCategory(category)
			req.Category = &cat
		}
		if location := formValue(form.Value, "location"); location != "" {
			if err := json.Unmarshal([]byte(location), &req.Location); err != nil {
				return apperrors.NewFieldError("location", "must be a JSON object")
			}
		}
		if h.images == nil && len(form.File["images"]) > 0 {
			return apperrors.NewFieldError("images", "uploads are disabled")
		}
		if h.images != nil {
			if uploaded, err = h.images.Save(c, form.File["images"]); err != nil {
				return err
			}
		}
		req.Images = uploaded
	} else if err := parseBody(c, &req); err != nil {
		return err
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), user, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Images:      req.Images,
	})
	if err != nil {
		if h.images != nil {
			h.images.Remove(uploaded)
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.TicketEnvelope{
		Message: "Ticket created successfully",
		Ticket:  dto.NewTicketResponse(ticket, h.now()),
	})
}

// ListMyTickets GET /tickets/my-tickets.
func (h *TicketsHandler) ListMyTickets(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	page, err := h.tickets.ListMyTickets(c.UserContext(), user, parseTicketFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketList(page.Tickets, page.Total, page.TotalPages, page.CurrentPage, h.now()))
}

// ListTickets GET /tickets (staff).
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	filter := parseTicketFilter(c)
	filter.AssigneeID = queryString(c, "assignedTo")
	page, err := h.tickets.ListTickets(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketList(page.Tickets, page.Total, page.TotalPages, page.CurrentPage, h.now()))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"), user)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket, h.now()))
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	comment, err := h.tickets.AddComment(c.UserContext(), c.Params("id"), user, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Comment added successfully",
		"comment": dto.NewCommentResponse(comment),
	})
}

// UpdateStatus PUT /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.StatusUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), c.Params("id"), user, service.UpdateStatusInput{
		Status:                req.Status,
		AssigneeID:            req.AssignedTo,
		ResolutionDescription: req.ResolutionDescription,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketEnvelope{
		Message: "Ticket updated successfully",
		Ticket:  dto.NewTicketResponse(ticket, h.now()),
	})
}

// Assign PUT /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.assignment.AssignTicket(c.UserContext(), c.Params("id"), user, req.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketEnvelope{
		Message: "Ticket assigned successfully",
		Ticket:  dto.NewTicketResponse(ticket, h.now()),
	})
}

// OverrideClassification PUT /tickets/:id/classification.
func (h *TicketsHandler) OverrideClassification(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ClassificationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.assignment.OverrideClassification(c.UserContext(), c.Params("id"), user, service.ClassificationOverride{
		Category: req.Category,
		Priority: req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketEnvelope{
		Message: "Classification updated successfully",
		Ticket:  dto.NewTicketResponse(ticket, h.now()),
	})
}

func parseTicketFilter(c *fiber.Ctx) service.TicketListFilter {
	return service.TicketListFilter{
		Status:   queryEnum[domain.TicketStatus](c, "status"),
		Category: queryEnum[domain.TicketCategory](c, "category"),
		Priority: queryEnum[domain.TicketPriority](c, "priority"),
		Page:     parseIntQuery(c, "page", 1),
		Limit:    parseIntQuery(c, "limit", 10),
	}
}

func formValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

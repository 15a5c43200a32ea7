package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/events"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

func TestAssignTicket_NotifiesAssigneeAndStudent(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, "Asha Rao", domain.RoleStudent, true)
	admin := f.user(t, "Warden Admin", domain.RoleAdmin, true)
	staff := f.user(t, "Ravi Staff", domain.RoleStaff, true)
	ticket := f.ticket(t, student)
	f.published = nil

	updated, err := f.assignment.AssignTicket(f.ctx, ticket.ID, admin, staff.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, staff.ID, *updated.AssigneeID)
	assert.Equal(t, staff.Name, updated.Assignee.Name)

	assert.Equal(t, 1, countType(f.notificationsFor(t, staff), domain.NotificationTicketAssigned))
	assert.Equal(t, "Ticket Assigned", f.notificationsFor(t, student)[0].Title)
	assert.Equal(t, []events.EventType{events.EventTicketAssigned}, f.eventTypes())

	again, err := f.assignment.AssignTicket(f.ctx, ticket.ID, admin, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Version, again.Version)
	assert.Len(t, f.published, 1)
}

func TestAssignTicket_Rejections(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, "Asha Rao", domain.RoleStudent, true)
	admin := f.user(t, "Warden Admin", domain.RoleAdmin, true)
	staff := f.user(t, "Ravi Staff", domain.RoleStaff, true)
	ticket := f.ticket(t, student)

	_, err := f.assignment.AssignTicket(f.ctx, ticket.ID, student, staff.ID)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = f.assignment.AssignTicket(f.ctx, ticket.ID, admin, student.ID)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = f.tickets.UpdateStatus(f.ctx, ticket.ID, admin, UpdateStatusInput{Status: domain.TicketStatusCancelled})
	require.NoError(t, err)
	_, err = f.assignment.AssignTicket(f.ctx, ticket.ID, admin, staff.ID)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestOverrideClassification_RaisingPriorityEscalates(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, "Asha Rao", domain.RoleStudent, true)
	staff := f.user(t, "Ravi Staff", domain.RoleStaff, true)
	ticket := f.ticket(t, student)
	require.Zero(t, countType(f.notificationsFor(t, staff), domain.NotificationEscalation))

	category := domain.CategoryWater
	priority := domain.TicketPriorityUrgent
	updated, err := f.assignment.OverrideClassification(f.ctx, ticket.ID, staff, ClassificationOverride{
		Category: &category,
		Priority: &priority,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryWater, updated.Category)
	assert.Equal(t, domain.TicketPriorityUrgent, updated.Priority)
	assert.Equal(t, domain.SourceManual, updated.AIAnalysis.CategorySource)
	assert.Equal(t, domain.SourceManual, updated.AIAnalysis.PrioritySource)
	assert.Equal(t, 1.0, updated.AIAnalysis.PriorityConfidence)
	assert.Equal(t, 1, countType(f.notificationsFor(t, staff), domain.NotificationEscalation))

	last := f.published[len(f.published)-1]
	assert.Equal(t, events.EventTicketClassificationChanged, last.Type)
	payload := last.Payload.(events.TicketClassificationChangedPayload)
	assert.Equal(t, domain.TicketPriorityMedium, payload.OldPriority)
}

func TestOverrideClassification_Validation(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, "Asha Rao", domain.RoleStudent, true)
	staff := f.user(t, "Ravi Staff", domain.RoleStaff, true)
	ticket := f.ticket(t, student)

	_, err := f.assignment.OverrideClassification(f.ctx, ticket.ID, staff, ClassificationOverride{})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	bad := domain.TicketPriority("critical")
	_, err = f.assignment.OverrideClassification(f.ctx, ticket.ID, staff, ClassificationOverride{Priority: &bad})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	good := domain.TicketPriorityLow
	_, err = f.assignment.OverrideClassification(f.ctx, ticket.ID, student, ClassificationOverride{Priority: &good})
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

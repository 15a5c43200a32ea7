package worker

import (
	"context"
	"time"

	"github.com/myhostelpal/complaint-service/internal/api/dto"
	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/events"
	"github.com/myhostelpal/complaint-service/internal/realtime"
)

// TicketUpdate is the body of a ticket_update frame.
type TicketUpdate struct {
	Event   events.EventType    `json:"event"`
	Status  domain.TicketStatus `json:"status"`
	Actor   events.Actor        `json:"actor"`
	Payload any                 `json:"payload,omitempty"`
	At      time.Time           `json:"at"`
}

// StartLiveUpdateWorker forwards ticket events to live sessions: new tickets
// to staff and admins, changes to the ticket's student and to staff.
func StartLiveUpdateWorker(dispatcher events.Dispatcher, live realtime.Publisher) {
	if dispatcher == nil || live == nil {
		return
	}

	dispatcher.Subscribe(events.EventTicketCreated, func(_ context.Context, e events.Event) error {
		if e.Ticket == nil {
			return nil
		}
		live.BroadcastToRole(realtime.NewTicketFrame(dto.NewTicketResponse(e.Ticket, e.Timestamp)), domain.RoleStaff, domain.RoleAdmin)
		return nil
	})

	forward := func(_ context.Context, e events.Event) error {
		update := TicketUpdate{Event: e.Type, Actor: e.Actor, Payload: e.Payload, At: e.Timestamp}
		if e.Ticket != nil {
			update.Status = e.Ticket.Status
		}
		frame := realtime.TicketUpdateFrame(e.TicketID, update)
		if e.Ticket != nil {
			live.SendToUser(e.Ticket.StudentID, frame)
		}
		live.BroadcastToRole(frame, domain.RoleStaff, domain.RoleAdmin)
		return nil
	}
	for _, et := range []events.EventType{
		events.EventTicketStatusChanged,
		events.EventTicketAssigned,
		events.EventTicketCommentAdded,
		events.EventTicketClassificationChanged,
		events.EventTicketEscalated,
	} {
		dispatcher.Subscribe(et, forward)
	}
}

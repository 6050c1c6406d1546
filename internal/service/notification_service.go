package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/mail"
	"github.com/spec-kit/helpdesk-service/internal/realtime"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// NotificationService turns domain events into emails and realtime pushes.
// Delivery is best effort: every failure is logged and swallowed, and mail
// I/O runs off the request goroutine so publishers never wait on SMTP.
type NotificationService struct {
	tickets     repository.TicketRepository
	users       repository.UserRepository
	sender      mail.Sender
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

// NotificationDependencies bundles collaborators for the service.
type NotificationDependencies struct {
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	Sender      mail.Sender
	Broadcaster realtime.Broadcaster
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		tickets:     deps.TicketRepo,
		users:       deps.UserRepo,
		sender:      deps.Sender,
		broadcaster: deps.Broadcaster,
		logger:      logger,
	}
}

// RegisterHandlers subscribes to the dispatcher.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketUpdated, n.handleTicketUpdated)
	dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleStatusChanged)
	dispatcher.Subscribe(events.EventTicketAssigned, n.handleAssigned)
	dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
	dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordReset)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket created",
		zap.Int64("ticket_id", event.TicketID), zap.Any("payload", event.Payload))

	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		n.logger.Warn("notification skipped, ticket not found",
			zap.Int64("ticket_id", event.TicketID), zap.Error(err))
		return nil
	}

	// alert every active technician with an email on file
	technicians, err := n.users.ListActive(ctx)
	if err != nil {
		n.logger.Warn("could not list technicians for new-ticket alert", zap.Error(err))
	} else {
		subject := mail.NewTicketSubject(ticket)
		body := mail.NewTicketBody(ticket)
		for _, tech := range technicians {
			if tech.Email == nil {
				continue
			}
			n.sendAsync(*tech.Email, subject, body)
		}
	}

	// confirmation back to the requester
	n.sendAsync(ticket.RequesterEmail, mail.ConfirmationSubject(ticket), mail.ConfirmationBody(ticket))

	n.broadcast(ctx, "ticket_created", ticket)
	return nil
}

func (n *NotificationService) handleTicketUpdated(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket updated",
		zap.Int64("ticket_id", event.TicketID), zap.Any("payload", event.Payload))

	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return nil
	}
	n.broadcast(ctx, "ticket_updated", ticket)
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return nil
	}
	n.sendAsync(ticket.RequesterEmail,
		mail.StatusUpdateSubject(ticket, payload.NewStatus),
		mail.StatusUpdateBody(ticket, payload.OldStatus, payload.NewStatus))
	return nil
}

func (n *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok || payload.AssigneeEmail == "" {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return nil
	}
	n.sendAsync(payload.AssigneeEmail,
		mail.AssignedSubject(ticket),
		mail.AssignedBody(ticket, payload.AssigneeName))
	return nil
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return nil
	}

	// internal notes stay inside the team
	if !payload.IsInternal {
		n.sendAsync(ticket.RequesterEmail,
			mail.CommentSubject(ticket),
			mail.CommentBody(ticket, event.Actor.Name, payload.BodyPreview))
	}
	n.broadcast(ctx, "comment_added", ticket)
	return nil
}

func (n *NotificationService) handlePasswordReset(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		return nil
	}
	n.sendAsync(payload.Email, mail.PasswordResetSubject(), mail.PasswordResetBody(event.Actor.Name, payload.ResetURL))
	return nil
}

func (n *NotificationService) sendAsync(to, subject, body string) {
	if n.sender == nil || !n.sender.Enabled() || to == "" {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				n.logger.Error("mail delivery panicked", zap.Any("panic", r))
			}
		}()
		if err := n.sender.Send(to, subject, body); err != nil {
			n.logger.Warn("mail delivery failed",
				zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		}
	}()
}

func (n *NotificationService) broadcast(ctx context.Context, eventName string, ticket *domain.Ticket) {
	if n.broadcaster == nil {
		return
	}
	if err := n.broadcaster.Broadcast(ctx, realtime.Message{Event: eventName, Data: ticket}); err != nil {
		n.logger.Debug("realtime broadcast failed", zap.String("event", eventName), zap.Error(err))
	}
}

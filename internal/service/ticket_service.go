package service

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

const (
	subjectMaxLen      = 80
	ticketNumberTries  = 3
	trackResultLimit   = 10
	commentPreviewSize = 120
)

// TicketService coordinates the ticket lifecycle: public submission,
// dashboard listing, updates, comments, and tracking.
type TicketService struct {
	db         *sql.DB
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	history    repository.StatusHistoryRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	DB          *sql.DB
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	HistoryRepo repository.StatusHistoryRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		db:         deps.DB,
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		history:    deps.HistoryRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes a public submission payload.
type TicketCreateInput struct {
	RequesterName  string
	RequesterEmail string
	RequesterPhone string
	Department     string
	Category       string
	Priority       domain.TicketPriority
	Subject        string
	Description    string
	Attachment     *string
}

// TicketUpdateInput carries the mutable dashboard fields. Nil fields are
// left untouched; AssignedToSet distinguishes "unassign" from "no change".
type TicketUpdateInput struct {
	Status        *domain.TicketStatus
	Priority      *domain.TicketPriority
	AssignedTo    *int64
	AssignedToSet bool
	Note          *string
}

// TicketListFilter captures dashboard query parameters.
type TicketListFilter struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Category   *string
	AssignedTo *int64
	Search     *string
}

// TicketDetail packages a ticket with its conversation and audit trail.
type TicketDetail struct {
	Ticket   *domain.Ticket
	Comments []domain.Comment
	History  []domain.StatusHistory
}

// TrackedTicket is the public tracking projection: the ticket plus its
// non-internal comments.
type TrackedTicket struct {
	Ticket   domain.Ticket
	Comments []domain.Comment
}

// CreateTicket validates and stores a public submission, then notifies the
// team. No authentication is required to call it.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	input.RequesterName = strings.TrimSpace(input.RequesterName)
	input.RequesterEmail = strings.ToLower(strings.TrimSpace(input.RequesterEmail))
	input.RequesterPhone = strings.TrimSpace(input.RequesterPhone)
	input.Department = strings.TrimSpace(input.Department)
	input.Category = strings.TrimSpace(input.Category)
	input.Description = strings.TrimSpace(input.Description)

	if input.RequesterName == "" || input.RequesterEmail == "" || input.RequesterPhone == "" ||
		input.Department == "" || input.Category == "" || input.Priority == "" ||
		input.Description == "" {
		return nil, util.NewValidationError("name, email, phone, department, category, priority and description are required", nil)
	}
	if !strings.Contains(input.RequesterEmail, "@") {
		return nil, util.NewValidationError("invalid requester email", nil)
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, util.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}

	ticket := &domain.Ticket{
		RequesterName:  input.RequesterName,
		RequesterEmail: input.RequesterEmail,
		RequesterPhone: input.RequesterPhone,
		Department:     input.Department,
		Category:       input.Category,
		Priority:       input.Priority,
		Subject:        deriveSubject(input.Subject, input.Description),
		Description:    input.Description,
		Status:         domain.TicketStatusOpen,
		Attachment:     input.Attachment,
	}

	if err := s.createWithFreshNumber(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{Name: ticket.RequesterName},
		Payload: events.TicketCreatedPayload{
			TicketNumber:   ticket.TicketNumber,
			RequesterName:  ticket.RequesterName,
			RequesterEmail: ticket.RequesterEmail,
			Department:     ticket.Department,
			Category:       ticket.Category,
			Priority:       ticket.Priority,
			Subject:        ticket.Subject,
		},
	})
	return ticket, nil
}

// createWithFreshNumber retries the insert with a new generated number on a
// uniqueness collision.
func (s *TicketService) createWithFreshNumber(ctx context.Context, ticket *domain.Ticket) error {
	var err error
	for attempt := 0; attempt < ticketNumberTries; attempt++ {
		ticket.TicketNumber = generateTicketNumber()
		err = s.tickets.Create(ctx, ticket)
		if err == nil {
			return nil
		}
		if !repository.IsUniqueViolation(err) {
			return err
		}
	}
	return util.NewConflict("could not allocate a unique ticket number", nil)
}

// ListTickets returns dashboard results. ASSISTANT viewers only ever see
// tickets assigned to themselves, whatever filters they send.
func (s *TicketService) ListTickets(ctx context.Context, viewer *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Status:     filter.Status,
		Priority:   filter.Priority,
		Category:   filter.Category,
		AssignedTo: filter.AssignedTo,
		Search:     filter.Search,
	}
	if viewer != nil && !viewer.Role.SeesAllTickets() {
		repoFilter.ScopeAssignee = &viewer.ID
	}
	return s.tickets.List(ctx, repoFilter)
}

// GetTicket loads a ticket with comments and status history, enforcing
// assignee scoping for restricted roles.
func (s *TicketService) GetTicket(ctx context.Context, viewer *domain.User, id int64) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(viewer, ticket); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByTicket(ctx, ticket.ID, true)
	if err != nil {
		return nil, err
	}
	history, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{Ticket: ticket, Comments: comments, History: history}, nil
}

// UpdateTicket applies per-field changes. A status change and its history
// row commit in one transaction; a request that changes nothing is a no-op.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, id int64, input TicketUpdateInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, util.NewUnauthorized("authentication required")
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(actor, ticket); err != nil {
		return nil, err
	}

	if input.Status != nil && !domain.ValidStatus(*input.Status) {
		return nil, util.NewValidationError("invalid status", map[string]any{"status": *input.Status})
	}
	if input.Priority != nil && !domain.ValidPriority(*input.Priority) {
		return nil, util.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
	}
	if input.AssignedToSet && input.AssignedTo != nil {
		if _, err := s.users.GetByID(ctx, *input.AssignedTo); err != nil {
			return nil, util.NewValidationError("assignee does not exist", nil)
		}
	}

	oldStatus := ticket.Status
	var changed []string

	statusChanged := input.Status != nil && *input.Status != ticket.Status
	if statusChanged {
		ticket.Status = *input.Status
		if ticket.Status.Terminal() && ticket.ResolvedAt == nil {
			now := time.Now().UTC()
			ticket.ResolvedAt = &now
		}
		changed = append(changed, "status")
	}
	if input.Priority != nil && *input.Priority != ticket.Priority {
		ticket.Priority = *input.Priority
		changed = append(changed, "priority")
	}
	assigneeChanged := false
	if input.AssignedToSet && !sameAssignee(ticket.AssignedTo, input.AssignedTo) {
		ticket.AssignedTo = input.AssignedTo
		ticket.AssignedName = nil
		assigneeChanged = input.AssignedTo != nil
		changed = append(changed, "assigned_to")
	}

	if len(changed) == 0 {
		return ticket, nil
	}

	if statusChanged {
		if err := s.updateWithHistory(ctx, actor, ticket, oldStatus, input.Note); err != nil {
			return nil, err
		}
	} else if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	// reload to pick up the joined assignee name
	ticket, err = s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Actor:    userActor(actor),
		Payload: events.TicketUpdatedPayload{
			TicketNumber: ticket.TicketNumber,
			Changed:      changed,
		},
	})
	if statusChanged {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Actor:    userActor(actor),
			Payload: events.TicketStatusChangedPayload{
				TicketNumber:   ticket.TicketNumber,
				RequesterEmail: ticket.RequesterEmail,
				OldStatus:      oldStatus,
				NewStatus:      ticket.Status,
				Note:           derefString(input.Note),
			},
		})
	}
	if assigneeChanged {
		if assignee, err := s.users.GetByID(ctx, *ticket.AssignedTo); err == nil {
			s.publish(ctx, events.Event{
				Type:     events.EventTicketAssigned,
				TicketID: ticket.ID,
				Actor:    userActor(actor),
				Payload: events.TicketAssignedPayload{
					TicketNumber:  ticket.TicketNumber,
					AssigneeID:    assignee.ID,
					AssigneeName:  assignee.Name,
					AssigneeEmail: derefString(assignee.Email),
				},
			})
		}
	}
	return ticket, nil
}

// updateWithHistory persists the ticket row and the status audit entry in a
// single transaction so the trail can never drift from the ticket.
func (s *TicketService) updateWithHistory(ctx context.Context, actor *domain.User, ticket *domain.Ticket, oldStatus domain.TicketStatus, note *string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.tickets.WithTx(tx).Update(ctx, ticket); err != nil {
		return err
	}
	entry := &domain.StatusHistory{
		TicketID:  ticket.ID,
		UserID:    &actor.ID,
		OldStatus: oldStatus,
		NewStatus: ticket.Status,
		Note:      note,
	}
	if err := s.history.WithTx(tx).Create(ctx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

// AddComment appends a comment under the actor's name. Internal comments
// stay invisible to public tracking.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID int64, body string, isInternal bool) (*domain.Comment, error) {
	if actor == nil {
		return nil, util.NewUnauthorized("authentication required")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, util.NewValidationError("comment body is required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(actor, ticket); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID:   ticket.ID,
		UserID:     &actor.ID,
		Body:       body,
		IsInternal: isInternal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	name := actor.Name
	comment.UserName = &name

	s.publish(ctx, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		Actor:    userActor(actor),
		Payload: events.CommentAddedPayload{
			TicketNumber:   ticket.TicketNumber,
			RequesterEmail: ticket.RequesterEmail,
			CommentID:      comment.ID,
			IsInternal:     isInternal,
			BodyPreview:    preview(body, commentPreviewSize),
		},
	})
	return comment, nil
}

// DeleteTicket removes a ticket with its comments and history, and cleans
// up the stored attachment through the supplied remover.
func (s *TicketService) DeleteTicket(ctx context.Context, id int64, removeAttachment func(string)) error {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return err
	}
	if ticket.Attachment != nil && removeAttachment != nil {
		removeAttachment(*ticket.Attachment)
	}
	return nil
}

// TrackTickets serves the public status lookup. Results carry only
// non-internal comments and cap at the ten newest matches.
func (s *TicketService) TrackTickets(ctx context.Context, numberFragment, email string) ([]TrackedTicket, error) {
	numberFragment = strings.TrimSpace(numberFragment)
	email = strings.TrimSpace(email)
	if numberFragment == "" && email == "" {
		return nil, util.NewValidationError("a ticket number or email is required", nil)
	}

	tickets, err := s.tickets.Track(ctx, numberFragment, email, trackResultLimit)
	if err != nil {
		return nil, err
	}

	result := make([]TrackedTicket, 0, len(tickets))
	for _, ticket := range tickets {
		comments, err := s.comments.ListByTicket(ctx, ticket.ID, false)
		if err != nil {
			return nil, err
		}
		result = append(result, TrackedTicket{Ticket: ticket, Comments: comments})
	}
	return result, nil
}

func (s *TicketService) checkScope(viewer *domain.User, ticket *domain.Ticket) error {
	if viewer == nil || viewer.Role.SeesAllTickets() {
		return nil
	}
	if ticket.AssignedTo == nil || *ticket.AssignedTo != viewer.ID {
		return util.NewForbidden("you do not have access to this ticket")
	}
	return nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// deriveSubject falls back to the leading slice of the description when the
// requester left the subject blank.
func deriveSubject(subject, description string) string {
	subject = strings.TrimSpace(subject)
	if subject != "" {
		return subject
	}
	runes := []rune(description)
	if len(runes) <= subjectMaxLen {
		return strings.TrimSpace(description)
	}
	return strings.TrimSpace(string(runes[:subjectMaxLen])) + "..."
}

// generateTicketNumber builds a human-quotable identifier from the trailing
// digits of the clock plus a random suffix. Uniqueness is enforced by the
// store, not here.
func generateTicketNumber() string {
	millis := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	return fmt.Sprintf("TI%s%03d", millis, rand.Intn(1000))
}

func sameAssignee(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func userActor(user *domain.User) events.Actor {
	if user == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: &user.ID, Name: user.Name}
}

func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

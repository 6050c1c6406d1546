package service

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// recorder captures published events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) Subscribe(events.EventType, events.EventHandler) {}

func (r *recorder) byType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	store    *persistence.Store
	tickets  *TicketService
	users    repository.UserRepository
	history  repository.StatusHistoryRepository
	comments repository.CommentRepository
	recorder *recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := persistence.NewMemoryStore()
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(store.Close)

	if err := persistence.Migrate(context.Background(), store.DB(), zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	rec := &recorder{}
	db := store.DB()
	userRepo := repository.NewUserRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	historyRepo := repository.NewStatusHistoryRepository(db)

	ticketService := NewTicketService(TicketDependencies{
		DB:          db,
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		HistoryRepo: historyRepo,
		UserRepo:    userRepo,
		Dispatcher:  rec,
	})

	return &testEnv{
		store:    store,
		tickets:  ticketService,
		users:    userRepo,
		history:  historyRepo,
		comments: commentRepo,
		recorder: rec,
	}
}

func (e *testEnv) createUser(t *testing.T, name string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("Secret123", 4)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	email := name + "@helpdesk.test"
	user := &domain.User{
		Name:         name,
		Email:        &email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user %q: %v", name, err)
	}
	return user
}

func (e *testEnv) createTicket(t *testing.T, input TicketCreateInput) *domain.Ticket {
	t.Helper()
	if input.RequesterName == "" {
		input.RequesterName = "Alice Requester"
	}
	if input.RequesterEmail == "" {
		input.RequesterEmail = "alice@example.com"
	}
	if input.RequesterPhone == "" {
		input.RequesterPhone = "555-0100"
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if input.Department == "" {
		input.Department = "Finance"
	}
	if input.Category == "" {
		input.Category = "hardware"
	}
	if input.Description == "" {
		input.Description = "The office printer stopped responding."
	}
	ticket, err := e.tickets.CreateTicket(context.Background(), input)
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

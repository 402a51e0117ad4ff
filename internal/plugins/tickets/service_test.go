package tickets

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jambushrusti/platform/internal/apperror"
)

// mockTicketRepo implements TicketRepository for testing.
type mockTicketRepo struct {
	createFn       func(ctx context.Context, ticket *Ticket) error
	findFn         func(ctx context.Context, id string) (*Ticket, error)
	listFn         func(ctx context.Context, status string, offset, limit int) ([]Ticket, int, error)
	listForUserFn  func(ctx context.Context, userID string) ([]Ticket, error)
	updateStatusFn func(ctx context.Context, id, status string) error
	addMessageFn   func(ctx context.Context, message *Message) error
	listMessagesFn func(ctx context.Context, ticketID string) ([]Message, error)
}

func (m *mockTicketRepo) Create(ctx context.Context, ticket *Ticket) error {
	if m.createFn != nil {
		return m.createFn(ctx, ticket)
	}
	return nil
}

func (m *mockTicketRepo) Find(ctx context.Context, id string) (*Ticket, error) {
	if m.findFn != nil {
		return m.findFn(ctx, id)
	}
	return nil, apperror.NewNotFound("ticket not found")
}

func (m *mockTicketRepo) List(ctx context.Context, status string, offset, limit int) ([]Ticket, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, status, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockTicketRepo) ListForUser(ctx context.Context, userID string) ([]Ticket, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockTicketRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockTicketRepo) AddMessage(ctx context.Context, message *Message) error {
	if m.addMessageFn != nil {
		return m.addMessageFn(ctx, message)
	}
	return nil
}

func (m *mockTicketRepo) ListMessages(ctx context.Context, ticketID string) ([]Message, error) {
	if m.listMessagesFn != nil {
		return m.listMessagesFn(ctx, ticketID)
	}
	return nil, nil
}

// mockNotifier implements notify.Notifier and captures sends.
type mockNotifier struct {
	sendFn      func(ctx context.Context, to []string, subject, body string) error
	lastTo      []string
	lastSubject string
	sendCount   int
}

func (m *mockNotifier) Send(ctx context.Context, to []string, subject, body string) error {
	m.lastTo = to
	m.lastSubject = subject
	m.sendCount++
	if m.sendFn != nil {
		return m.sendFn(ctx, to, subject, body)
	}
	return nil
}

func (m *mockNotifier) IsConfigured() bool { return true }

func assertKind(t *testing.T, err error, kind string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %s, got nil", kind)
	}
	if !apperror.IsKind(err, kind) {
		t.Fatalf("expected kind %s, got %v", kind, err)
	}
}

func validInput() TicketInput {
	return TicketInput{
		ContactEmail: "member@example.com",
		Subject:      "Cannot renew a book",
		Body:         "The renew button does nothing.",
	}
}

// --- Filing Tests ---

func TestFileTicket_Success(t *testing.T) {
	var captured *Ticket
	repo := &mockTicketRepo{
		createFn: func(ctx context.Context, ticket *Ticket) error {
			captured = ticket
			return nil
		},
	}
	notifier := &mockNotifier{}

	svc := NewTicketService(repo, notifier, "support@jambushrusti.org")
	ticket, err := svc.FileTicket(context.Background(), "user-123", validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.Status != StatusOpen {
		t.Errorf("expected new ticket to be open, got %s", ticket.Status)
	}
	if ticket.Priority != PriorityNormal {
		t.Errorf("expected default priority normal, got %s", ticket.Priority)
	}
	if captured.UserID == nil || *captured.UserID != "user-123" {
		t.Error("expected the requester to be recorded")
	}

	// The desk was notified.
	if notifier.sendCount != 1 {
		t.Errorf("expected 1 notification, got %d", notifier.sendCount)
	}
	if len(notifier.lastTo) != 1 || notifier.lastTo[0] != "support@jambushrusti.org" {
		t.Errorf("expected notification to the desk, got %v", notifier.lastTo)
	}
}

func TestFileTicket_AnonymousAllowed(t *testing.T) {
	var captured *Ticket
	repo := &mockTicketRepo{
		createFn: func(ctx context.Context, ticket *Ticket) error {
			captured = ticket
			return nil
		},
	}

	svc := NewTicketService(repo, &mockNotifier{}, "support@jambushrusti.org")
	if _, err := svc.FileTicket(context.Background(), "", validInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.UserID != nil {
		t.Error("expected anonymous ticket to carry no user")
	}
}

func TestFileTicket_NotificationFailureIsNonFatal(t *testing.T) {
	notifier := &mockNotifier{
		sendFn: func(ctx context.Context, to []string, subject, body string) error {
			return errors.New("smtp unreachable")
		},
	}

	svc := NewTicketService(&mockTicketRepo{}, notifier, "support@jambushrusti.org")
	if _, err := svc.FileTicket(context.Background(), "user-123", validInput()); err != nil {
		t.Fatalf("expected filing to succeed despite notification failure, got %v", err)
	}
}

func TestFileTicket_Validation(t *testing.T) {
	svc := NewTicketService(&mockTicketRepo{}, &mockNotifier{}, "support@jambushrusti.org")

	tests := []struct {
		name   string
		mutate func(*TicketInput)
	}{
		{"missing email", func(in *TicketInput) { in.ContactEmail = "" }},
		{"bad email", func(in *TicketInput) { in.ContactEmail = "not-an-email" }},
		{"missing subject", func(in *TicketInput) { in.Subject = "" }},
		{"missing body", func(in *TicketInput) { in.Body = "" }},
		{"bad priority", func(in *TicketInput) { in.Priority = "urgent" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.FileTicket(context.Background(), "user-123", in)
			assertKind(t, err, apperror.KindValidation)
		})
	}
}

func TestFileTicket_StripsMarkup(t *testing.T) {
	var captured *Ticket
	repo := &mockTicketRepo{
		createFn: func(ctx context.Context, ticket *Ticket) error {
			captured = ticket
			return nil
		},
	}

	svc := NewTicketService(repo, &mockNotifier{}, "support@jambushrusti.org")
	in := validInput()
	in.Body = `Please help <script>alert(1)</script> soon`
	if _, err := svc.FileTicket(context.Background(), "user-123", in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(captured.Body, "<script") {
		t.Error("expected markup stripped from ticket body")
	}
}

// --- Transition Tests ---

func TestTransition_AllowedMoves(t *testing.T) {
	tests := []struct {
		from, to string
		ok       bool
	}{
		{StatusOpen, StatusInProgress, true},
		{StatusOpen, StatusClosed, true},
		{StatusInProgress, StatusClosed, true},
		{StatusInProgress, StatusOpen, true},
		{StatusClosed, StatusOpen, true},
		{StatusClosed, StatusInProgress, false},
		{StatusOpen, "resolved", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			repo := &mockTicketRepo{
				findFn: func(ctx context.Context, id string) (*Ticket, error) {
					return &Ticket{ID: id, Status: tt.from}, nil
				},
			}
			svc := NewTicketService(repo, &mockNotifier{}, "support@jambushrusti.org")

			ticket, err := svc.Transition(context.Background(), "t-1", tt.to)
			if tt.ok {
				if err != nil {
					t.Fatalf("expected transition to succeed, got %v", err)
				}
				if ticket.Status != tt.to {
					t.Errorf("expected status %s, got %s", tt.to, ticket.Status)
				}
			} else {
				assertKind(t, err, apperror.KindConflict)
			}
		})
	}
}

func TestTransition_SameStatusIsNoop(t *testing.T) {
	repo := &mockTicketRepo{
		findFn: func(ctx context.Context, id string) (*Ticket, error) {
			return &Ticket{ID: id, Status: StatusOpen}, nil
		},
		updateStatusFn: func(ctx context.Context, id, status string) error {
			t.Error("expected no update for a same-status transition")
			return nil
		},
	}
	svc := NewTicketService(repo, &mockNotifier{}, "support@jambushrusti.org")

	if _, err := svc.Transition(context.Background(), "t-1", StatusOpen); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- Reply Tests ---

func TestReply_ReopensClosedTicket(t *testing.T) {
	var reopened bool
	repo := &mockTicketRepo{
		findFn: func(ctx context.Context, id string) (*Ticket, error) {
			return &Ticket{ID: id, Status: StatusClosed}, nil
		},
		updateStatusFn: func(ctx context.Context, id, status string) error {
			if status == StatusOpen {
				reopened = true
			}
			return nil
		},
	}
	svc := NewTicketService(repo, &mockNotifier{}, "support@jambushrusti.org")

	if _, err := svc.Reply(context.Background(), "t-1", "user-123", false, MessageInput{Body: "Still broken."}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reopened {
		t.Error("expected a reply to reopen the closed ticket")
	}
}

func TestReply_EmptyBody(t *testing.T) {
	svc := NewTicketService(&mockTicketRepo{}, &mockNotifier{}, "support@jambushrusti.org")
	_, err := svc.Reply(context.Background(), "t-1", "user-123", false, MessageInput{Body: "   "})
	assertKind(t, err, apperror.KindValidation)
}

func TestReply_StaffFlagRecorded(t *testing.T) {
	var captured *Message
	repo := &mockTicketRepo{
		findFn: func(ctx context.Context, id string) (*Ticket, error) {
			return &Ticket{ID: id, Status: StatusOpen}, nil
		},
		addMessageFn: func(ctx context.Context, message *Message) error {
			captured = message
			return nil
		},
	}
	svc := NewTicketService(repo, &mockNotifier{}, "support@jambushrusti.org")

	if _, err := svc.Reply(context.Background(), "t-1", "admin-1", true, MessageInput{Body: "Looking into it."}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !captured.FromStaff {
		t.Error("expected staff reply to be flagged")
	}
}

func TestListTickets_UnknownStatusFilter(t *testing.T) {
	svc := NewTicketService(&mockTicketRepo{}, &mockNotifier{}, "support@jambushrusti.org")
	_, _, err := svc.ListTickets(context.Background(), "resolved", 1, 20)
	assertKind(t, err, apperror.KindBadRequest)
}

func TestMyTickets_AnonymousGetsNothing(t *testing.T) {
	repo := &mockTicketRepo{
		listForUserFn: func(ctx context.Context, userID string) ([]Ticket, error) {
			t.Error("expected no query for an anonymous requester")
			return nil, nil
		},
	}
	svc := NewTicketService(repo, &mockNotifier{}, "support@jambushrusti.org")

	tickets, err := svc.MyTickets(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tickets != nil {
		t.Errorf("expected nil tickets, got %v", tickets)
	}
}

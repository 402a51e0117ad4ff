package tickets

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jambushrusti/platform/internal/apperror"
	"github.com/jambushrusti/platform/internal/notify"
	"github.com/jambushrusti/platform/internal/sanitize"
)

// TicketService defines the business logic contract for support tickets.
type TicketService interface {
	// Requester operations. userID is empty for anonymous demo-mode
	// submissions.
	FileTicket(ctx context.Context, userID string, input TicketInput) (*Ticket, error)
	GetTicket(ctx context.Context, id string) (*Ticket, error)
	MyTickets(ctx context.Context, userID string) ([]Ticket, error)
	Thread(ctx context.Context, ticketID string) ([]Message, error)
	Reply(ctx context.Context, ticketID, authorID string, fromStaff bool, input MessageInput) (*Message, error)

	// Staff operations.
	ListTickets(ctx context.Context, status string, page, perPage int) ([]Ticket, int, error)
	Transition(ctx context.Context, ticketID, toStatus string) (*Ticket, error)
}

// ticketService implements TicketService.
type ticketService struct {
	repo     TicketRepository
	notifier notify.Notifier
	deskAddr string
}

// NewTicketService creates a new ticket service. deskAddr is where new-ticket
// notifications go.
func NewTicketService(repo TicketRepository, notifier notify.Notifier, deskAddr string) TicketService {
	return &ticketService{repo: repo, notifier: notifier, deskAddr: deskAddr}
}

// FileTicket creates a ticket and notifies the support desk. Notification
// failure never fails the filing; the ticket is already saved.
func (s *ticketService) FileTicket(ctx context.Context, userID string, input TicketInput) (*Ticket, error) {
	if msg := validateTicketInput(&input); msg != "" {
		return nil, apperror.NewValidation(msg)
	}

	priority := input.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	if priority != PriorityLow && priority != PriorityNormal && priority != PriorityHigh {
		return nil, apperror.NewValidation("priority must be low, normal, or high")
	}

	now := time.Now().UTC()
	ticket := &Ticket{
		ID:           uuid.NewString(),
		ContactEmail: strings.ToLower(strings.TrimSpace(input.ContactEmail)),
		Subject:      strings.TrimSpace(input.Subject),
		Body:         sanitize.StrictText(input.Body),
		Status:       StatusOpen,
		Priority:     priority,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if userID != "" {
		ticket.UserID = &userID
	}

	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, apperror.NewInternal(err)
	}

	slog.Info("ticket filed",
		slog.String("ticket_id", ticket.ID),
		slog.String("priority", ticket.Priority),
		slog.Bool("anonymous", ticket.UserID == nil),
	)

	subject := fmt.Sprintf("[ticket] %s", ticket.Subject)
	body := fmt.Sprintf("New %s-priority ticket from %s:\n\n%s", ticket.Priority, ticket.ContactEmail, ticket.Body)
	if err := s.notifier.Send(ctx, []string{s.deskAddr}, subject, body); err != nil {
		slog.Warn("ticket notification failed",
			slog.String("ticket_id", ticket.ID),
			slog.Any("error", err),
		)
	}

	return ticket, nil
}

// GetTicket retrieves a ticket.
func (s *ticketService) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	return s.repo.Find(ctx, id)
}

// MyTickets returns the member's own tickets.
func (s *ticketService) MyTickets(ctx context.Context, userID string) ([]Ticket, error) {
	if userID == "" {
		return nil, nil
	}
	return s.repo.ListForUser(ctx, userID)
}

// Thread returns a ticket's reply thread.
func (s *ticketService) Thread(ctx context.Context, ticketID string) ([]Message, error) {
	if _, err := s.repo.Find(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, ticketID)
}

// Reply appends to a ticket's thread. Replying reopens a closed ticket.
func (s *ticketService) Reply(ctx context.Context, ticketID, authorID string, fromStaff bool, input MessageInput) (*Message, error) {
	body := sanitize.StrictText(input.Body)
	if strings.TrimSpace(body) == "" {
		return nil, apperror.NewValidation("message body is required")
	}

	ticket, err := s.repo.Find(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	message := &Message{
		ID:        uuid.NewString(),
		TicketID:  ticketID,
		FromStaff: fromStaff,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if authorID != "" {
		message.AuthorID = &authorID
	}

	if err := s.repo.AddMessage(ctx, message); err != nil {
		return nil, apperror.NewInternal(err)
	}

	if ticket.Status == StatusClosed {
		if err := s.repo.UpdateStatus(ctx, ticketID, StatusOpen); err != nil {
			slog.Warn("failed to reopen ticket on reply",
				slog.String("ticket_id", ticketID),
				slog.Any("error", err),
			)
		}
	}

	return message, nil
}

// ListTickets returns a page of tickets for the support desk.
func (s *ticketService) ListTickets(ctx context.Context, status string, page, perPage int) ([]Ticket, int, error) {
	if status != "" && status != StatusOpen && status != StatusInProgress && status != StatusClosed {
		return nil, 0, apperror.NewBadRequest("unknown status filter")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.repo.List(ctx, status, (page-1)*perPage, perPage)
}

// Transition moves a ticket between statuses, enforcing the allowed moves.
func (s *ticketService) Transition(ctx context.Context, ticketID, toStatus string) (*Ticket, error) {
	ticket, err := s.repo.Find(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if ticket.Status == toStatus {
		return ticket, nil
	}
	if !CanTransition(ticket.Status, toStatus) {
		return nil, apperror.NewConflict(
			fmt.Sprintf("cannot move a ticket from %s to %s", ticket.Status, toStatus),
		)
	}

	if err := s.repo.UpdateStatus(ctx, ticketID, toStatus); err != nil {
		return nil, apperror.NewInternal(err)
	}
	ticket.Status = toStatus

	slog.Info("ticket status changed",
		slog.String("ticket_id", ticketID),
		slog.String("status", toStatus),
	)

	return ticket, nil
}

// validateTicketInput checks the filing fields. Returns an error message or
// empty string.
func validateTicketInput(input *TicketInput) string {
	if strings.TrimSpace(input.ContactEmail) == "" {
		return "contact email is required"
	}
	if _, err := mail.ParseAddress(input.ContactEmail); err != nil {
		return "contact email is not valid"
	}
	if strings.TrimSpace(input.Subject) == "" {
		return "subject is required"
	}
	if len(input.Subject) > 200 {
		return "subject must be at most 200 characters"
	}
	if strings.TrimSpace(input.Body) == "" {
		return "body is required"
	}
	return ""
}

package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jambushrusti/platform/internal/apperror"
)

// TicketRepository defines the data access contract for tickets.
type TicketRepository interface {
	Create(ctx context.Context, ticket *Ticket) error
	Find(ctx context.Context, id string) (*Ticket, error)
	List(ctx context.Context, status string, offset, limit int) ([]Ticket, int, error)
	ListForUser(ctx context.Context, userID string) ([]Ticket, error)
	UpdateStatus(ctx context.Context, id, status string) error

	AddMessage(ctx context.Context, message *Message) error
	ListMessages(ctx context.Context, ticketID string) ([]Message, error)
}

// ticketRepository implements TicketRepository with hand-written MariaDB
// queries.
type ticketRepository struct {
	db *sql.DB
}

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(db *sql.DB) TicketRepository {
	return &ticketRepository{db: db}
}

// Create inserts a new ticket.
func (r *ticketRepository) Create(ctx context.Context, ticket *Ticket) error {
	query := `INSERT INTO tickets (id, user_id, contact_email, subject, body, status, priority, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		ticket.ID, ticket.UserID, ticket.ContactEmail, ticket.Subject, ticket.Body,
		ticket.Status, ticket.Priority, ticket.CreatedAt, ticket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting ticket: %w", err)
	}

	return nil
}

// Find retrieves a ticket by ID.
// Returns apperror.NotFound if no ticket exists with this ID.
func (r *ticketRepository) Find(ctx context.Context, id string) (*Ticket, error) {
	query := `SELECT id, user_id, contact_email, subject, body, status, priority, created_at, updated_at
	          FROM tickets WHERE id = ?`

	t := &Ticket{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.UserID, &t.ContactEmail, &t.Subject, &t.Body,
		&t.Status, &t.Priority, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("ticket not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying ticket: %w", err)
	}

	return t, nil
}

// List returns a page of tickets for the support desk, optionally filtered
// by status, plus the total count.
func (r *ticketRepository) List(ctx context.Context, status string, offset, limit int) ([]Ticket, int, error) {
	countQuery := `SELECT COUNT(*) FROM tickets`
	listQuery := `SELECT id, user_id, contact_email, subject, body, status, priority, created_at, updated_at
	              FROM tickets`
	args := []any{}
	if status != "" {
		countQuery += ` WHERE status = ?`
		listQuery += ` WHERE status = ?`
		args = append(args, status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting tickets: %w", err)
	}

	listQuery += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	tickets, err := r.scanTickets(ctx, listQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

// ListForUser returns a member's own tickets, newest first.
func (r *ticketRepository) ListForUser(ctx context.Context, userID string) ([]Ticket, error) {
	query := `SELECT id, user_id, contact_email, subject, body, status, priority, created_at, updated_at
	          FROM tickets WHERE user_id = ?
	          ORDER BY created_at DESC`

	return r.scanTickets(ctx, query, userID)
}

// UpdateStatus sets a ticket's status.
func (r *ticketRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET status = ?, updated_at = NOW() WHERE id = ?`, status, id,
	)
	if err != nil {
		return fmt.Errorf("updating ticket status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("ticket not found")
	}

	return nil
}

// AddMessage appends a reply to a ticket's thread.
func (r *ticketRepository) AddMessage(ctx context.Context, message *Message) error {
	query := `INSERT INTO ticket_messages (id, ticket_id, author_id, from_staff, body, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		message.ID, message.TicketID, message.AuthorID, message.FromStaff,
		message.Body, message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting ticket message: %w", err)
	}

	return nil
}

// ListMessages returns a ticket's thread, oldest first.
func (r *ticketRepository) ListMessages(ctx context.Context, ticketID string) ([]Message, error) {
	query := `SELECT id, ticket_id, author_id, from_staff, body, created_at
	          FROM ticket_messages WHERE ticket_id = ?
	          ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("listing ticket messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID, &m.TicketID, &m.AuthorID, &m.FromStaff, &m.Body, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (r *ticketRepository) scanTickets(ctx context.Context, query string, args ...any) ([]Ticket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.ContactEmail, &t.Subject, &t.Body,
			&t.Status, &t.Priority, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning ticket row: %w", err)
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

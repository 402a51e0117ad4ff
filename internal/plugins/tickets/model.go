// Package tickets implements support tickets with threaded replies. The
// ticket area runs in open demo mode: its guard is permanently bypassed,
// so even anonymous visitors can file a ticket. That is stated policy
// (config.DemoTickets), not an accident.
package tickets

import "time"

// Ticket statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusClosed     = "closed"
)

// Ticket priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// validTransitions maps each status to the statuses staff may move it to.
var validTransitions = map[string][]string{
	StatusOpen:       {StatusInProgress, StatusClosed},
	StatusInProgress: {StatusOpen, StatusClosed},
	StatusClosed:     {StatusOpen},
}

// Ticket is a support request. UserID is nil for anonymous demo-mode
// submissions; ContactEmail is where replies go either way.
type Ticket struct {
	ID           string    `json:"id"`
	UserID       *string   `json:"user_id,omitempty"`
	ContactEmail string    `json:"contact_email"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	Status       string    `json:"status"`
	Priority     string    `json:"priority"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Message is one reply in a ticket's thread. FromStaff distinguishes the
// support desk from the requester.
type Message struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  *string   `json:"author_id,omitempty"`
	FromStaff bool      `json:"from_staff"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CanTransition reports whether a ticket in the current status may move to
// the target status.
func CanTransition(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TicketInput is the validated input for filing a ticket.
type TicketInput struct {
	ContactEmail string `json:"contact_email" form:"contact_email"`
	Subject      string `json:"subject" form:"subject"`
	Body         string `json:"body" form:"body"`
	Priority     string `json:"priority" form:"priority"`
}

// MessageInput is the validated input for a reply.
type MessageInput struct {
	Body string `json:"body" form:"body"`
}

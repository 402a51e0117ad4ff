// Package library implements the physical book catalog and circulation
// (LMS) for the community library. Members browse and borrow; librarians
// manage the catalog and record returns.
package library

import "time"

// loanPeriod is how long a borrowed book may be kept before it is overdue.
const loanPeriod = 21 * 24 * time.Hour

// Book is a title in the physical catalog. AvailableCopies tracks how many
// of TotalCopies are currently on the shelf; it only changes through the
// borrow and return paths.
type Book struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn,omitempty"`
	Category        string    `json:"category,omitempty"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
}

// Loan is one borrowing of one copy. ReturnedAt nil means the loan is
// active; past DueAt it is overdue.
type Loan struct {
	ID         string     `json:"id"`
	BookID     string     `json:"book_id"`
	UserID     string     `json:"user_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// LoanDetail is a loan joined with its book for list views.
type LoanDetail struct {
	Loan
	BookTitle  string `json:"book_title"`
	BookAuthor string `json:"book_author"`
}

// Overdue reports whether the loan is active and past due.
func (l *Loan) Overdue(now time.Time) bool {
	return l.ReturnedAt == nil && now.After(l.DueAt)
}

// BookInput is the validated input for creating or updating a catalog entry.
type BookInput struct {
	Title       string `json:"title" form:"title"`
	Author      string `json:"author" form:"author"`
	ISBN        string `json:"isbn" form:"isbn"`
	Category    string `json:"category" form:"category"`
	TotalCopies int    `json:"total_copies" form:"total_copies"`
}

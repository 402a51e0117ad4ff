package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jambushrusti/platform/internal/apperror"
)

// BookRepository defines the data access contract for the catalog and loans.
type BookRepository interface {
	// Catalog.
	ListBooks(ctx context.Context, category string, offset, limit int) ([]Book, int, error)
	FindBook(ctx context.Context, id string) (*Book, error)
	CreateBook(ctx context.Context, book *Book) error
	UpdateBook(ctx context.Context, book *Book) error
	DeleteBook(ctx context.Context, id string) error

	// Circulation. Borrow decrements availability and inserts the loan in
	// one transaction; the SQL guard on available_copies makes concurrent
	// borrows of the last copy safe.
	Borrow(ctx context.Context, loan *Loan) error
	Return(ctx context.Context, loanID string) (bool, error)
	FindLoan(ctx context.Context, id string) (*Loan, error)
	ListLoansForUser(ctx context.Context, userID string) ([]LoanDetail, error)
	ListActiveLoans(ctx context.Context, overdueOnly bool) ([]LoanDetail, error)
	HasActiveLoan(ctx context.Context, userID, bookID string) (bool, error)
}

// bookRepository implements BookRepository with hand-written MariaDB queries.
type bookRepository struct {
	db *sql.DB
}

// NewBookRepository creates a new book repository backed by the given DB pool.
func NewBookRepository(db *sql.DB) BookRepository {
	return &bookRepository{db: db}
}

// ListBooks returns a page of the catalog, optionally filtered by category,
// plus the total count for pagination.
func (r *bookRepository) ListBooks(ctx context.Context, category string, offset, limit int) ([]Book, int, error) {
	countQuery := `SELECT COUNT(*) FROM books`
	listQuery := `SELECT id, title, author, isbn, category, total_copies, available_copies, created_at
	              FROM books`
	args := []any{}
	if category != "" {
		countQuery += ` WHERE category = ?`
		listQuery += ` WHERE category = ?`
		args = append(args, category)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting books: %w", err)
	}

	listQuery += ` ORDER BY title LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, listQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Category,
			&b.TotalCopies, &b.AvailableCopies, &b.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning book row: %w", err)
		}
		books = append(books, b)
	}

	return books, total, rows.Err()
}

// FindBook retrieves a catalog entry by ID.
// Returns apperror.NotFound if no book exists with this ID.
func (r *bookRepository) FindBook(ctx context.Context, id string) (*Book, error) {
	query := `SELECT id, title, author, isbn, category, total_copies, available_copies, created_at
	          FROM books WHERE id = ?`

	b := &Book{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Category,
		&b.TotalCopies, &b.AvailableCopies, &b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("book not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying book: %w", err)
	}

	return b, nil
}

// CreateBook inserts a new catalog entry. A new title starts with all
// copies available.
func (r *bookRepository) CreateBook(ctx context.Context, book *Book) error {
	query := `INSERT INTO books (id, title, author, isbn, category, total_copies, available_copies, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		book.ID, book.Title, book.Author, book.ISBN, book.Category,
		book.TotalCopies, book.AvailableCopies, book.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting book: %w", err)
	}

	return nil
}

// UpdateBook updates the catalog fields of a book. Availability is adjusted
// by the same delta as total copies so outstanding loans stay accounted for.
func (r *bookRepository) UpdateBook(ctx context.Context, book *Book) error {
	query := `UPDATE books
	          SET title = ?, author = ?, isbn = ?, category = ?,
	              available_copies = available_copies + (? - total_copies),
	              total_copies = ?
	          WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		book.Title, book.Author, book.ISBN, book.Category,
		book.TotalCopies, book.TotalCopies, book.ID,
	)
	if err != nil {
		return fmt.Errorf("updating book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("book not found")
	}

	return nil
}

// DeleteBook removes a catalog entry. Refused while loans are outstanding.
func (r *bookRepository) DeleteBook(ctx context.Context, id string) error {
	var active int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans WHERE book_id = ? AND returned_at IS NULL`, id,
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("counting active loans: %w", err)
	}
	if active > 0 {
		return apperror.NewConflict("book has copies out on loan")
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("book not found")
	}

	return nil
}

// Borrow atomically takes one copy off the shelf and records the loan.
// The WHERE guard on available_copies is what makes two members racing for
// the last copy resolve correctly: exactly one UPDATE matches.
func (r *bookRepository) Borrow(ctx context.Context, loan *Loan) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning borrow tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE books SET available_copies = available_copies - 1
		 WHERE id = ? AND available_copies > 0`, loan.BookID,
	)
	if err != nil {
		return fmt.Errorf("decrementing availability: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking borrow update: %w", err)
	}
	if n == 0 {
		// Either the book doesn't exist or no copies are left; tell them apart.
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM books WHERE id = ?)`, loan.BookID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("checking book existence: %w", err)
		}
		if !exists {
			return apperror.NewNotFound("book not found")
		}
		return apperror.NewConflict("no copies available")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO loans (id, book_id, user_id, borrowed_at, due_at)
		 VALUES (?, ?, ?, ?, ?)`,
		loan.ID, loan.BookID, loan.UserID, loan.BorrowedAt, loan.DueAt,
	)
	if err != nil {
		return fmt.Errorf("inserting loan: %w", err)
	}

	return tx.Commit()
}

// Return closes a loan and puts the copy back on the shelf. Returns false
// with no error when the loan was already returned, which keeps the
// operation safe to repeat.
func (r *bookRepository) Return(ctx context.Context, loanID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning return tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE loans SET returned_at = NOW() WHERE id = ? AND returned_at IS NULL`, loanID,
	)
	if err != nil {
		return false, fmt.Errorf("closing loan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking return update: %w", err)
	}
	if n == 0 {
		// Already returned, or no such loan. The caller validated existence.
		return false, tx.Commit()
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE books b JOIN loans l ON l.book_id = b.id
		 SET b.available_copies = b.available_copies + 1
		 WHERE l.id = ?`, loanID,
	)
	if err != nil {
		return false, fmt.Errorf("restoring availability: %w", err)
	}

	return true, tx.Commit()
}

// FindLoan retrieves a loan by ID.
// Returns apperror.NotFound if no loan exists with this ID.
func (r *bookRepository) FindLoan(ctx context.Context, id string) (*Loan, error) {
	query := `SELECT id, book_id, user_id, borrowed_at, due_at, returned_at
	          FROM loans WHERE id = ?`

	l := &Loan{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.BookID, &l.UserID, &l.BorrowedAt, &l.DueAt, &l.ReturnedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("loan not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying loan: %w", err)
	}

	return l, nil
}

// ListLoansForUser returns a member's loans, newest first, active before
// returned.
func (r *bookRepository) ListLoansForUser(ctx context.Context, userID string) ([]LoanDetail, error) {
	query := `SELECT l.id, l.book_id, l.user_id, l.borrowed_at, l.due_at, l.returned_at,
	                 b.title, b.author
	          FROM loans l JOIN books b ON b.id = l.book_id
	          WHERE l.user_id = ?
	          ORDER BY l.returned_at IS NULL DESC, l.borrowed_at DESC`

	return r.scanLoanDetails(ctx, query, userID)
}

// ListActiveLoans returns all outstanding loans for the circulation desk,
// optionally only the overdue ones.
func (r *bookRepository) ListActiveLoans(ctx context.Context, overdueOnly bool) ([]LoanDetail, error) {
	query := `SELECT l.id, l.book_id, l.user_id, l.borrowed_at, l.due_at, l.returned_at,
	                 b.title, b.author
	          FROM loans l JOIN books b ON b.id = l.book_id
	          WHERE l.returned_at IS NULL`
	if overdueOnly {
		query += ` AND l.due_at < NOW()`
	}
	query += ` ORDER BY l.due_at`

	return r.scanLoanDetails(ctx, query)
}

// HasActiveLoan reports whether the member already has this title out.
func (r *bookRepository) HasActiveLoan(ctx context.Context, userID, bookID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM loans WHERE user_id = ? AND book_id = ? AND returned_at IS NULL)`,
		userID, bookID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking active loan: %w", err)
	}
	return exists, nil
}

func (r *bookRepository) scanLoanDetails(ctx context.Context, query string, args ...any) ([]LoanDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing loans: %w", err)
	}
	defer rows.Close()

	var loans []LoanDetail
	for rows.Next() {
		var d LoanDetail
		if err := rows.Scan(
			&d.ID, &d.BookID, &d.UserID, &d.BorrowedAt, &d.DueAt, &d.ReturnedAt,
			&d.BookTitle, &d.BookAuthor,
		); err != nil {
			return nil, fmt.Errorf("scanning loan row: %w", err)
		}
		loans = append(loans, d)
	}

	return loans, rows.Err()
}

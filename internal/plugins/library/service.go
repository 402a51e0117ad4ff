package library

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jambushrusti/platform/internal/apperror"
)

// LibraryService defines the business logic contract for the library.
type LibraryService interface {
	// Member operations.
	BrowseBooks(ctx context.Context, category string, page, perPage int) ([]Book, int, error)
	GetBook(ctx context.Context, id string) (*Book, error)
	BorrowBook(ctx context.Context, userID, bookID string) (*Loan, error)
	ReturnBook(ctx context.Context, userID, loanID string) error
	MyLoans(ctx context.Context, userID string) ([]LoanDetail, error)

	// Librarian operations.
	AddBook(ctx context.Context, input BookInput) (*Book, error)
	UpdateBook(ctx context.Context, id string, input BookInput) (*Book, error)
	RemoveBook(ctx context.Context, id string) error
	ActiveLoans(ctx context.Context, overdueOnly bool) ([]LoanDetail, error)
	RecordReturn(ctx context.Context, loanID string) error
}

// libraryService implements LibraryService.
type libraryService struct {
	repo BookRepository
}

// NewLibraryService creates a new library service.
func NewLibraryService(repo BookRepository) LibraryService {
	return &libraryService{repo: repo}
}

// BrowseBooks returns a page of the catalog.
func (s *libraryService) BrowseBooks(ctx context.Context, category string, page, perPage int) ([]Book, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.repo.ListBooks(ctx, category, (page-1)*perPage, perPage)
}

// GetBook retrieves a single catalog entry.
func (s *libraryService) GetBook(ctx context.Context, id string) (*Book, error) {
	return s.repo.FindBook(ctx, id)
}

// BorrowBook takes one copy of a book out for the member. A member holds at
// most one active loan per title; the availability decrement is atomic, so
// two members racing for the last copy never both succeed.
func (s *libraryService) BorrowBook(ctx context.Context, userID, bookID string) (*Loan, error) {
	already, err := s.repo.HasActiveLoan(ctx, userID, bookID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if already {
		return nil, apperror.NewConflict("you already have this book on loan")
	}

	now := time.Now().UTC()
	loan := &Loan{
		ID:         uuid.NewString(),
		BookID:     bookID,
		UserID:     userID,
		BorrowedAt: now,
		DueAt:      now.Add(loanPeriod),
	}

	if err := s.repo.Borrow(ctx, loan); err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) || apperror.IsKind(err, apperror.KindConflict) {
			return nil, err
		}
		return nil, apperror.NewInternal(err)
	}

	slog.Info("book borrowed",
		slog.String("user_id", userID),
		slog.String("book_id", bookID),
		slog.String("loan_id", loan.ID),
	)

	return loan, nil
}

// ReturnBook closes one of the member's own loans. Returning a loan that is
// already closed is a no-op.
func (s *libraryService) ReturnBook(ctx context.Context, userID, loanID string) error {
	loan, err := s.repo.FindLoan(ctx, loanID)
	if err != nil {
		return err
	}
	if loan.UserID != userID {
		return apperror.NewForbidden("this loan belongs to another member")
	}

	returned, err := s.repo.Return(ctx, loanID)
	if err != nil {
		return apperror.NewInternal(err)
	}
	if returned {
		slog.Info("book returned",
			slog.String("user_id", userID),
			slog.String("loan_id", loanID),
		)
	}

	return nil
}

// MyLoans returns the member's borrowing history.
func (s *libraryService) MyLoans(ctx context.Context, userID string) ([]LoanDetail, error) {
	return s.repo.ListLoansForUser(ctx, userID)
}

// AddBook creates a catalog entry.
func (s *libraryService) AddBook(ctx context.Context, input BookInput) (*Book, error) {
	if msg := validateBookInput(&input); msg != "" {
		return nil, apperror.NewValidation(msg)
	}

	book := &Book{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(input.Title),
		Author:          strings.TrimSpace(input.Author),
		ISBN:            strings.TrimSpace(input.ISBN),
		Category:        strings.TrimSpace(input.Category),
		TotalCopies:     input.TotalCopies,
		AvailableCopies: input.TotalCopies,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repo.CreateBook(ctx, book); err != nil {
		return nil, apperror.NewInternal(err)
	}

	slog.Info("book added to catalog",
		slog.String("book_id", book.ID),
		slog.String("title", book.Title),
	)

	return book, nil
}

// UpdateBook edits a catalog entry. Total copies may not drop below the
// number currently out on loan.
func (s *libraryService) UpdateBook(ctx context.Context, id string, input BookInput) (*Book, error) {
	if msg := validateBookInput(&input); msg != "" {
		return nil, apperror.NewValidation(msg)
	}

	current, err := s.repo.FindBook(ctx, id)
	if err != nil {
		return nil, err
	}

	onLoan := current.TotalCopies - current.AvailableCopies
	if input.TotalCopies < onLoan {
		return nil, apperror.NewConflict("total copies cannot be fewer than copies out on loan")
	}

	current.Title = strings.TrimSpace(input.Title)
	current.Author = strings.TrimSpace(input.Author)
	current.ISBN = strings.TrimSpace(input.ISBN)
	current.Category = strings.TrimSpace(input.Category)
	current.TotalCopies = input.TotalCopies

	if err := s.repo.UpdateBook(ctx, current); err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return nil, err
		}
		return nil, apperror.NewInternal(err)
	}
	current.AvailableCopies = input.TotalCopies - onLoan

	return current, nil
}

// RemoveBook deletes a catalog entry with no outstanding loans.
func (s *libraryService) RemoveBook(ctx context.Context, id string) error {
	err := s.repo.DeleteBook(ctx, id)
	if err != nil && !apperror.IsKind(err, apperror.KindNotFound) && !apperror.IsKind(err, apperror.KindConflict) {
		return apperror.NewInternal(err)
	}
	return err
}

// ActiveLoans lists outstanding loans for the circulation desk.
func (s *libraryService) ActiveLoans(ctx context.Context, overdueOnly bool) ([]LoanDetail, error) {
	return s.repo.ListActiveLoans(ctx, overdueOnly)
}

// RecordReturn closes any loan at the desk, regardless of who borrowed it.
func (s *libraryService) RecordReturn(ctx context.Context, loanID string) error {
	if _, err := s.repo.FindLoan(ctx, loanID); err != nil {
		return err
	}
	if _, err := s.repo.Return(ctx, loanID); err != nil {
		return apperror.NewInternal(err)
	}
	return nil
}

// validateBookInput checks the catalog fields. Returns an error message or
// empty string.
func validateBookInput(input *BookInput) string {
	if strings.TrimSpace(input.Title) == "" {
		return "title is required"
	}
	if strings.TrimSpace(input.Author) == "" {
		return "author is required"
	}
	if input.TotalCopies < 1 {
		return "total copies must be at least 1"
	}
	if input.TotalCopies > 1000 {
		return "total copies must be at most 1000"
	}
	return ""
}

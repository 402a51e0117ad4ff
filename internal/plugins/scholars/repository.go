package scholars

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jambushrusti/platform/internal/apperror"
)

// ArticleRepository defines the data access contract for research articles.
type ArticleRepository interface {
	ListPublished(ctx context.Context) ([]ArticleSummary, error)
	ListByAuthor(ctx context.Context, authorID string) ([]ArticleSummary, error)
	Find(ctx context.Context, id string) (*Article, error)
	Create(ctx context.Context, article *Article) error
	Update(ctx context.Context, article *Article) error
	Delete(ctx context.Context, id string) error
}

// articleRepository implements ArticleRepository with hand-written MariaDB
// queries.
type articleRepository struct {
	db *sql.DB
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db *sql.DB) ArticleRepository {
	return &articleRepository{db: db}
}

const summaryColumns = `a.id, a.author_id, COALESCE(p.display_name, ''), a.title, a.status, a.updated_at`

// ListPublished returns every published article, newest first.
func (r *articleRepository) ListPublished(ctx context.Context) ([]ArticleSummary, error) {
	query := `SELECT ` + summaryColumns + `
	          FROM articles a LEFT JOIN profiles p ON p.user_id = a.author_id
	          WHERE a.status = ?
	          ORDER BY a.updated_at DESC`

	return r.scanSummaries(ctx, query, StatusPublished)
}

// ListByAuthor returns a scholar's own articles, drafts included.
func (r *articleRepository) ListByAuthor(ctx context.Context, authorID string) ([]ArticleSummary, error) {
	query := `SELECT ` + summaryColumns + `
	          FROM articles a LEFT JOIN profiles p ON p.user_id = a.author_id
	          WHERE a.author_id = ?
	          ORDER BY a.updated_at DESC`

	return r.scanSummaries(ctx, query, authorID)
}

// Find retrieves an article by ID.
// Returns apperror.NotFound if no article exists with this ID.
func (r *articleRepository) Find(ctx context.Context, id string) (*Article, error) {
	query := `SELECT id, author_id, title, body, status, created_at, updated_at
	          FROM articles WHERE id = ?`

	a := &Article{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.AuthorID, &a.Title, &a.Body, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("article not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying article: %w", err)
	}

	return a, nil
}

// Create inserts a new article.
func (r *articleRepository) Create(ctx context.Context, article *Article) error {
	query := `INSERT INTO articles (id, author_id, title, body, status, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		article.ID, article.AuthorID, article.Title, article.Body,
		article.Status, article.CreatedAt, article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting article: %w", err)
	}

	return nil
}

// Update saves an article's title, body, and status.
func (r *articleRepository) Update(ctx context.Context, article *Article) error {
	query := `UPDATE articles SET title = ?, body = ?, status = ?, updated_at = ?
	          WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		article.Title, article.Body, article.Status, article.UpdatedAt, article.ID,
	)
	if err != nil {
		return fmt.Errorf("updating article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("article not found")
	}

	return nil
}

// Delete removes an article.
func (r *articleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("article not found")
	}

	return nil
}

func (r *articleRepository) scanSummaries(ctx context.Context, query string, args ...any) ([]ArticleSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	var articles []ArticleSummary
	for rows.Next() {
		var s ArticleSummary
		if err := rows.Scan(
			&s.ID, &s.AuthorID, &s.AuthorName, &s.Title, &s.Status, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning article row: %w", err)
		}
		articles = append(articles, s)
	}

	return articles, rows.Err()
}

package scholars

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jambushrusti/platform/internal/apperror"
	"github.com/jambushrusti/platform/internal/plugins/auth"
	"github.com/jambushrusti/platform/internal/sanitize"
)

// ScholarService defines the business logic contract for the research portal.
type ScholarService interface {
	// Join makes the member a scholar. Already being one (or holding any
	// other non-default role) is a quiet no-op. A write failure is logged
	// and swallowed: the portal still opens, the upgrade retries next visit.
	Join(ctx context.Context, userID string)

	// Reading.
	PublishedArticles(ctx context.Context) ([]ArticleSummary, error)
	GetArticle(ctx context.Context, id string, viewerID string) (*Article, error)

	// Writing (scholar's own articles).
	MyArticles(ctx context.Context, authorID string) ([]ArticleSummary, error)
	WriteArticle(ctx context.Context, authorID string, input ArticleInput) (*Article, error)
	EditArticle(ctx context.Context, authorID, articleID string, input ArticleInput) (*Article, error)
	PublishArticle(ctx context.Context, authorID, articleID string) (*Article, error)
	DeleteArticle(ctx context.Context, authorID, articleID string) error
}

// scholarService implements ScholarService.
type scholarService struct {
	repo ArticleRepository
	auth auth.AuthService
}

// NewScholarService creates a new scholar service. The auth service is used
// for the join flow's role upgrade.
func NewScholarService(repo ArticleRepository, authService auth.AuthService) ScholarService {
	return &scholarService{repo: repo, auth: authService}
}

// Join upgrades the member to the scholar role.
func (s *scholarService) Join(ctx context.Context, userID string) {
	if err := s.auth.EnsureRole(ctx, userID, auth.RoleScholar); err != nil {
		slog.Warn("scholar onboarding upgrade failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
}

// PublishedArticles lists what the portal shows to every visitor.
func (s *scholarService) PublishedArticles(ctx context.Context) ([]ArticleSummary, error) {
	return s.repo.ListPublished(ctx)
}

// GetArticle retrieves an article. Drafts are visible only to their author.
func (s *scholarService) GetArticle(ctx context.Context, id string, viewerID string) (*Article, error) {
	article, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.Status != StatusPublished && article.AuthorID != viewerID {
		return nil, apperror.NewNotFound("article not found")
	}
	return article, nil
}

// MyArticles lists the scholar's own articles, drafts included.
func (s *scholarService) MyArticles(ctx context.Context, authorID string) ([]ArticleSummary, error) {
	return s.repo.ListByAuthor(ctx, authorID)
}

// WriteArticle creates a draft. The body is sanitized on the way in so the
// stored HTML is already safe to serve.
func (s *scholarService) WriteArticle(ctx context.Context, authorID string, input ArticleInput) (*Article, error) {
	if msg := validateArticleInput(&input); msg != "" {
		return nil, apperror.NewValidation(msg)
	}

	now := time.Now().UTC()
	article := &Article{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Title:     strings.TrimSpace(input.Title),
		Body:      sanitize.HTML(input.Body),
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, article); err != nil {
		return nil, apperror.NewInternal(err)
	}

	slog.Info("article drafted",
		slog.String("author_id", authorID),
		slog.String("article_id", article.ID),
	)

	return article, nil
}

// EditArticle updates one of the scholar's own articles.
func (s *scholarService) EditArticle(ctx context.Context, authorID, articleID string, input ArticleInput) (*Article, error) {
	if msg := validateArticleInput(&input); msg != "" {
		return nil, apperror.NewValidation(msg)
	}

	article, err := s.ownedArticle(ctx, authorID, articleID)
	if err != nil {
		return nil, err
	}

	article.Title = strings.TrimSpace(input.Title)
	article.Body = sanitize.HTML(input.Body)
	article.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, article); err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return nil, err
		}
		return nil, apperror.NewInternal(err)
	}

	return article, nil
}

// PublishArticle flips one of the scholar's drafts to published. Publishing
// an already-published article is a no-op.
func (s *scholarService) PublishArticle(ctx context.Context, authorID, articleID string) (*Article, error) {
	article, err := s.ownedArticle(ctx, authorID, articleID)
	if err != nil {
		return nil, err
	}
	if article.Status == StatusPublished {
		return article, nil
	}

	article.Status = StatusPublished
	article.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, article); err != nil {
		return nil, apperror.NewInternal(err)
	}

	slog.Info("article published",
		slog.String("author_id", authorID),
		slog.String("article_id", articleID),
	)

	return article, nil
}

// DeleteArticle removes one of the scholar's own articles.
func (s *scholarService) DeleteArticle(ctx context.Context, authorID, articleID string) error {
	if _, err := s.ownedArticle(ctx, authorID, articleID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, articleID); err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return err
		}
		return apperror.NewInternal(err)
	}
	return nil
}

// ownedArticle fetches an article and verifies authorship.
func (s *scholarService) ownedArticle(ctx context.Context, authorID, articleID string) (*Article, error) {
	article, err := s.repo.Find(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != authorID {
		return nil, apperror.NewForbidden("this article belongs to another scholar")
	}
	return article, nil
}

// validateArticleInput checks the article fields. Returns an error message
// or empty string.
func validateArticleInput(input *ArticleInput) string {
	if strings.TrimSpace(input.Title) == "" {
		return "title is required"
	}
	if len(input.Title) > 200 {
		return "title must be at most 200 characters"
	}
	if strings.TrimSpace(input.Body) == "" {
		return "body is required"
	}
	return ""
}

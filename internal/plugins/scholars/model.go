// Package scholars implements the research collaboration portal: articles
// authored by scholars and the onboarding flow that turns an ordinary
// member into one.
package scholars

import "time"

// Article statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Article is a research article. Body is HTML, sanitized on write; it is
// stored and served clean.
type Article struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArticleSummary is the list view of an article: no body, author display
// name joined in.
type ArticleSummary struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ArticleInput is the validated input for writing or editing an article.
type ArticleInput struct {
	Title string `json:"title" form:"title"`
	Body  string `json:"body" form:"body"`
}

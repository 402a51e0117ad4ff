// Package sanitize provides HTML sanitization for user-generated content.
// Uses bluemonday to strip dangerous HTML (script tags, event handlers,
// javascript: URLs) while preserving safe formatting in scholar articles
// and support-ticket messages.
package sanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy for sanitizing user-generated HTML.
// Initialized once via sync.Once for thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()

		// Allow class attributes -- the article editor uses classes for text
		// alignment and code blocks.
		policy.AllowAttrs("class").Globally()

		// Allow table elements for research articles with tabular data
		// (manuscript catalogs, date concordances).
		policy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "td", "th", "colgroup", "col", "caption")
		policy.AllowAttrs("colspan", "rowspan").OnElements("td", "th")

		// Allow footnote anchors emitted by the editor.
		policy.AllowAttrs("data-footnote-id").OnElements("a", "sup")
	})
	return policy
}

// HTML sanitizes a user-supplied HTML fragment, returning only safe markup.
func HTML(input string) string {
	return getPolicy().Sanitize(input)
}

// StrictText strips ALL HTML, returning plain text. Used for fields that
// must never contain markup (titles, subjects, display names).
func StrictText(input string) string {
	return bluemonday.StrictPolicy().Sanitize(input)
}

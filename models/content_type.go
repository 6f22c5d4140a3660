// Package models defines the data structures shared by the analyzers
// and the analysis manager.
package models

// ContentType classifies a resource and drives analyzer selection.
type ContentType string

const (
	ContentTypeHTML    ContentType = "html"
	ContentTypeRSS     ContentType = "rss"
	ContentTypeAtom    ContentType = "atom"
	ContentTypeAPI     ContentType = "api"
	ContentTypePDF     ContentType = "pdf"
	ContentTypeUnknown ContentType = "unknown"
)

// SupportedContentTypes lists every content type the analyzer understands.
func SupportedContentTypes() []string {
	return []string{
		string(ContentTypeHTML),
		string(ContentTypeRSS),
		string(ContentTypeAtom),
		string(ContentTypeAPI),
		string(ContentTypePDF),
		string(ContentTypeUnknown),
	}
}

// AnalysisStatus is the terminal status of a single analysis.
type AnalysisStatus string

const (
	StatusSuccess AnalysisStatus = "success"
	StatusError   AnalysisStatus = "error"
	StatusTimeout AnalysisStatus = "timeout"
	StatusBlocked AnalysisStatus = "blocked"
	StatusPartial AnalysisStatus = "partial"
)

// FeedType identifies the flavor of a content feed.
type FeedType string

const (
	FeedTypeRSS  FeedType = "rss"
	FeedTypeAtom FeedType = "atom"
	FeedTypeJSON FeedType = "json"
)

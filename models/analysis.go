package models

import "time"

// PageAnalysis is the canonical record produced by a single analysis call.
// It is fully populated by one analyzer invocation and never mutated after.
type PageAnalysis struct {
	URL         string         `json:"url"`
	ContentType ContentType    `json:"content_type"`
	Status      AnalysisStatus `json:"status"`

	// Content data
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	MainContent string `json:"main_content,omitempty"`
	Summary     string `json:"summary,omitempty"`

	// Metadata
	Language      string     `json:"language,omitempty"`
	Author        string     `json:"author,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	LastModified  *time.Time `json:"last_modified,omitempty"`

	// Analysis results, each clamped to [0,1]
	RelevanceScore float64 `json:"relevance_score"`
	QualityScore   float64 `json:"quality_score"`
	FreshnessScore float64 `json:"freshness_score"`

	// Discovered resources
	FeedsDiscovered []string `json:"feeds_discovered,omitempty"`
	Images          []string `json:"images,omitempty"`
	ExternalLinks   []string `json:"external_links,omitempty"`

	// Technical details
	ResponseTime  float64 `json:"response_time"` // seconds
	ContentLength int     `json:"content_length"`
	StatusCode    int     `json:"status_code,omitempty"`
	ErrorMessage  string  `json:"error_message,omitempty"`

	// Processing metadata
	AnalyzedAt     time.Time `json:"analyzed_at"`
	ProcessingTime float64   `json:"processing_time"` // seconds
}

// Metadata projects the analysis down to its metadata-only view.
func (a PageAnalysis) Metadata() PageMetadata {
	return PageMetadata{
		URL:           a.URL,
		Title:         a.Title,
		Description:   a.Description,
		Language:      a.Language,
		Author:        a.Author,
		PublishedDate: a.PublishedDate,
		LastModified:  a.LastModified,
		ContentType:   a.ContentType,
		StatusCode:    a.StatusCode,
		ResponseTime:  a.ResponseTime,
		ContentLength: a.ContentLength,
		ErrorMessage:  a.ErrorMessage,
	}
}

// PageMetadata is basic page metadata without full content processing.
type PageMetadata struct {
	URL           string      `json:"url"`
	Title         string      `json:"title,omitempty"`
	Description   string      `json:"description,omitempty"`
	Language      string      `json:"language,omitempty"`
	Author        string      `json:"author,omitempty"`
	PublishedDate *time.Time  `json:"published_date,omitempty"`
	LastModified  *time.Time  `json:"last_modified,omitempty"`
	ContentType   ContentType `json:"content_type"`
	StatusCode    int         `json:"status_code,omitempty"`
	ResponseTime  float64     `json:"response_time"`
	ContentLength int         `json:"content_length"`
	ErrorMessage  string      `json:"error_message,omitempty"`
}

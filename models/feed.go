package models

import "time"

// FeedInfo describes a single discovered feed.
type FeedInfo struct {
	URL         string     `json:"url"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	FeedType    FeedType   `json:"feed_type"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	EntryCount  int        `json:"entry_count"`
	IsActive    bool       `json:"is_active"`
	Language    string     `json:"language,omitempty"`
}

// FeedDiscovery is the result of feed discovery on a page or domain.
type FeedDiscovery struct {
	SourceURL       string     `json:"source_url"`
	FeedsFound      []FeedInfo `json:"feeds_found"`
	DiscoveryMethod string     `json:"discovery_method"`
	TotalFeeds      int        `json:"total_feeds"`
	DiscoveryTime   float64    `json:"discovery_time"` // seconds
	ErrorMessage    string     `json:"error_message,omitempty"`
}

// Package manager coordinates content analysis: it classifies URLs, routes
// them to the right analyzer, and runs bounded-concurrency batches.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nsyc/page-analyzer/internal/common"
	"github.com/nsyc/page-analyzer/models"
	"github.com/nsyc/page-analyzer/pkg/analyzers"
)

// Version is the analyzer version reported by Status.
const Version = "1.0.0"

const (
	maxBatchSize   = 50
	maxConcurrency = 10

	// quickMetadataTimeout caps the fetch for quick metadata lookups.
	quickMetadataTimeout = 10
)

// feedPathPatterns and apiPathPatterns drive URL classification, checked in
// that order against the lowercased URL.
var feedPathPatterns = []string{"/feed", "/rss", "/atom", ".rss", ".xml", ".atom"}

var apiPathPatterns = []string{"/api/", "/v1/", "/v2/", "/json", ".json"}

// ValidationError reports a caller-contract violation on a batch request.
// It is the only condition the manager surfaces as an error return; per-URL
// failures are data in the batch response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AnalysisManager owns the three analyzers and the base configuration. The
// base config is never mutated; each call overlays its options onto a copy.
type AnalysisManager struct {
	cfg    models.AnalysisConfig
	html   *analyzers.HTMLAnalyzer
	feed   *analyzers.FeedAnalyzer
	api    *analyzers.APIAnalyzer
	logger *slog.Logger
}

// New builds a manager around a base configuration.
func New(cfg models.AnalysisConfig, logger *slog.Logger) *AnalysisManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisManager{
		cfg:    cfg.Normalize(),
		html:   analyzers.NewHTMLAnalyzer(),
		feed:   analyzers.NewFeedAnalyzer(),
		api:    analyzers.NewAPIAnalyzer(),
		logger: logger,
	}
}

// Close releases every analyzer's resources.
func (m *AnalysisManager) Close() {
	m.html.Close()
	m.feed.Close()
	m.api.Close()
}

// Config returns the manager's base configuration.
func (m *AnalysisManager) Config() models.AnalysisConfig {
	return m.cfg
}

// Classify determines the content type of a URL. A recognized hint always
// wins; otherwise only the URL path is matched against feed patterns, then
// API patterns, so hosts and query strings never trigger a match. Everything
// else is treated as HTML.
func (m *AnalysisManager) Classify(rawURL, hint string) models.ContentType {
	if hint != "" {
		switch models.ContentType(strings.ToLower(hint)) {
		case models.ContentTypeHTML, models.ContentTypeRSS,
			models.ContentTypeAtom, models.ContentTypeAPI:
			return models.ContentType(strings.ToLower(hint))
		}
	}

	var path string
	if parsed, err := url.Parse(rawURL); err == nil {
		path = strings.ToLower(parsed.Path)
	}

	for _, pattern := range feedPathPatterns {
		if strings.Contains(path, pattern) {
			if strings.Contains(path, "atom") {
				return models.ContentTypeAtom
			}
			return models.ContentTypeRSS
		}
	}

	for _, pattern := range apiPathPatterns {
		if strings.Contains(path, pattern) {
			return models.ContentTypeAPI
		}
	}

	return models.ContentTypeHTML
}

// Analyze runs a full analysis of one URL. All failures, including panics in
// an analyzer, become terminal error records; Analyze never returns an error.
func (m *AnalysisManager) Analyze(ctx context.Context, rawURL string, options map[string]any) (result models.PageAnalysis) {
	start := time.Now()
	cfg := m.cfg.WithOptions(options)
	cleaned := common.SanitizeURL(rawURL)

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("analysis panicked", "url", cleaned, "panic", r)
			result = models.PageAnalysis{
				URL:            cleaned,
				ContentType:    models.ContentTypeUnknown,
				Status:         models.StatusError,
				ErrorMessage:   fmt.Sprintf("internal error: %v", r),
				AnalyzedAt:     time.Now(),
				ProcessingTime: time.Since(start).Seconds(),
			}
		}
	}()

	contentType := m.Classify(cleaned, optionString(options, "content_type"))
	m.logger.Info("analyzing page", "url", cleaned, "content_type", contentType)

	switch contentType {
	case models.ContentTypeRSS, models.ContentTypeAtom:
		result = m.feed.Analyze(ctx, cleaned, cfg)
	case models.ContentTypeAPI:
		result = m.api.AnalyzeAsPage(ctx, cleaned, cfg)
	default:
		result = m.html.Analyze(ctx, cleaned, cfg)
	}

	if result.Status != models.StatusSuccess {
		m.logger.Warn("analysis failed",
			"url", cleaned,
			"status", result.Status,
			"error", result.ErrorMessage)
	}
	return result
}

// AnalyzeBatch analyzes up to 50 URLs with at most maxConcurrent in flight.
// Per-URL failures are reported in the response, not as an error return; the
// only error conditions are contract violations on the request itself.
func (m *AnalysisManager) AnalyzeBatch(ctx context.Context, urls []string, maxConcurrent int, options map[string]any) (models.BatchResponse, error) {
	if len(urls) == 0 {
		return models.BatchResponse{}, &ValidationError{Message: "no URLs provided"}
	}
	if len(urls) > maxBatchSize {
		return models.BatchResponse{}, &ValidationError{
			Message: fmt.Sprintf("too many URLs: %d exceeds the maximum of %d", len(urls), maxBatchSize),
		}
	}
	if maxConcurrent < 1 || maxConcurrent > maxConcurrency {
		return models.BatchResponse{}, &ValidationError{
			Message: fmt.Sprintf("max_concurrent must be between 1 and %d", maxConcurrency),
		}
	}

	start := time.Now()
	sanitized, invalid := common.SanitizeAndValidateURLs(urls)

	m.logger.Info("starting batch analysis",
		"total", len(urls),
		"invalid", len(invalid),
		"max_concurrent", maxConcurrent)

	results := make([]models.PageAnalysis, len(sanitized))
	sem := semaphore.NewWeighted(int64(maxConcurrent))
	var wg sync.WaitGroup

	for i, pageURL := range sanitized {
		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				results[idx] = models.PageAnalysis{
					URL:          u,
					ContentType:  models.ContentTypeUnknown,
					Status:       models.StatusError,
					ErrorMessage: err.Error(),
					AnalyzedAt:   time.Now(),
				}
				return
			}
			defer sem.Release(1)

			results[idx] = m.Analyze(ctx, u, options)
		}(i, pageURL)
	}
	wg.Wait()

	response := models.BatchResponse{
		TotalRequested:      len(urls),
		TotalProcessingTime: time.Since(start).Seconds(),
	}

	for _, rawURL := range invalid {
		response.FailedAnalyses++
		response.Errors = append(response.Errors, rawURL+": invalid URL")
	}

	for _, result := range results {
		if result.Status == models.StatusSuccess {
			response.SuccessfulAnalyses++
			response.Results = append(response.Results, result)
			continue
		}
		response.FailedAnalyses++
		response.Errors = append(response.Errors, result.URL+": "+result.ErrorMessage)
	}

	m.logger.Info("batch analysis complete",
		"successful", response.SuccessfulAnalyses,
		"failed", response.FailedAnalyses,
		"elapsed", response.TotalProcessingTime)

	return response, nil
}

// ExtractFeeds discovers the feeds reachable from a URL. Depth is clamped to
// its documented 1-5 range.
func (m *AnalysisManager) ExtractFeeds(ctx context.Context, rawURL string, depth int, validateFeeds bool) models.FeedDiscovery {
	cfg := m.cfg
	cfg.FeedDiscoveryDepth = depth
	cfg.ValidateFeeds = validateFeeds
	return m.feed.DiscoverFeeds(ctx, common.SanitizeURL(rawURL), cfg.Normalize())
}

// AnalyzeAPIResponse analyzes structured API data. When data is nil the
// endpoint is fetched first.
func (m *AnalysisManager) AnalyzeAPIResponse(ctx context.Context, endpointURL string, data any, schemaHint string) models.ApiAnalysis {
	return m.api.AnalyzeResponse(ctx, common.SanitizeURL(endpointURL), data, schemaHint, m.cfg)
}

// GetPageMetadata extracts page metadata. In quick mode only the head of the
// page is inspected under a short timeout; otherwise a full analysis runs and
// is projected down to its metadata.
func (m *AnalysisManager) GetPageMetadata(ctx context.Context, rawURL string, quick bool) models.PageMetadata {
	cleaned := common.SanitizeURL(rawURL)

	if quick {
		cfg := m.cfg
		cfg.Timeout = quickMetadataTimeout
		cfg.ExtractMainContent = false
		cfg.ExtractLinks = false
		cfg.ExtractImages = false
		cfg.DiscoverFeeds = false
		cfg.CalculateScores = false
		return m.html.AnalyzeMetadata(ctx, cleaned, cfg.Normalize())
	}

	return m.Analyze(ctx, cleaned, nil).Metadata()
}

// Status reports the analyzer's capabilities and current base configuration.
func (m *AnalysisManager) Status() models.AnalyzerStatus {
	return models.AnalyzerStatus{
		Version:               Version,
		SupportedContentTypes: models.SupportedContentTypes(),
		AvailableExtractors:   []string{"html", "feed", "api"},
		Config:                m.cfg,
		Features: map[string]bool{
			"content_extraction":  m.cfg.ExtractMainContent,
			"metadata_extraction": m.cfg.ExtractMetadata,
			"feed_discovery":      m.cfg.DiscoverFeeds,
			"language_detection":  m.cfg.DetectLanguage,
			"scoring":             m.cfg.CalculateScores,
			"batch_analysis":      true,
			"api_analysis":        true,
			"feed_validation":     m.cfg.ValidateFeeds,
			"redirect_following":  m.cfg.FollowRedirects,
			"image_extraction":    m.cfg.ExtractImages,
			"link_extraction":     m.cfg.ExtractLinks,
		},
	}
}

func optionString(options map[string]any, key string) string {
	if options == nil {
		return ""
	}
	if v, ok := options[key].(string); ok {
		return v
	}
	return ""
}

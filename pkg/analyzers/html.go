// Package analyzers contains the specialized content analyzers: HTML pages,
// RSS/Atom feeds, and structured API responses. Each analyzer owns one
// long-lived fetch handle and takes an immutable request-scoped config on
// every call.
package analyzers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"

	"github.com/nsyc/page-analyzer/models"
	"github.com/nsyc/page-analyzer/pkg/fetcher"
	"github.com/nsyc/page-analyzer/pkg/langdetect"
	"github.com/nsyc/page-analyzer/pkg/scoring"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 500
	maxAuthorLength      = 100
	maxSummaryLength     = 300
	maxFeedsDiscovered   = 10
	maxImages            = 20
	maxExternalLinks     = 50
)

var whitespaceRe = regexp.MustCompile(`\s+`)

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

// metaSource is one candidate location for a piece of metadata. Sources are
// tried in order until the first non-empty hit.
type metaSource struct {
	selector string
	attr     string // empty means element text
}

var titleSources = []metaSource{
	{selector: "title"},
	{selector: `meta[property="og:title"]`, attr: "content"},
	{selector: `meta[name="twitter:title"]`, attr: "content"},
	{selector: "h1"},
}

var descriptionSources = []metaSource{
	{selector: `meta[name="description"]`, attr: "content"},
	{selector: `meta[property="og:description"]`, attr: "content"},
	{selector: `meta[name="twitter:description"]`, attr: "content"},
}

var authorSources = []metaSource{
	{selector: `meta[name="author"]`, attr: "content"},
	{selector: `meta[property="article:author"]`, attr: "content"},
	{selector: `meta[name="twitter:creator"]`, attr: "content"},
	{selector: `[rel="author"]`},
	{selector: ".author"},
	{selector: ".byline"},
}

var publishedDateSources = []metaSource{
	{selector: `meta[property="article:published_time"]`, attr: "content"},
	{selector: `meta[name="date"]`, attr: "content"},
	{selector: `meta[name="publishdate"]`, attr: "content"},
	{selector: "time[datetime]", attr: "datetime"},
	{selector: "[datetime]", attr: "datetime"},
}

var modifiedDateSources = []metaSource{
	{selector: `meta[property="article:modified_time"]`, attr: "content"},
	{selector: `meta[name="last-modified"]`, attr: "content"},
}

// commonFeedPaths are conventional feed locations probed at the domain root.
var commonFeedPaths = []string{
	"/feed", "/rss", "/rss.xml", "/atom.xml", "/feeds/all.atom.xml",
}

// HTMLAnalyzer extracts content, metadata, and resources from HTML pages.
type HTMLAnalyzer struct {
	fetcher *fetcher.Fetcher
}

// NewHTMLAnalyzer opens an HTML analyzer with its own fetch handle.
func NewHTMLAnalyzer() *HTMLAnalyzer {
	return &HTMLAnalyzer{fetcher: fetcher.New()}
}

// Close releases the analyzer's fetch handle.
func (a *HTMLAnalyzer) Close() {
	a.fetcher.Close()
}

// Analyze fetches an HTML page and produces a full analysis record. Fetch and
// parse failures are converted into terminal records; no error escapes.
func (a *HTMLAnalyzer) Analyze(ctx context.Context, pageURL string, cfg models.AnalysisConfig) models.PageAnalysis {
	start := time.Now()

	resp, err := a.fetcher.Get(ctx, pageURL, cfg)
	if err != nil {
		return fetchErrorResult(pageURL, models.ContentTypeHTML, err, start)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return errorResult(pageURL, models.ContentTypeHTML, "failed to parse HTML: "+err.Error(), start)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return errorResult(pageURL, models.ContentTypeHTML, "invalid URL: "+err.Error(), start)
	}

	title := extractFirst(doc, titleSources, maxTitleLength)
	description := extractFirst(doc, descriptionSources, maxDescriptionLength)

	mainContent := a.extractMainContent(string(resp.Body), base, cfg)
	summary := summarize(mainContent)

	author := extractFirst(doc, authorSources, maxAuthorLength)
	publishedDate := extractDate(doc, publishedDateSources)
	lastModified := extractLastModified(doc, resp.Headers)

	var language string
	if cfg.DetectLanguage {
		language = langdetect.Detect(firstNonEmpty(mainContent, title))
	}

	analysis := models.PageAnalysis{
		URL:            pageURL,
		ContentType:    models.ContentTypeHTML,
		Status:         models.StatusSuccess,
		Title:          title,
		Description:    description,
		MainContent:    mainContent,
		Summary:        summary,
		Language:       language,
		Author:         author,
		PublishedDate:  publishedDate,
		LastModified:   lastModified,
		ResponseTime:   resp.Elapsed.Seconds(),
		ContentLength:  len(resp.Body),
		StatusCode:     resp.StatusCode,
		AnalyzedAt:     time.Now(),
		ProcessingTime: time.Since(start).Seconds(),
	}

	if cfg.CalculateScores {
		analysis.RelevanceScore = relevanceScore(title, description, mainContent)
		analysis.QualityScore = qualityScore(mainContent, doc, len(resp.Body))
		analysis.FreshnessScore = freshnessScore(publishedDate, lastModified)
	}

	if cfg.DiscoverFeeds {
		analysis.FeedsDiscovered = discoverFeedLinks(doc, base, maxFeedsDiscovered)
	}
	if cfg.ExtractImages {
		analysis.Images = extractImages(doc, base)
	}
	if cfg.ExtractLinks {
		analysis.ExternalLinks = extractExternalLinks(doc, base)
	}

	analysis.ProcessingTime = time.Since(start).Seconds()
	return analysis
}

// AnalyzeMetadata fetches a page and extracts only its basic metadata. Used
// by the manager's quick metadata mode.
func (a *HTMLAnalyzer) AnalyzeMetadata(ctx context.Context, pageURL string, cfg models.AnalysisConfig) models.PageMetadata {
	resp, err := a.fetcher.Get(ctx, pageURL, cfg)
	if err != nil {
		return models.PageMetadata{
			URL:          pageURL,
			ContentType:  models.ContentTypeUnknown,
			ErrorMessage: "Failed to fetch page: " + err.Error(),
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return models.PageMetadata{
			URL:          pageURL,
			ContentType:  models.ContentTypeUnknown,
			ErrorMessage: "failed to parse HTML: " + err.Error(),
		}
	}

	title := extractFirst(doc, titleSources, maxTitleLength)
	description := extractFirst(doc, descriptionSources, maxDescriptionLength)

	var language string
	if cfg.DetectLanguage {
		language = langdetect.Detect(firstNonEmpty(title, description))
	}

	return models.PageMetadata{
		URL:           pageURL,
		Title:         title,
		Description:   description,
		Language:      language,
		Author:        extractFirst(doc, authorSources, maxAuthorLength),
		PublishedDate: extractDate(doc, publishedDateSources),
		LastModified:  extractLastModified(doc, resp.Headers),
		ContentType:   models.ContentTypeHTML,
		StatusCode:    resp.StatusCode,
		ResponseTime:  resp.Elapsed.Seconds(),
		ContentLength: len(resp.Body),
	}
}

// extractMainContent runs readability over the raw markup, strips boilerplate
// tags from the result, and collapses whitespace. Results below the
// configured minimum length are rejected.
func (a *HTMLAnalyzer) extractMainContent(rawHTML string, base *url.URL, cfg models.AnalysisConfig) string {
	if !cfg.ExtractMainContent {
		return ""
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(rawHTML), base)
	if err != nil || article.Content == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return ""
	}
	doc.Find("script,style,nav,footer,aside").Remove()

	text := whitespaceRe.ReplaceAllString(strings.TrimSpace(doc.Text()), " ")
	if len(text) < cfg.MinContentLength {
		return ""
	}
	return text
}

// extractFirst walks an ordered source list and returns the first non-empty
// value, trimmed and capped.
func extractFirst(doc *goquery.Document, sources []metaSource, maxLen int) string {
	for _, src := range sources {
		sel := doc.Find(src.selector).First()
		if sel.Length() == 0 {
			continue
		}

		var value string
		if src.attr != "" {
			value = sel.AttrOr(src.attr, "")
		} else {
			value = sel.Text()
		}

		value = strings.TrimSpace(value)
		if value != "" {
			return truncate(value, maxLen)
		}
	}
	return ""
}

// extractDate tries each source in order and returns the first value the
// tolerant date parser accepts.
func extractDate(doc *goquery.Document, sources []metaSource) *time.Time {
	for _, src := range sources {
		sel := doc.Find(src.selector).First()
		if sel.Length() == 0 {
			continue
		}

		raw := sel.AttrOr(src.attr, "")
		if raw == "" && src.attr == "" {
			raw = sel.Text()
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		if t, err := dateparse.ParseAny(raw); err == nil {
			return &t
		}
	}
	return nil
}

// extractLastModified checks meta tags first, then the Last-Modified header.
func extractLastModified(doc *goquery.Document, headers http.Header) *time.Time {
	if t := extractDate(doc, modifiedDateSources); t != nil {
		return t
	}

	if raw := headers.Get("Last-Modified"); raw != "" {
		if t, err := dateparse.ParseAny(raw); err == nil {
			return &t
		}
	}
	return nil
}

// summarize concatenates leading sentences of the content up to 300 chars.
func summarize(content string) string {
	if content == "" {
		return ""
	}

	var summary strings.Builder
	for _, sentence := range sentenceSplitRe.Split(content, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if summary.Len()+len(sentence) > maxSummaryLength {
			break
		}
		summary.WriteString(sentence)
		summary.WriteString(". ")
	}
	return strings.TrimSpace(summary.String())
}

func relevanceScore(title, description, content string) float64 {
	score := 0.0

	if len(title) > 10 {
		score += 0.2
	}
	if len(description) > 20 {
		score += 0.2
	}

	if content != "" {
		switch {
		case len(content) >= 500:
			score += 0.4
		case len(content) >= 200:
			score += 0.2
		}

		meaningful := 0
		for _, sentence := range sentenceSplitRe.Split(content, -1) {
			if len(strings.TrimSpace(sentence)) > 20 {
				meaningful++
			}
		}
		if meaningful >= 3 {
			score += 0.2
		}
	}

	return scoring.Clamp01(score)
}

func qualityScore(content string, doc *goquery.Document, rawLength int) float64 {
	score := 0.0

	if doc.Find("main,article").Length() > 0 {
		score += 0.2
	}
	if doc.Find("h1,h2,h3,h4,h5,h6").Length() > 0 {
		score += 0.2
	}

	if content != "" {
		if rawLength > 0 && float64(len(content))/float64(rawLength) > 0.1 {
			score += 0.3
		}
		if doc.Find("ul,ol").Length() > 0 {
			score += 0.1
		}
		if doc.Find("img[alt]").Length() > 0 {
			score += 0.2
		}
	}

	return scoring.Clamp01(score)
}

// freshnessScore buckets the age of the most recent known date.
func freshnessScore(published, modified *time.Time) float64 {
	mostRecent := modified
	if mostRecent == nil {
		mostRecent = published
	}
	return scoring.Freshness(mostRecent)
}

// discoverFeedLinks collects <link rel="alternate"> feed hints plus the
// conventional probe paths, resolved and de-duplicated.
func discoverFeedLinks(doc *goquery.Document, base *url.URL, limit int) []string {
	var feeds []string
	seen := make(map[string]struct{})

	add := func(feedURL string) {
		if feedURL == "" {
			return
		}
		if _, dup := seen[feedURL]; dup {
			return
		}
		seen[feedURL] = struct{}{}
		feeds = append(feeds, feedURL)
	}

	doc.Find("link").Each(func(_ int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		if !strings.Contains(strings.ToLower(rel), "alternate") {
			return
		}

		linkType := strings.ToLower(s.AttrOr("type", ""))
		if !isFeedType(linkType) {
			return
		}

		if href, ok := s.Attr("href"); ok {
			add(resolveURL(base, href))
		}
	})

	root := base.Scheme + "://" + base.Host
	for _, path := range commonFeedPaths {
		add(root + path)
	}

	if len(feeds) > limit {
		feeds = feeds[:limit]
	}
	return feeds
}

func extractImages(doc *goquery.Document, base *url.URL) []string {
	var images []string
	seen := make(map[string]struct{})

	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := resolveURL(base, s.AttrOr("src", ""))
		if src == "" {
			return true
		}
		if _, dup := seen[src]; dup {
			return true
		}
		seen[src] = struct{}{}
		images = append(images, src)
		return len(images) < maxImages
	})

	return images
}

func extractExternalLinks(doc *goquery.Document, base *url.URL) []string {
	var links []string
	seen := make(map[string]struct{})

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		resolved := resolveURL(base, s.AttrOr("href", ""))
		if resolved == "" {
			return true
		}

		parsed, err := url.Parse(resolved)
		if err != nil || parsed.Host == "" || parsed.Host == base.Host {
			return true
		}

		if _, dup := seen[resolved]; dup {
			return true
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
		return len(links) < maxExternalLinks
	})

	return links
}

// isFeedType reports whether a link type attribute hints at a feed.
func isFeedType(linkType string) bool {
	for _, hint := range []string{"rss", "atom", "xml", "feed"} {
		if strings.Contains(linkType, hint) {
			return true
		}
	}
	return false
}

// resolveURL resolves a possibly relative href against the page URL.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// fetchErrorResult maps fetch failures onto their terminal statuses: timeout,
// HTTP status error, or a plain fetch error.
func fetchErrorResult(pageURL string, contentType models.ContentType, err error, start time.Time) models.PageAnalysis {
	status := models.StatusError
	message := err.Error()

	var statusErr *fetcher.StatusError
	switch {
	case fetcher.IsTimeout(err):
		status = models.StatusTimeout
		message = "Request timeout"
	case errors.As(err, &statusErr):
		message = statusErr.Error()
	}

	result := errorResult(pageURL, contentType, message, start)
	result.Status = status
	return result
}

// errorResult builds a terminal error record.
func errorResult(pageURL string, contentType models.ContentType, message string, start time.Time) models.PageAnalysis {
	return models.PageAnalysis{
		URL:            pageURL,
		ContentType:    contentType,
		Status:         models.StatusError,
		ErrorMessage:   message,
		AnalyzedAt:     time.Now(),
		ProcessingTime: time.Since(start).Seconds(),
	}
}

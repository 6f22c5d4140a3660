package analyzers

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/nsyc/page-analyzer/models"
	"github.com/nsyc/page-analyzer/pkg/fetcher"
	"github.com/nsyc/page-analyzer/pkg/langdetect"
	"github.com/nsyc/page-analyzer/pkg/scoring"
)

const (
	maxContentEntries = 10
	maxSummaryEntries = 3
	maxEntryLinks     = 20
	maxFeedsValidated = 10

	// activeWindow is how recent an entry must be for the feed to count as
	// actively publishing.
	activeWindow = 30 * 24 * time.Hour
)

// discoveryFeedPaths are the conventional locations probed during feed
// discovery, beyond whatever the page itself advertises.
var discoveryFeedPaths = []string{
	"/feed", "/feeds", "/rss", "/rss.xml", "/atom.xml",
	"/feeds/all.atom.xml", "/index.xml", "/feed.xml",
}

// FeedAnalyzer analyzes RSS, Atom, and JSON feeds and discovers feeds
// advertised by HTML pages.
type FeedAnalyzer struct {
	fetcher *fetcher.Fetcher
	parser  *gofeed.Parser
}

// NewFeedAnalyzer opens a feed analyzer with its own fetch handle.
func NewFeedAnalyzer() *FeedAnalyzer {
	return &FeedAnalyzer{
		fetcher: fetcher.New(),
		parser:  gofeed.NewParser(),
	}
}

// Close releases the analyzer's fetch handle.
func (a *FeedAnalyzer) Close() {
	a.fetcher.Close()
}

// Analyze fetches and parses a feed URL into a full analysis record. Parse
// failures produce a terminal error record, never a panic or error return.
func (a *FeedAnalyzer) Analyze(ctx context.Context, feedURL string, cfg models.AnalysisConfig) models.PageAnalysis {
	start := time.Now()

	resp, err := a.fetcher.Get(ctx, feedURL, cfg)
	if err != nil {
		return fetchErrorResult(feedURL, models.ContentTypeRSS, err, start)
	}

	feed, err := a.parser.ParseString(string(resp.Body))
	if err != nil || feed == nil {
		return errorResult(feedURL, models.ContentTypeRSS, "Invalid or empty feed", start)
	}

	feedType := resolveFeedType(resp.Headers.Get("Content-Type"), feed.FeedType)

	contentType := models.ContentTypeRSS
	if feedType == models.FeedTypeAtom {
		contentType = models.ContentTypeAtom
	}

	title := truncate(strings.TrimSpace(feed.Title), maxTitleLength)
	description := truncate(strings.TrimSpace(feed.Description), maxDescriptionLength)

	language := strings.TrimSpace(feed.Language)
	if language == "" && cfg.DetectLanguage {
		language = langdetect.Detect(title + " " + description)
	}

	analysis := models.PageAnalysis{
		URL:            feedURL,
		ContentType:    contentType,
		Status:         models.StatusSuccess,
		Title:          title,
		Description:    description,
		MainContent:    feedContent(feed),
		Summary:        feedSummary(feed),
		Language:       language,
		PublishedDate:  feedPublished(feed),
		LastModified:   feed.UpdatedParsed,
		ResponseTime:   resp.Elapsed.Seconds(),
		ContentLength:  len(resp.Body),
		StatusCode:     resp.StatusCode,
		AnalyzedAt:     time.Now(),
		ProcessingTime: time.Since(start).Seconds(),
	}

	if cfg.CalculateScores {
		analysis.RelevanceScore = feedRelevanceScore(feed)
		analysis.QualityScore = feedQualityScore(feed)
		analysis.FreshnessScore = feedFreshnessScore(feed)
	}

	if cfg.ExtractLinks {
		analysis.ExternalLinks = entryLinks(feed)
	}

	analysis.ProcessingTime = time.Since(start).Seconds()
	return analysis
}

// DiscoverFeeds finds the feeds reachable from a URL. A URL that is itself a
// valid feed yields a single direct result; otherwise the page is scanned for
// advertised feed links and conventional paths are probed.
func (a *FeedAnalyzer) DiscoverFeeds(ctx context.Context, sourceURL string, cfg models.AnalysisConfig) models.FeedDiscovery {
	start := time.Now()

	if info, ok := a.probeFeed(ctx, sourceURL, cfg); ok {
		return models.FeedDiscovery{
			SourceURL:       sourceURL,
			FeedsFound:      []models.FeedInfo{info},
			DiscoveryMethod: "direct",
			TotalFeeds:      1,
			DiscoveryTime:   time.Since(start).Seconds(),
		}
	}

	resp, err := a.fetcher.Get(ctx, sourceURL, cfg)
	if err != nil {
		return models.FeedDiscovery{
			SourceURL:     sourceURL,
			DiscoveryTime: time.Since(start).Seconds(),
			ErrorMessage:  "Failed to fetch page: " + err.Error(),
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.Body)))
	if err != nil {
		return models.FeedDiscovery{
			SourceURL:     sourceURL,
			DiscoveryTime: time.Since(start).Seconds(),
			ErrorMessage:  "failed to parse HTML: " + err.Error(),
		}
	}

	candidates := a.collectCandidates(doc, sourceURL)

	var found []models.FeedInfo
	for _, candidate := range candidates {
		if len(found) >= maxFeedsValidated {
			break
		}

		if !cfg.ValidateFeeds {
			found = append(found, models.FeedInfo{URL: candidate, FeedType: models.FeedTypeRSS})
			continue
		}
		if info, ok := a.probeFeed(ctx, candidate, cfg); ok {
			found = append(found, info)
		}
	}

	return models.FeedDiscovery{
		SourceURL:       sourceURL,
		FeedsFound:      found,
		DiscoveryMethod: "html_scan",
		TotalFeeds:      len(found),
		DiscoveryTime:   time.Since(start).Seconds(),
	}
}

// probeFeed fetches a candidate URL and reports whether it parses as a feed.
func (a *FeedAnalyzer) probeFeed(ctx context.Context, feedURL string, cfg models.AnalysisConfig) (models.FeedInfo, bool) {
	resp, err := a.fetcher.Get(ctx, feedURL, cfg)
	if err != nil {
		return models.FeedInfo{}, false
	}

	feed, err := a.parser.ParseString(string(resp.Body))
	if err != nil || feed == nil {
		return models.FeedInfo{}, false
	}

	return models.FeedInfo{
		URL:         feedURL,
		Title:       truncate(strings.TrimSpace(feed.Title), maxTitleLength),
		Description: truncate(strings.TrimSpace(feed.Description), maxDescriptionLength),
		FeedType:    resolveFeedType(resp.Headers.Get("Content-Type"), feed.FeedType),
		LastUpdated: feed.UpdatedParsed,
		EntryCount:  len(feed.Items),
		IsActive:    feedIsActive(feed),
		Language:    strings.TrimSpace(feed.Language),
	}, true
}

// collectCandidates gathers advertised feed links from the document plus the
// conventional probe paths, de-duplicated in order.
func (a *FeedAnalyzer) collectCandidates(doc *goquery.Document, sourceURL string) []string {
	var candidates []string
	seen := make(map[string]struct{})

	add := func(candidate string) {
		if candidate == "" {
			return
		}
		if _, dup := seen[candidate]; dup {
			return
		}
		seen[candidate] = struct{}{}
		candidates = append(candidates, candidate)
	}

	base, err := url.Parse(sourceURL)
	if err != nil {
		return nil
	}

	doc.Find("link").Each(func(_ int, s *goquery.Selection) {
		rel := strings.ToLower(s.AttrOr("rel", ""))
		if !strings.Contains(rel, "alternate") {
			return
		}
		if !isFeedType(strings.ToLower(s.AttrOr("type", ""))) {
			return
		}
		add(resolveURL(base, s.AttrOr("href", "")))
	})

	root := base.Scheme + "://" + base.Host
	for _, path := range discoveryFeedPaths {
		add(root + path)
	}

	return candidates
}

// feedContent renders the leading entries as readable text.
func feedContent(feed *gofeed.Feed) string {
	var parts []string
	for i, item := range feed.Items {
		if i >= maxContentEntries {
			break
		}

		body := truncate(stripMarkup(itemBody(item)), maxDescriptionLength)
		entry := "Title: " + strings.TrimSpace(item.Title)
		if body != "" {
			entry += "\n" + body
		}
		parts = append(parts, entry)
	}
	return strings.Join(parts, "\n\n")
}

func feedSummary(feed *gofeed.Feed) string {
	if len(feed.Items) == 0 {
		return ""
	}

	var titles []string
	for i, item := range feed.Items {
		if i >= maxSummaryEntries {
			break
		}
		if title := strings.TrimSpace(item.Title); title != "" {
			titles = append(titles, title)
		}
	}
	return truncate("Recent entries: "+strings.Join(titles, "; "), maxSummaryLength)
}

func feedPublished(feed *gofeed.Feed) *time.Time {
	if feed.PublishedParsed != nil {
		return feed.PublishedParsed
	}
	return feed.UpdatedParsed
}

// entryLinks collects the leading entry links, de-duplicated.
func entryLinks(feed *gofeed.Feed) []string {
	var links []string
	seen := make(map[string]struct{})

	for _, item := range feed.Items {
		if len(links) >= maxEntryLinks {
			break
		}

		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links
}

func feedRelevanceScore(feed *gofeed.Feed) float64 {
	score := 0.0

	if strings.TrimSpace(feed.Title) != "" {
		score += 0.2
	}
	if strings.TrimSpace(feed.Description) != "" {
		score += 0.2
	}

	entries := len(feed.Items)
	if entries > 0 {
		score += 0.3
	}
	if entries >= 5 {
		score += 0.1
	}
	if entries >= 10 {
		score += 0.1
	}

	for i, item := range feed.Items {
		if i >= 5 {
			break
		}
		if len(stripMarkup(itemBody(item))) > 100 {
			score += 0.1
			break
		}
	}

	return scoring.Clamp01(score)
}

func feedQualityScore(feed *gofeed.Feed) float64 {
	score := 0.0

	if len(strings.TrimSpace(feed.Title)) > 5 {
		score += 0.2
	}
	if len(strings.TrimSpace(feed.Description)) > 20 {
		score += 0.2
	}
	if strings.TrimSpace(feed.Link) != "" {
		score += 0.1
	}

	considered := 0
	complete := 0
	for i, item := range feed.Items {
		if i >= maxContentEntries {
			break
		}
		considered++

		fields := 0
		if strings.TrimSpace(item.Title) != "" {
			fields++
		}
		if len(stripMarkup(itemBody(item))) > 50 {
			fields++
		}
		if itemDate(item) != nil {
			fields++
		}
		if strings.TrimSpace(item.Link) != "" {
			fields++
		}
		if fields >= 3 {
			complete++
		}
	}
	if considered > 0 {
		score += 0.5 * float64(complete) / float64(considered)
	}

	return scoring.Clamp01(score)
}

// feedFreshnessScore averages the recency weights of the leading dated
// entries. A feed with no dated entries scores zero.
func feedFreshnessScore(feed *gofeed.Feed) float64 {
	total := 0.0
	dated := 0
	for i, item := range feed.Items {
		if i >= maxContentEntries {
			break
		}
		if t := itemDate(item); t != nil {
			total += scoring.RecencyWeight(scoring.DaysSince(*t))
			dated++
		}
	}
	if dated == 0 {
		return 0
	}
	return scoring.Clamp01(total / float64(dated))
}

// feedIsActive reports whether any of the leading entries is recent enough
// for the feed to count as actively publishing.
func feedIsActive(feed *gofeed.Feed) bool {
	cutoff := time.Now().Add(-activeWindow)
	for i, item := range feed.Items {
		if i >= 5 {
			break
		}
		if t := itemDate(item); t != nil && t.After(cutoff) {
			return true
		}
	}
	return false
}

func itemBody(item *gofeed.Item) string {
	if strings.TrimSpace(item.Content) != "" {
		return item.Content
	}
	return item.Description
}

func itemDate(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}

// resolveFeedType picks the feed flavor: the HTTP content type wins, then the
// parser's own verdict, then rss as the default.
func resolveFeedType(contentTypeHeader, parsedType string) models.FeedType {
	header := strings.ToLower(contentTypeHeader)
	switch {
	case strings.Contains(header, "json"):
		return models.FeedTypeJSON
	case strings.Contains(header, "atom"):
		return models.FeedTypeAtom
	case strings.Contains(header, "rss"), strings.Contains(header, "xml"):
		return models.FeedTypeRSS
	}

	switch strings.ToLower(parsedType) {
	case "atom":
		return models.FeedTypeAtom
	case "json":
		return models.FeedTypeJSON
	}
	return models.FeedTypeRSS
}

// stripMarkup flattens HTML to whitespace-collapsed text.
func stripMarkup(markup string) string {
	markup = strings.TrimSpace(markup)
	if markup == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup
	}
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(doc.Text()), " ")
}

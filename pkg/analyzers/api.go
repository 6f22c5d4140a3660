package analyzers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/nsyc/page-analyzer/models"
	"github.com/nsyc/page-analyzer/pkg/fetcher"
	"github.com/nsyc/page-analyzer/pkg/scoring"
)

const (
	maxAPIRecords        = 100
	maxContainerRecords  = 50
	maxMarkupElements    = 20
	maxRecordContent     = 1000
	maxMetadataValue     = 100
	maxContentRecords    = 20
	maxSummaryTitles     = 5
	structureKeyPreview  = 5
	richnessSampleSize   = 10
	consistencySample    = 5
	freshnessRecordDates = 10
)

// containerFields are the wrapper keys commonly holding the record list in
// API envelopes, tried in order.
var containerFields = []string{
	"items", "data", "results", "entries", "posts",
	"articles", "content", "records", "documents", "objects",
}

// Synonym tables mapping common API field names onto the canonical record
// slots. First present key wins.
var (
	titleFields   = []string{"title", "name", "headline", "subject", "summary"}
	contentFields = []string{"content", "description", "body", "text", "message"}
	urlFields     = []string{"url", "link", "href", "permalink"}
	dateFields    = []string{"date", "created_at", "updated_at", "published_at", "timestamp"}
	idFields      = []string{"id", "uuid", "key", "identifier"}
)

// APIAnalyzer analyzes structured API responses: JSON objects and arrays,
// with tolerant fallbacks for markup and plain text payloads.
type APIAnalyzer struct {
	fetcher *fetcher.Fetcher
}

// NewAPIAnalyzer opens an API analyzer with its own fetch handle.
func NewAPIAnalyzer() *APIAnalyzer {
	return &APIAnalyzer{fetcher: fetcher.New()}
}

// Close releases the analyzer's fetch handle.
func (a *APIAnalyzer) Close() {
	a.fetcher.Close()
}

// AnalyzeResponse analyzes API response data. When data is nil the endpoint
// is fetched and its body decoded as JSON, falling back to plain text. A
// non-empty schemaHint overrides schema detection.
func (a *APIAnalyzer) AnalyzeResponse(ctx context.Context, endpointURL string, data any, schemaHint string, cfg models.AnalysisConfig) models.ApiAnalysis {
	start := time.Now()

	if data == nil {
		fetched, err := a.fetchData(ctx, endpointURL, cfg)
		if err != nil {
			return models.ApiAnalysis{
				EndpointURL:    endpointURL,
				ProcessingTime: time.Since(start).Seconds(),
				ErrorMessage:   err.Error(),
			}
		}
		data = fetched
	}

	if emptyPayload(data) {
		return models.ApiAnalysis{
			EndpointURL:    endpointURL,
			ProcessingTime: time.Since(start).Seconds(),
			ErrorMessage:   "No data to analyze",
		}
	}

	records := extractRecords(data)

	return models.ApiAnalysis{
		EndpointURL:       endpointURL,
		ResponseStructure: classifyStructure(data),
		ExtractedContent:  records,
		SchemaDetected:    detectSchema(data, schemaHint),
		TotalRecords:      len(records),
		DataQuality:       dataQuality(records),
		ProcessingTime:    time.Since(start).Seconds(),
	}
}

// AnalyzeAsPage fetches an API endpoint and renders its data as a page
// analysis record, so API URLs fit the same pipeline as HTML and feeds.
func (a *APIAnalyzer) AnalyzeAsPage(ctx context.Context, endpointURL string, cfg models.AnalysisConfig) models.PageAnalysis {
	start := time.Now()

	resp, err := a.fetcher.Get(ctx, endpointURL, cfg)
	if err != nil {
		return fetchErrorResult(endpointURL, models.ContentTypeAPI, err, start)
	}

	data := decodeBody(resp.Body)
	records := extractRecords(data)
	quality := dataQuality(records)

	analysis := models.PageAnalysis{
		URL:            endpointURL,
		ContentType:    models.ContentTypeAPI,
		Status:         models.StatusSuccess,
		Title:          apiTitle(data, records),
		Description:    apiDescription(data, records),
		MainContent:    apiContent(records),
		Summary:        apiSummary(records),
		ResponseTime:   resp.Elapsed.Seconds(),
		ContentLength:  len(resp.Body),
		StatusCode:     resp.StatusCode,
		AnalyzedAt:     time.Now(),
		ProcessingTime: time.Since(start).Seconds(),
	}

	if cfg.CalculateScores {
		analysis.RelevanceScore = quality
		analysis.QualityScore = scoring.Clamp01(quality + 0.2)
		analysis.FreshnessScore = apiFreshnessScore(records)
	}

	if cfg.ExtractLinks {
		analysis.ExternalLinks = recordLinks(records)
	}

	analysis.ProcessingTime = time.Since(start).Seconds()
	return analysis
}

func (a *APIAnalyzer) fetchData(ctx context.Context, endpointURL string, cfg models.AnalysisConfig) (any, error) {
	resp, err := a.fetcher.Get(ctx, endpointURL, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch endpoint: %w", err)
	}
	return decodeBody(resp.Body), nil
}

// emptyPayload reports whether a decoded payload carries nothing to analyze.
func emptyPayload(data any) bool {
	switch v := data.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}

// decodeBody decodes a response body as JSON, falling back to the raw text.
func decodeBody(body []byte) any {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return string(body)
	}
	return data
}

// classifyStructure describes the top-level shape of the payload.
func classifyStructure(data any) string {
	switch v := data.(type) {
	case map[string]any:
		if len(v) == 0 {
			return "empty_object"
		}
		keys := sortedKeys(v)
		if len(keys) <= structureKeyPreview {
			return "object(" + strings.Join(keys, ", ") + ")"
		}
		return fmt.Sprintf("object(%d keys)", len(keys))
	case []any:
		if len(v) == 0 {
			return "empty_array"
		}
		return fmt.Sprintf("array(%d items, %s)", len(v), elementKind(v[0]))
	case string:
		trimmed := strings.TrimSpace(v)
		switch {
		case strings.HasPrefix(trimmed, "<?xml"):
			return "xml"
		case strings.HasPrefix(trimmed, "<"):
			return "html"
		default:
			return fmt.Sprintf("string(%d chars)", len(v))
		}
	case nil:
		return "null"
	default:
		return elementKind(v)
	}
}

func elementKind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return "unknown"
	}
}

// detectSchema names the payload's shape. A caller-provided hint always wins.
func detectSchema(data any, hint string) string {
	if hint != "" {
		return hint
	}

	switch v := data.(type) {
	case map[string]any:
		switch {
		case hasKeys(v, "items", "total") || hasKeys(v, "items", "page"):
			return "paginated_api"
		case hasKeys(v, "data", "meta"):
			return "jsonapi"
		case hasKeys(v, "results"):
			return "search_results"
		case hasKeys(v, "feed") || hasKeys(v, "entries"):
			return "feed_api"
		default:
			return "generic_object"
		}
	case []any:
		if len(v) > 0 {
			if _, ok := v[0].(map[string]any); ok {
				return "object_array"
			}
		}
		return "simple_array"
	case string:
		trimmed := strings.TrimSpace(v)
		switch {
		case strings.HasPrefix(trimmed, "<?xml"):
			return "xml"
		case strings.HasPrefix(trimmed, "<"):
			return "html"
		default:
			return "text"
		}
	default:
		return "unknown"
	}
}

// extractRecords pulls normalized records out of the payload, bounded at
// every level so adversarial payloads cannot blow up memory.
func extractRecords(data any) []models.APIRecord {
	var records []models.APIRecord

	switch v := data.(type) {
	case map[string]any:
		records = extractFromObject(v)
	case []any:
		records = extractFromList(v)
	case string:
		records = extractFromString(v)
	}

	if len(records) > maxAPIRecords {
		records = records[:maxAPIRecords]
	}
	return records
}

func extractFromObject(obj map[string]any) []models.APIRecord {
	for _, field := range containerFields {
		list, ok := obj[field].([]any)
		if !ok {
			continue
		}
		return extractFromList(list)
	}

	if record, ok := normalizeRecord(obj); ok {
		return []models.APIRecord{record}
	}
	return nil
}

func extractFromList(list []any) []models.APIRecord {
	var records []models.APIRecord
	for _, item := range list {
		if len(records) >= maxContainerRecords {
			break
		}

		switch v := item.(type) {
		case map[string]any:
			if record, ok := normalizeRecord(v); ok {
				records = append(records, record)
			}
		case string:
			if s := strings.TrimSpace(v); s != "" {
				records = append(records, models.APIRecord{
					Content: truncate(s, maxRecordContent),
					Type:    "text",
				})
			}
		}
	}
	return records
}

// extractFromString handles markup and plain-text payloads. Markup yields a
// flattened text record plus a bounded set of element records.
func extractFromString(s string) []models.APIRecord {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}

	if !strings.HasPrefix(trimmed, "<") {
		return []models.APIRecord{{
			Content: truncate(trimmed, maxRecordContent),
			Type:    "text",
		}}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return []models.APIRecord{{
			Content: truncate(trimmed, maxRecordContent),
			Type:    "text",
		}}
	}

	records := []models.APIRecord{{
		Content: truncate(whitespaceRe.ReplaceAllString(strings.TrimSpace(doc.Text()), " "), maxRecordContent),
		Type:    "markup_text",
	}}

	doc.Find("h1,h2,h3,p,li,a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return true
		}

		record := models.APIRecord{
			Content: truncate(text, maxRecordContent),
			Type:    "markup_element",
			Tag:     goquery.NodeName(sel),
		}
		if href, ok := sel.Attr("href"); ok {
			record.URL = href
		}
		records = append(records, record)
		return len(records) < maxMarkupElements+1
	})

	return records
}

// normalizeRecord maps one object onto the canonical record slots via the
// synonym tables. Objects with neither a title nor content are discarded.
func normalizeRecord(obj map[string]any) (models.APIRecord, bool) {
	record := models.APIRecord{
		Title:   truncate(lookupString(obj, titleFields), maxTitleLength),
		Content: truncate(lookupString(obj, contentFields), maxRecordContent),
		URL:     lookupString(obj, urlFields),
		Date:    lookupString(obj, dateFields),
		ID:      lookupString(obj, idFields),
	}

	if record.Title == "" && record.Content == "" {
		return models.APIRecord{}, false
	}

	claimed := make(map[string]struct{})
	for _, fields := range [][]string{titleFields, contentFields, urlFields, dateFields, idFields} {
		for _, f := range fields {
			claimed[f] = struct{}{}
		}
	}

	for key, value := range obj {
		if _, taken := claimed[key]; taken {
			continue
		}

		switch value.(type) {
		case string, float64, bool, nil:
			if record.Metadata == nil {
				record.Metadata = make(map[string]any)
			}
			record.Metadata[key] = value
		default:
			if record.Metadata == nil {
				record.Metadata = make(map[string]any)
			}
			record.Metadata[key] = truncate(fmt.Sprintf("%v", value), maxMetadataValue)
		}
	}

	return record, true
}

// lookupString returns the first stringable value found under the candidate
// keys.
func lookupString(obj map[string]any, keys []string) string {
	for _, key := range keys {
		value, present := obj[key]
		if !present {
			continue
		}

		switch v := value.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return formatNumber(v)
		case bool:
			return fmt.Sprintf("%t", v)
		}
	}
	return ""
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// dataQuality scores extracted records: a base for having any records at all,
// plus field richness of the leading records, plus structural consistency
// against the first record's field set.
func dataQuality(records []models.APIRecord) float64 {
	if len(records) == 0 {
		return 0
	}

	sample := records
	if len(sample) > richnessSampleSize {
		sample = sample[:richnessSampleSize]
	}

	rich := 0
	for _, record := range sample {
		fields := 0
		if record.Title != "" {
			fields++
		}
		if len(record.Content) > 20 {
			fields++
		}
		if record.URL != "" {
			fields++
		}
		if record.Date != "" {
			fields++
		}
		if fields >= 2 {
			rich++
		}
	}
	richness := float64(rich) / float64(len(sample))

	score := 0.3 + 0.4*richness

	// The consistency term only applies when there is more than one record
	// to compare; a lone record earns no structural bonus.
	if len(records) >= 2 {
		reference := records[0].FieldSet()
		compared := 0
		matching := 0
		for _, record := range records[1:] {
			if compared >= consistencySample {
				break
			}
			compared++

			shared := 0
			for field := range record.FieldSet() {
				if _, ok := reference[field]; ok {
					shared++
				}
			}
			if len(reference) > 0 && float64(shared)/float64(len(reference)) >= 0.5 {
				matching++
			}
		}
		if compared > 0 {
			score += 0.3 * float64(matching) / float64(compared)
		}
	}

	return scoring.Clamp01(score)
}

func apiTitle(data any, records []models.APIRecord) string {
	if obj, ok := data.(map[string]any); ok {
		if title := lookupString(obj, []string{"title", "name", "api_name", "service_name"}); title != "" {
			return truncate(title, maxTitleLength)
		}
	}

	for _, record := range records {
		if record.Title != "" {
			return truncate("API Data: "+record.Title, maxTitleLength)
		}
	}
	return fmt.Sprintf("API Response (%d items)", len(records))
}

func apiDescription(data any, records []models.APIRecord) string {
	if obj, ok := data.(map[string]any); ok {
		if desc := lookupString(obj, []string{"description", "summary", "about"}); desc != "" {
			return truncate(desc, maxDescriptionLength)
		}
	}
	return fmt.Sprintf("Structured API data containing %d items", len(records))
}

func apiContent(records []models.APIRecord) string {
	var parts []string
	for i, record := range records {
		if i >= maxContentRecords {
			break
		}

		var lines []string
		if record.Title != "" {
			lines = append(lines, "Title: "+record.Title)
		}
		if record.Content != "" {
			lines = append(lines, "Content: "+record.Content)
		}
		if record.URL != "" {
			lines = append(lines, "URL: "+record.URL)
		}
		if len(lines) > 0 {
			parts = append(parts, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func apiSummary(records []models.APIRecord) string {
	if len(records) == 0 {
		return ""
	}

	var titles []string
	for _, record := range records {
		if len(titles) >= maxSummaryTitles {
			break
		}
		if record.Title != "" {
			titles = append(titles, record.Title)
		}
	}

	summary := fmt.Sprintf("API contains %d items.", len(records))
	if len(titles) > 0 {
		summary += " Recent: " + strings.Join(titles, "; ")
	}
	return truncate(summary, maxSummaryLength)
}

// apiFreshnessScore averages the recency weights of the leading parseable
// record dates.
func apiFreshnessScore(records []models.APIRecord) float64 {
	total := 0.0
	dated := 0
	for i, record := range records {
		if i >= freshnessRecordDates {
			break
		}
		if record.Date == "" {
			continue
		}

		t, err := dateparse.ParseAny(record.Date)
		if err != nil {
			continue
		}
		total += scoring.RecencyWeight(scoring.DaysSince(t))
		dated++
	}
	if dated == 0 {
		return 0
	}
	return scoring.Clamp01(total / float64(dated))
}

func recordLinks(records []models.APIRecord) []string {
	var links []string
	seen := make(map[string]struct{})

	for _, record := range records {
		if len(links) >= maxExternalLinks {
			break
		}
		if record.URL == "" {
			continue
		}
		if _, dup := seen[record.URL]; dup {
			continue
		}
		seen[record.URL] = struct{}{}
		links = append(links, record.URL)
	}
	return links
}

func hasKeys(obj map[string]any, keys ...string) bool {
	for _, key := range keys {
		if _, ok := obj[key]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

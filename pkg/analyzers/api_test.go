package analyzers

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nsyc/page-analyzer/models"
)

func TestNormalizeRecord(t *testing.T) {
	record, ok := normalizeRecord(map[string]any{
		"id":         "1",
		"name":       "Foo",
		"body":       "Bar",
		"link":       "https://x/1",
		"created_at": "2024-01-01",
		"views":      float64(42),
	})
	if !ok {
		t.Fatal("record should not be discarded")
	}

	if record.Title != "Foo" {
		t.Errorf("Title = %q, want Foo", record.Title)
	}
	if record.Content != "Bar" {
		t.Errorf("Content = %q, want Bar", record.Content)
	}
	if record.URL != "https://x/1" {
		t.Errorf("URL = %q", record.URL)
	}
	if record.Date != "2024-01-01" {
		t.Errorf("Date = %q", record.Date)
	}
	if record.ID != "1" {
		t.Errorf("ID = %q", record.ID)
	}
	if record.Metadata["views"] != float64(42) {
		t.Errorf("Metadata[views] = %v, want 42", record.Metadata["views"])
	}
}

func TestNormalizeRecordDiscardsEmpty(t *testing.T) {
	_, ok := normalizeRecord(map[string]any{
		"id":   "1",
		"link": "https://x/1",
	})
	if ok {
		t.Error("record with no title and no content should be discarded")
	}
}

func TestClassifyStructure(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"small object", map[string]any{"b": 1, "a": 2}, "object(a, b)"},
		{"empty object", map[string]any{}, "empty_object"},
		{"empty array", []any{}, "empty_array"},
		{"object array", []any{map[string]any{"a": 1}, map[string]any{"b": 2}}, "array(2 items, object)"},
		{"string array", []any{"x"}, "array(1 items, string)"},
		{"xml string", `<?xml version="1.0"?><root/>`, "xml"},
		{"html string", "<html><body>x</body></html>", "html"},
		{"plain string", "hello", "string(5 chars)"},
		{"null", nil, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyStructure(tt.data); got != tt.want {
				t.Errorf("classifyStructure() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSchema(t *testing.T) {
	tests := []struct {
		name string
		data any
		hint string
		want string
	}{
		{"hint wins", map[string]any{"results": []any{}}, "custom", "custom"},
		{"paginated", map[string]any{"items": []any{}, "total": float64(9)}, "", "paginated_api"},
		{"jsonapi", map[string]any{"data": []any{}, "meta": map[string]any{}}, "", "jsonapi"},
		{"search results", map[string]any{"results": []any{}}, "", "search_results"},
		{"feed api", map[string]any{"entries": []any{}}, "", "feed_api"},
		{"generic object", map[string]any{"foo": 1}, "", "generic_object"},
		{"object array", []any{map[string]any{"a": 1}}, "", "object_array"},
		{"simple array", []any{"a", "b"}, "", "simple_array"},
		{"text", "just words", "", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectSchema(tt.data, tt.hint); got != tt.want {
				t.Errorf("detectSchema() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractRecordsFromContainer(t *testing.T) {
	data := map[string]any{
		"total": float64(2),
		"items": []any{
			map[string]any{"title": "One", "body": "First body text"},
			map[string]any{"title": "Two", "body": "Second body text"},
			map[string]any{"link": "https://x/3"}, // no title or content
		},
	}

	records := extractRecords(data)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Title != "One" || records[1].Title != "Two" {
		t.Errorf("records = %+v", records)
	}
}

func TestExtractRecordsFromStringList(t *testing.T) {
	records := extractRecords([]any{"alpha", "beta", ""})

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Content != "alpha" || records[0].Type != "text" {
		t.Errorf("first record = %+v", records[0])
	}
}

func TestExtractRecordsFromMarkup(t *testing.T) {
	records := extractRecords(`<html><body><h1>Head</h1><p>Paragraph text</p><a href="/x">link</a></body></html>`)

	if len(records) < 2 {
		t.Fatalf("got %d records, want flattened text plus elements", len(records))
	}
	if records[0].Type != "markup_text" {
		t.Errorf("first record type = %q, want markup_text", records[0].Type)
	}

	var sawLink bool
	for _, record := range records[1:] {
		if record.Type != "markup_element" {
			t.Errorf("record type = %q, want markup_element", record.Type)
		}
		if record.Tag == "a" && record.URL == "/x" {
			sawLink = true
		}
	}
	if !sawLink {
		t.Error("anchor element with href should be captured")
	}
}

func TestDataQuality(t *testing.T) {
	if got := dataQuality(nil); got != 0 {
		t.Errorf("dataQuality(nil) = %v, want 0", got)
	}

	rich := []models.APIRecord{
		{Title: "A", Content: strings.Repeat("x", 30), URL: "https://x/1", Date: "2024-01-01"},
		{Title: "B", Content: strings.Repeat("y", 30), URL: "https://x/2", Date: "2024-01-02"},
	}
	got := dataQuality(rich)
	if got != 1.0 {
		t.Errorf("dataQuality(rich uniform records) = %v, want 1.0", got)
	}

	poor := []models.APIRecord{{Title: "only a title"}}
	if q := dataQuality(poor); q >= got {
		t.Errorf("sparse records should score below rich ones: %v >= %v", q, got)
	}
}

func TestDataQualitySingleRecordGetsNoConsistencyBonus(t *testing.T) {
	single := []models.APIRecord{
		{Title: "A", Content: strings.Repeat("x", 30), URL: "https://x/1", Date: "2024-01-01"},
	}

	got := dataQuality(single)
	if math.Abs(got-0.7) > 1e-9 {
		t.Errorf("dataQuality(one rich record) = %v, want 0.7 (base + richness only)", got)
	}
}

func TestAnalyzeResponseWithProvidedData(t *testing.T) {
	a := NewAPIAnalyzer()
	defer a.Close()

	data := map[string]any{
		"items": []any{
			map[string]any{"title": "One", "content": "First body with enough text"},
			map[string]any{"title": "Two", "content": "Second body with enough text"},
		},
		"total": float64(2),
	}

	result := a.AnalyzeResponse(context.Background(), "https://api.example.com/v1/items", data, "", testConfig())

	if result.ErrorMessage != "" {
		t.Fatalf("unexpected error: %s", result.ErrorMessage)
	}
	if result.TotalRecords != 2 {
		t.Errorf("TotalRecords = %d, want 2", result.TotalRecords)
	}
	if result.SchemaDetected != "paginated_api" {
		t.Errorf("SchemaDetected = %q, want paginated_api", result.SchemaDetected)
	}
	if result.DataQuality <= 0 {
		t.Error("DataQuality should be positive")
	}
}

func TestAnalyzeResponseFetches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{"name": "Item", "description": "A described item"}]}`))
	}))
	defer server.Close()

	a := NewAPIAnalyzer()
	defer a.Close()

	result := a.AnalyzeResponse(context.Background(), server.URL, nil, "", testConfig())

	if result.ErrorMessage != "" {
		t.Fatalf("unexpected error: %s", result.ErrorMessage)
	}
	if result.SchemaDetected != "search_results" {
		t.Errorf("SchemaDetected = %q, want search_results", result.SchemaDetected)
	}
	if result.TotalRecords != 1 {
		t.Errorf("TotalRecords = %d, want 1", result.TotalRecords)
	}
}

func TestAnalyzeResponseEmptyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
	}))
	defer server.Close()

	a := NewAPIAnalyzer()
	defer a.Close()

	fetched := a.AnalyzeResponse(context.Background(), server.URL, nil, "", testConfig())
	if fetched.ErrorMessage != "No data to analyze" {
		t.Errorf("ErrorMessage = %q, want %q", fetched.ErrorMessage, "No data to analyze")
	}
	if fetched.TotalRecords != 0 {
		t.Errorf("TotalRecords = %d, want 0", fetched.TotalRecords)
	}

	provided := a.AnalyzeResponse(context.Background(), server.URL, map[string]any{}, "", testConfig())
	if provided.ErrorMessage != "No data to analyze" {
		t.Errorf("ErrorMessage for empty object = %q, want %q", provided.ErrorMessage, "No data to analyze")
	}
}

func TestAnalyzeAsPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": [
			{"title": "First", "content": "Body one", "url": "https://x/1"},
			{"title": "Second", "content": "Body two", "url": "https://x/2"}
		]}`))
	}))
	defer server.Close()

	a := NewAPIAnalyzer()
	defer a.Close()

	result := a.AnalyzeAsPage(context.Background(), server.URL, testConfig())

	if result.Status != models.StatusSuccess {
		t.Fatalf("Status = %q (%s), want success", result.Status, result.ErrorMessage)
	}
	if result.ContentType != models.ContentTypeAPI {
		t.Errorf("ContentType = %q, want api", result.ContentType)
	}
	if result.Title != "API Data: First" {
		t.Errorf("Title = %q, want %q", result.Title, "API Data: First")
	}
	if !strings.Contains(result.MainContent, "---") {
		t.Errorf("MainContent should join records with separators: %q", result.MainContent)
	}
	if !strings.HasPrefix(result.Summary, "API contains 2 items.") {
		t.Errorf("Summary = %q", result.Summary)
	}
	if len(result.ExternalLinks) != 2 {
		t.Errorf("ExternalLinks = %v, want both record URLs", result.ExternalLinks)
	}
}

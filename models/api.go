package models

// APIRecord is a canonical, normalized representation of one API data item.
// Canonical slots are optional; whatever else the item carried lands in the
// bounded Metadata bag.
type APIRecord struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
	Date    string `json:"date,omitempty"`
	ID      string `json:"id,omitempty"`

	// Type and Tag describe records recovered from non-object payloads
	// (plain strings, markup text, markup elements).
	Type string `json:"type,omitempty"`
	Tag  string `json:"tag,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// FieldSet returns the names of the populated fields, including metadata
// keys. Used for structural-consistency scoring across records.
func (r APIRecord) FieldSet() map[string]struct{} {
	fields := make(map[string]struct{})
	if r.Title != "" {
		fields["title"] = struct{}{}
	}
	if r.Content != "" {
		fields["content"] = struct{}{}
	}
	if r.URL != "" {
		fields["url"] = struct{}{}
	}
	if r.Date != "" {
		fields["date"] = struct{}{}
	}
	if r.ID != "" {
		fields["id"] = struct{}{}
	}
	if r.Type != "" {
		fields["type"] = struct{}{}
	}
	if r.Tag != "" {
		fields["tag"] = struct{}{}
	}
	for k := range r.Metadata {
		fields[k] = struct{}{}
	}
	return fields
}

// ApiAnalysis is the result of analyzing a structured API response.
type ApiAnalysis struct {
	EndpointURL       string      `json:"endpoint_url"`
	ResponseStructure string      `json:"response_structure"`
	ExtractedContent  []APIRecord `json:"extracted_content"`
	SchemaDetected    string      `json:"schema_detected,omitempty"`
	TotalRecords      int         `json:"total_records"`
	DataQuality       float64     `json:"data_quality"` // 0-1
	ProcessingTime    float64     `json:"processing_time"`
	ErrorMessage      string      `json:"error_message,omitempty"`
}

package models

// BatchResponse aggregates the outcome of a batch analysis. Results holds
// successful analyses only; every failure contributes one "<url>: <message>"
// entry to Errors.
type BatchResponse struct {
	TotalRequested      int            `json:"total_requested"`
	SuccessfulAnalyses  int            `json:"successful_analyses"`
	FailedAnalyses      int            `json:"failed_analyses"`
	Results             []PageAnalysis `json:"results"`
	TotalProcessingTime float64        `json:"total_processing_time"` // seconds
	Errors              []string       `json:"errors,omitempty"`
}

// AnalyzerStatus reports analyzer capabilities and the current base config.
type AnalyzerStatus struct {
	Version               string          `json:"version"`
	SupportedContentTypes []string        `json:"supported_content_types"`
	AvailableExtractors   []string        `json:"available_extractors"`
	Config                AnalysisConfig  `json:"configuration"`
	Features              map[string]bool `json:"features"`
}

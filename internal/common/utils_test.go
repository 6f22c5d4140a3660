package common

import (
	"testing"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "https://example.com", "https://example.com"},
		{"surrounding whitespace", "  https://example.com  ", "https://example.com"},
		{"trailing comma", "https://example.com,", "https://example.com"},
		{"trailing period", "https://example.com.", "https://example.com"},
		{"wrapped in parens", "(https://example.com)", "https://example.com"},
		{"markdown link", "[click here](https://example.com/page)", "https://example.com/page"},
		{"angle brackets", "<https://example.com>", "https://example.com"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeURL(tt.in); got != tt.want {
				t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeAndValidateURLs(t *testing.T) {
	urls := []string{
		"https://example.com/page",
		"  https://example.com/other,  ",
		"ftp://example.com/file",
		"not a url",
		"",
		"https://example.com{}/bad",
	}

	valid, invalid := SanitizeAndValidateURLs(urls)

	if len(valid) != 2 {
		t.Fatalf("valid = %v, want 2 entries", valid)
	}
	if valid[0] != "https://example.com/page" || valid[1] != "https://example.com/other" {
		t.Errorf("valid = %v", valid)
	}
	if len(invalid) != 4 {
		t.Errorf("invalid = %v, want 4 entries", invalid)
	}
}

func TestSanitizeAndValidateURLsWithPorts(t *testing.T) {
	urls := []string{
		"http://127.0.0.1:8080/a",
		"https://example.com:8443/x",
		"http://localhost:3000",
		"http://example.com:notaport/x",
	}

	valid, invalid := SanitizeAndValidateURLs(urls)

	if len(valid) != 3 {
		t.Fatalf("valid = %v, want the three port-carrying URLs", valid)
	}
	if len(invalid) != 1 || invalid[0] != "http://example.com:notaport/x" {
		t.Errorf("invalid = %v, want only the malformed port", invalid)
	}
}

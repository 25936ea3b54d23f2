// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ident

import "testing"

func TestExtractDOI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare doi", "10.1234/abcd.5678", "10.1234/abcd.5678"},
		{"doi url", "https://doi.org/10.1038/s41586-024-07487-w", "10.1038/s41586-024-07487-w"},
		{"uppercase lowered", "DOI: 10.1093/BIB/BBZ085", "10.1093/bib/bbz085"},
		{"embedded in prose", "see the paper (10.1000/xyz123) for details", "10.1000/xyz123"},
		{"sentence punctuation trimmed", "as shown in 10.1000/xyz123.", "10.1000/xyz123"},
		{"semicolon trimmed", "10.1000/xyz123; and others", "10.1000/xyz123"},
		{"interior dot kept", "10.1234/abcd.5678, p. 7", "10.1234/abcd.5678"},
		{"long registrant", "10.123456789/suffix", "10.123456789/suffix"},
		{"plain text", "attention is all you need", ""},
		{"pmid", "PMID: 31233491", ""},
		{"empty", "", ""},
		{"missing suffix", "10.1234/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDOI(tt.input); got != tt.want {
				t.Errorf("ExtractDOI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsProbableDOI(t *testing.T) {
	if !IsProbableDOI("10.1234/abc") {
		t.Error("IsProbableDOI(10.1234/abc) = false, want true")
	}
	if IsProbableDOI("a free text query") {
		t.Error("IsProbableDOI(free text) = true, want false")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"simple", "Hello World", 80, "hello-world"},
		{"punctuation collapsed", "a//b..c  d", 80, "a-b-c-d"},
		{"doi", "10.1234/ABC.def", 80, "10-1234-abc-def"},
		{"leading trailing trimmed", "--trimmed--", 80, "trimmed"},
		{"non-ascii stripped", "café señor", 80, "caf-seor"},
		{"empty falls back", "", 80, "item"},
		{"only symbols falls back", "!!!", 80, "item"},
		{"truncated", "abcdef-ghij", 6, "abcdef"},
		{"truncation trims hyphen", "abc-defg", 4, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("Slugify(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
			if again := Slugify(got, tt.maxLen); again != got {
				t.Errorf("Slugify not idempotent: %q -> %q", got, again)
			}
		})
	}
}

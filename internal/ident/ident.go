// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ident normalizes article identifiers and derives filesystem-safe names.
package ident

import (
	"regexp"
	"strings"
)

// doiPattern matches DOIs embedded in arbitrary text: "10." followed by a
// registrant code and a suffix drawn from the characters DOIs actually use.
var doiPattern = regexp.MustCompile(`(?i)(10\.\d{4,9}/[\w.;()/:+-]+)`)

// nonAlnum matches any run of characters outside [a-z0-9] in an
// already-lowercased string.
var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// ExtractDOI scans text for a DOI-shaped substring and returns it
// lowercased, or "" when no DOI is present.
func ExtractDOI(text string) string {
	if text == "" {
		return ""
	}
	m := doiPattern.FindString(strings.TrimSpace(text))
	if m == "" {
		return ""
	}
	// The suffix class is permissive, so a closing paren or sentence
	// punctuation right after the DOI rides along with the match.
	m = strings.TrimRight(m, ".,;:)")
	return strings.ToLower(m)
}

// IsProbableDOI reports whether the identifier contains a DOI.
func IsProbableDOI(identifier string) bool {
	return ExtractDOI(identifier) != ""
}

// Slugify reduces value to a lowercase ASCII slug: non-alphanumeric runs
// collapse to single hyphens, leading/trailing hyphens are trimmed, and the
// result is truncated to maxLen. An empty result falls back to "item".
// Slugify is idempotent: Slugify(Slugify(x), n) == Slugify(x, n).
func Slugify(value string, maxLen int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	slug := nonAlnum.ReplaceAllString(b.String(), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "item"
	}
	if maxLen > 0 && len(slug) > maxLen {
		slug = strings.TrimRight(slug[:maxLen], "-")
	}
	return slug
}

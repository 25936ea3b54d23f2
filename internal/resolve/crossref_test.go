// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/doifetch/pkg/types"
)

const sampleWorkJSON = `{
  "status": "ok",
  "message": {
    "DOI": "10.1234/Demo.42",
    "title": ["A Demo Article"],
    "container-title": ["Journal of Demos", "J. Demos"],
    "abstract": "  An abstract with padding.  ",
    "URL": "https://doi.org/10.1234/demo.42",
    "author": [
      {"given": "Ada", "family": "Lovelace", "affiliation": [{"name": "Analytical Engine Co"}, {"name": "RS"}]},
      {"given": "Charles", "family": "Babbage"}
    ],
    "issued": {"date-parts": [[2023, 6, 15]]}
  }
}`

const sampleQueryJSON = `{
  "status": "ok",
  "message": {
    "items": [
      {
        "DOI": "10.5555/query.hit",
        "title": ["Top Hit"],
        "issued": {"date-parts": [[2021]]}
      },
      {
        "DOI": "10.5555/second",
        "title": ["Second Hit"]
      }
    ]
  }
}`

func newCrossrefServer(t *testing.T, handler http.HandlerFunc) (*CrossrefResolver, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	r := NewCrossrefResolver(ts.Client(), types.CrossrefConfig{BaseURL: ts.URL})
	return r, ts
}

func TestCrossrefResolveByDOI(t *testing.T) {
	var gotPath string
	r, _ := newCrossrefServer(t, func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleWorkJSON))
	})

	result, err := r.Resolve(context.Background(), types.NewFetchRequest("https://doi.org/10.1234/Demo.42"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result == nil {
		t.Fatal("Resolve returned nil result")
	}
	if !strings.Contains(gotPath, "10.1234") {
		t.Errorf("expected by-DOI request path, got %q", gotPath)
	}

	md := result.Metadata
	if md.DOI != "10.1234/demo.42" {
		t.Errorf("DOI = %q, want lowercased %q", md.DOI, "10.1234/demo.42")
	}
	if md.Title != "A Demo Article" {
		t.Errorf("Title = %q", md.Title)
	}
	if md.Journal != "Journal of Demos" {
		t.Errorf("Journal = %q, want first container title", md.Journal)
	}
	if md.Abstract != "An abstract with padding." {
		t.Errorf("Abstract = %q, want trimmed", md.Abstract)
	}
	if len(md.Authors) != 2 {
		t.Fatalf("Authors = %d, want 2", len(md.Authors))
	}
	if md.Authors[0].Affiliation != "Analytical Engine Co, RS" {
		t.Errorf("Affiliation = %q, want comma-joined", md.Authors[0].Affiliation)
	}
	want := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	if !md.PublicationDate.Equal(want) {
		t.Errorf("PublicationDate = %v, want %v", md.PublicationDate, want)
	}
	if len(md.SourcePayload) == 0 {
		t.Error("SourcePayload not retained")
	}
	if result.Provider != "crossref" {
		t.Errorf("Provider = %q", result.Provider)
	}
}

func TestCrossrefResolveByQuery(t *testing.T) {
	r, _ := newCrossrefServer(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("rows") != "1" {
			t.Errorf("rows = %q, want 1", req.URL.Query().Get("rows"))
		}
		if req.URL.Query().Get("query") == "" {
			t.Error("missing query parameter")
		}
		w.Write([]byte(sampleQueryJSON))
	})

	result, err := r.Resolve(context.Background(), types.NewFetchRequest("attention is all you need"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result == nil {
		t.Fatal("Resolve returned nil result")
	}
	if result.Metadata.DOI != "10.5555/query.hit" {
		t.Errorf("DOI = %q, want top hit", result.Metadata.DOI)
	}
	wantYear := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	if !result.Metadata.PublicationDate.Equal(wantYear) {
		t.Errorf("PublicationDate = %v, want month/day defaulted to 1", result.Metadata.PublicationDate)
	}
}

func TestCrossrefResolveEmptyQueryResult(t *testing.T) {
	r, _ := newCrossrefServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"message": {"items": []}}`))
	})

	result, err := r.Resolve(context.Background(), types.NewFetchRequest("no such paper"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result != nil {
		t.Errorf("Resolve = %+v, want nil for empty item list", result)
	}
}

func TestCrossrefResolveNotFound(t *testing.T) {
	r, _ := newCrossrefServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	result, err := r.Resolve(context.Background(), types.NewFetchRequest("10.9999/missing"))
	if err != nil {
		t.Fatalf("Resolve returned error for 404: %v", err)
	}
	if result != nil {
		t.Errorf("Resolve = %+v, want nil for 404", result)
	}
}

func TestCrossrefResolveServerError(t *testing.T) {
	r, _ := newCrossrefServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	result, err := r.Resolve(context.Background(), types.NewFetchRequest("10.1/err"))
	if err == nil {
		t.Error("Resolve should surface transport-level failure as error")
	}
	if result != nil {
		t.Errorf("Resolve = %+v, want nil on failure", result)
	}
}

func TestCrossrefMissingTitleDefaultsToUntitled(t *testing.T) {
	r, _ := newCrossrefServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"message": {"DOI": "10.1/untitled"}}`))
	})

	result, err := r.Resolve(context.Background(), types.NewFetchRequest("10.1/untitled"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Metadata.Title != "Untitled" {
		t.Errorf("Title = %q, want Untitled", result.Metadata.Title)
	}
}

func TestDateFromParts(t *testing.T) {
	tests := []struct {
		name  string
		parts []int
		want  time.Time
	}{
		{"full date", []int{2020, 2, 29}, time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"year only", []int{2019}, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"year month", []int{2019, 7}, time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC)},
		{"invalid day", []int{2021, 6, 31}, time.Time{}},
		{"invalid leap day", []int{2021, 2, 29}, time.Time{}},
		{"invalid month", []int{2021, 13, 1}, time.Time{}},
		{"empty", nil, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dateFromParts(tt.parts); !got.Equal(tt.want) {
				t.Errorf("dateFromParts(%v) = %v, want %v", tt.parts, got, tt.want)
			}
		})
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/doifetch/pkg/types"
)

func testVerifier(handler http.HandlerFunc) (*CrossrefVerifier, *httptest.Server) {
	ts := httptest.NewServer(handler)
	v := NewCrossrefVerifier(ts.Client(), types.CrossrefConfig{BaseURL: ts.URL})
	return v, ts
}

func TestVerifyClean(t *testing.T) {
	v, ts := testVerifier(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message": {"title": ["Fine Paper"]}}`)
	})
	defer ts.Close()

	result := v.Verify(context.Background(), "10.1000/fine")
	if result.Status != StatusClean {
		t.Errorf("status = %q", result.Status)
	}
	if len(result.Notes) != 0 {
		t.Errorf("notes = %v", result.Notes)
	}
}

func TestVerifyRetracted(t *testing.T) {
	v, ts := testVerifier(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message": {"relation": {
			"is-retracted-by": [{"id": "10.1000/notice", "id-type": "doi"}],
			"is-updated-by": [{"id": "10.1000/update", "id-type": "doi"}]
		}}}`)
	})
	defer ts.Close()

	result := v.Verify(context.Background(), "10.1000/bad")
	if result.Status != StatusRetracted {
		t.Errorf("status = %q", result.Status)
	}
	if len(result.Notes) != 1 || result.Notes[0] != "retracted by 10.1000/notice" {
		t.Errorf("notes = %v", result.Notes)
	}
}

func TestVerifyCorrectedWithoutIDs(t *testing.T) {
	v, ts := testVerifier(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message": {"relation": {"is-corrected-by": [{"id-type": "doi"}]}}}`)
	})
	defer ts.Close()

	result := v.Verify(context.Background(), "10.1000/fixed")
	if result.Status != StatusCorrected {
		t.Errorf("status = %q", result.Status)
	}
	if len(result.Notes) != 1 || result.Notes[0] != "corrected" {
		t.Errorf("notes = %v", result.Notes)
	}
}

func TestVerifyManualRecordIsClean(t *testing.T) {
	called := false
	v, ts := testVerifier(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	defer ts.Close()

	result := v.Verify(context.Background(), "manual-lab-notebook")
	if result.Status != StatusClean {
		t.Errorf("status = %q", result.Status)
	}
	if called {
		t.Error("manual records should not hit Crossref")
	}
}

func TestVerifyLookupFailure(t *testing.T) {
	v, ts := testVerifier(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer ts.Close()

	result := v.Verify(context.Background(), "10.1000/ghost")
	if result.Status != StatusError {
		t.Errorf("status = %q", result.Status)
	}
	if len(result.Notes) == 0 || !strings.Contains(result.Notes[0], "not found") {
		t.Errorf("notes = %v", result.Notes)
	}
}

func TestVerifyAll(t *testing.T) {
	v, ts := testVerifier(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "bad") {
			fmt.Fprint(w, `{"message": {"relation": {"is-retracted-by": [{"id": "10.1000/notice"}]}}}`)
			return
		}
		fmt.Fprint(w, `{"message": {}}`)
	})
	defer ts.Close()

	var out bytes.Buffer
	results := v.VerifyAll(context.Background(), []string{"10.1000/good", "10.1000/bad"}, &out)
	if len(results) != 2 {
		t.Fatalf("results = %v", results)
	}
	if results[0].Status != StatusClean || results[1].Status != StatusRetracted {
		t.Errorf("statuses = %q, %q", results[0].Status, results[1].Status)
	}
	if !strings.Contains(out.String(), "retracted") || !strings.Contains(out.String(), "10.1000/bad") {
		t.Errorf("output = %q", out.String())
	}
}

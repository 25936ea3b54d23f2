// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify checks stored DOIs against Crossref work relations to
// surface retractions, corrections, and replacements after ingestion.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/doifetch/internal/httputil"
	"github.com/pdiddy/doifetch/pkg/types"
)

// Verification statuses, ordered from benign to severe. StatusError means
// the lookup itself failed and nothing can be said about the work.
const (
	StatusClean     = "clean"
	StatusUpdated   = "updated"
	StatusCorrected = "corrected"
	StatusReplaced  = "replaced"
	StatusRetracted = "retracted"
	StatusError     = "error"
)

// relationFlags maps Crossref relation types to statuses. Order matters:
// a retraction outranks every other relation on the same work.
var relationFlags = []struct {
	relation string
	status   string
}{
	{"is-retracted-by", StatusRetracted},
	{"is-replaced-by", StatusReplaced},
	{"is-corrected-by", StatusCorrected},
	{"is-updated-by", StatusUpdated},
}

// Result is the verification verdict for one DOI.
type Result struct {
	DOI    string
	Status string
	Notes  []string
}

// CrossrefVerifier queries the Crossref works endpoint for relation data.
type CrossrefVerifier struct {
	client *http.Client
	cfg    types.CrossrefConfig
}

// NewCrossrefVerifier builds a verifier. If client is nil one is
// constructed from the config's HTTP settings.
func NewCrossrefVerifier(client *http.Client, cfg types.CrossrefConfig) *CrossrefVerifier {
	if client == nil {
		client = httputil.NewClient(cfg.HTTPConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.crossref.org/works"
	}
	return &CrossrefVerifier{client: client, cfg: cfg}
}

// Verify checks one DOI. Manual placeholder DOIs are clean by definition;
// a failed lookup yields StatusError with the failure as a note, never an
// error, so batch verification keeps going.
func (v *CrossrefVerifier) Verify(ctx context.Context, doi string) Result {
	result := Result{DOI: doi, Status: StatusClean}
	if strings.HasPrefix(doi, "manual-") {
		result.Notes = append(result.Notes, "manual record, not registered with Crossref")
		return result
	}

	relations, err := v.fetchRelations(ctx, doi)
	if err != nil {
		result.Status = StatusError
		result.Notes = append(result.Notes, err.Error())
		return result
	}

	for _, flag := range relationFlags {
		hits, ok := relations[flag.relation]
		if !ok || len(hits) == 0 {
			continue
		}
		result.Status = flag.status
		ids := make([]string, 0, len(hits))
		for _, hit := range hits {
			if hit.ID != "" {
				ids = append(ids, hit.ID)
			}
		}
		if len(ids) > 0 {
			result.Notes = append(result.Notes, fmt.Sprintf("%s by %s", flag.status, strings.Join(ids, ", ")))
		} else {
			result.Notes = append(result.Notes, flag.status)
		}
		// First hit wins; the flags are ordered by severity.
		break
	}
	return result
}

// VerifyAll checks each DOI in order, printing one status line per DOI.
func (v *CrossrefVerifier) VerifyAll(ctx context.Context, dois []string, w io.Writer) []Result {
	results := make([]Result, 0, len(dois))
	for _, doi := range dois {
		result := v.Verify(ctx, doi)
		notes := strings.Join(result.Notes, "; ")
		if notes == "" {
			fmt.Fprintf(w, "%-12s %s\n", result.Status, result.DOI)
		} else {
			fmt.Fprintf(w, "%-12s %s (%s)\n", result.Status, result.DOI, notes)
		}
		results = append(results, result)
	}
	return results
}

type relationHit struct {
	ID     string `json:"id"`
	IDType string `json:"id-type"`
}

// fetchRelations retrieves the relation map of a Crossref work.
func (v *CrossrefVerifier) fetchRelations(ctx context.Context, doi string) (map[string][]relationHit, error) {
	endpoint := v.cfg.BaseURL + "/" + url.PathEscape(doi)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httputil.DoWithRetry(ctx, v.client, req, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("doi %s not found in Crossref", doi)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crossref returned status %d for %s", resp.StatusCode, doi)
	}

	var envelope struct {
		Message struct {
			Relation map[string][]relationHit `json:"relation"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding crossref response for %s: %w", doi, err)
	}
	return envelope.Message.Relation, nil
}

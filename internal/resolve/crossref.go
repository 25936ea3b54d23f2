// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/doifetch/internal/httputil"
	"github.com/pdiddy/doifetch/internal/ident"
	"github.com/pdiddy/doifetch/pkg/types"
)

// crossrefRate caps outbound Crossref requests. The public pool tolerates a
// handful of requests per second from polite callers.
const crossrefRate = rate.Limit(2)

// CrossrefResolver resolves identifiers against the Crossref works API.
// DOI-shaped identifiers are fetched directly; anything else becomes a
// free-text query whose top hit is taken.
type CrossrefResolver struct {
	client  *http.Client
	cfg     types.CrossrefConfig
	limiter *rate.Limiter
}

// NewCrossrefResolver builds a resolver from config. A nil client gets a
// default one with the configured timeout and User-Agent.
func NewCrossrefResolver(client *http.Client, cfg types.CrossrefConfig) *CrossrefResolver {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.crossref.org/works"
	}
	if client == nil {
		client = httputil.NewClient(cfg.HTTPConfig)
	}
	return &CrossrefResolver{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(crossrefRate, 1),
	}
}

// Name identifies this resolver in registry warnings and result provenance.
func (r *CrossrefResolver) Name() string { return "crossref" }

// Resolve fetches the work for the request identifier and normalizes it.
// A registry miss (no matching work, empty response) returns (nil, nil).
func (r *CrossrefResolver) Resolve(ctx context.Context, req types.FetchRequest) (*types.FetchResult, error) {
	payload, err := r.fetchWork(ctx, req.Identifier)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}

	metadata := normalizeWork(payload)
	if metadata.DOI == "" {
		// A work without a DOI cannot be keyed into the library.
		return nil, nil
	}
	return &types.FetchResult{
		Metadata:  metadata,
		Provider:  r.Name(),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// crossrefEnvelope is the outer "message" wrapper of every works response.
type crossrefEnvelope struct {
	Message json.RawMessage `json:"message"`
}

// crossrefItems is the query-result shape inside the message envelope.
type crossrefItems struct {
	Items []json.RawMessage `json:"items"`
}

// crossrefWork captures the fields doifetch normalizes. The raw payload is
// retained separately so nothing is lost.
type crossrefWork struct {
	DOI            string           `json:"DOI"`
	Title          []string         `json:"title"`
	ContainerTitle []string         `json:"container-title"`
	Abstract       string           `json:"abstract"`
	URL            string           `json:"URL"`
	Author         []crossrefAuthor `json:"author"`
	Issued         crossrefDate     `json:"issued"`
}

type crossrefAuthor struct {
	Given       string `json:"given"`
	Family      string `json:"family"`
	Affiliation []struct {
		Name string `json:"name"`
	} `json:"affiliation"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// fetchWork returns the raw work payload for the identifier, or nil when the
// registry has nothing.
func (r *CrossrefResolver) fetchWork(ctx context.Context, identifier string) (json.RawMessage, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reqURL string
	if doi := ident.ExtractDOI(identifier); doi != "" {
		reqURL = r.cfg.BaseURL + "/" + url.PathEscape(doi)
	} else {
		params := url.Values{"query": {identifier}, "rows": {"1"}}
		if r.cfg.Mailto != "" {
			params.Set("mailto", r.cfg.Mailto)
		}
		reqURL = r.cfg.BaseURL + "?" + params.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating Crossref request: %w", err)
	}

	resp, err := httputil.DoWithRetry(ctx, r.client, httpReq, 0)
	if err != nil {
		return nil, fmt.Errorf("Crossref request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Crossref returned HTTP %d", resp.StatusCode)
	}

	var envelope crossrefEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}
	if len(envelope.Message) == 0 {
		return nil, nil
	}

	// Query responses nest the works under message.items.
	var items crossrefItems
	if err := json.Unmarshal(envelope.Message, &items); err == nil && items.Items != nil {
		if len(items.Items) == 0 {
			return nil, nil
		}
		return items.Items[0], nil
	}
	return envelope.Message, nil
}

// normalizeWork maps a raw Crossref work onto ArticleMetadata.
func normalizeWork(payload json.RawMessage) types.ArticleMetadata {
	var work crossrefWork
	if err := json.Unmarshal(payload, &work); err != nil {
		return types.ArticleMetadata{}
	}

	title := "Untitled"
	if len(work.Title) > 0 && work.Title[0] != "" {
		title = work.Title[0]
	}

	journal := ""
	if len(work.ContainerTitle) > 0 {
		journal = work.ContainerTitle[0]
	}

	authors := make([]types.Author, 0, len(work.Author))
	for _, a := range work.Author {
		names := make([]string, 0, len(a.Affiliation))
		for _, aff := range a.Affiliation {
			if aff.Name != "" {
				names = append(names, aff.Name)
			}
		}
		authors = append(authors, types.Author{
			GivenName:   a.Given,
			FamilyName:  a.Family,
			Affiliation: strings.Join(names, ", "),
		})
	}

	var published time.Time
	if len(work.Issued.DateParts) > 0 {
		published = dateFromParts(work.Issued.DateParts[0])
	}

	return types.ArticleMetadata{
		DOI:             strings.ToLower(work.DOI),
		Title:           title,
		Authors:         authors,
		Journal:         journal,
		Abstract:        strings.TrimSpace(work.Abstract),
		PublicationDate: published,
		URL:             work.URL,
		Tags:            []string{},
		SourcePayload:   payload,
	}
}

// dateFromParts builds a date from a Crossref year/month/day triple.
// Missing month or day default to 1. An invalid combination (e.g. day 31 in
// a 30-day month) yields the zero time rather than a normalized date.
func dateFromParts(parts []int) time.Time {
	if len(parts) == 0 {
		return time.Time{}
	}
	year := parts[0]
	month, day := 1, 1
	if len(parts) > 1 {
		month = parts[1]
	}
	if len(parts) > 2 {
		day = parts[2]
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}
	}
	return t
}

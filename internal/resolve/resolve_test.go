// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/doifetch/pkg/types"
)

// stubResolver returns a canned result, error, or nothing.
type stubResolver struct {
	name   string
	result *types.FetchResult
	err    error
	calls  int
}

func (s *stubResolver) Name() string { return s.name }

func (s *stubResolver) Resolve(ctx context.Context, req types.FetchRequest) (*types.FetchResult, error) {
	s.calls++
	return s.result, s.err
}

func resultFor(doi string) *types.FetchResult {
	return &types.FetchResult{Metadata: types.ArticleMetadata{DOI: doi, Title: "t"}}
}

func TestRegistryFirstSuccessWins(t *testing.T) {
	first := &stubResolver{name: "first", result: resultFor("10.1/first")}
	second := &stubResolver{name: "second", result: resultFor("10.1/second")}
	registry := NewRegistry(nil, first, second)

	got := registry.Resolve(context.Background(), types.NewFetchRequest("10.1/first"))
	if got == nil || got.Metadata.DOI != "10.1/first" {
		t.Fatalf("Resolve = %+v, want first resolver's result", got)
	}
	if second.calls != 0 {
		t.Error("second resolver should not be invoked after a hit")
	}
}

func TestRegistrySkipsMissesAndErrors(t *testing.T) {
	var warnings bytes.Buffer
	miss := &stubResolver{name: "miss"}
	broken := &stubResolver{name: "broken", err: errors.New("connection refused")}
	hit := &stubResolver{name: "hit", result: resultFor("10.1/hit")}
	registry := NewRegistry(&warnings, miss, broken, hit)

	got := registry.Resolve(context.Background(), types.NewFetchRequest("x"))
	if got == nil || got.Metadata.DOI != "10.1/hit" {
		t.Fatalf("Resolve = %+v, want result from last resolver", got)
	}
	if !strings.Contains(warnings.String(), "broken") {
		t.Errorf("warning output %q should name the failing resolver", warnings.String())
	}
}

func TestRegistryAllMiss(t *testing.T) {
	registry := NewRegistry(nil, &stubResolver{name: "a"}, &stubResolver{name: "b"})
	if got := registry.Resolve(context.Background(), types.NewFetchRequest("x")); got != nil {
		t.Errorf("Resolve = %+v, want nil when every resolver misses", got)
	}
}

func TestRegistryEmpty(t *testing.T) {
	registry := NewRegistry(nil)
	if got := registry.Resolve(context.Background(), types.NewFetchRequest("x")); got != nil {
		t.Errorf("Resolve = %+v, want nil for empty registry", got)
	}
}

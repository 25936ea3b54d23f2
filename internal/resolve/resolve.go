// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve turns article identifiers into normalized metadata by
// querying bibliographic registries.
package resolve

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/doifetch/pkg/types"
)

// Resolver resolves an identifier to article metadata. A nil result with a
// nil error means the resolver has no answer for this identifier; errors are
// reserved for transport-level failures and are absorbed by the Registry.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, req types.FetchRequest) (*types.FetchResult, error)
}

// Registry tries resolvers in configured order and returns the first result.
type Registry struct {
	resolvers []Resolver
	warn      io.Writer
}

// NewRegistry builds a registry over the given resolvers. Transport failures
// are reported as warnings on warn and treated as misses.
func NewRegistry(warn io.Writer, resolvers ...Resolver) *Registry {
	if warn == nil {
		warn = io.Discard
	}
	return &Registry{resolvers: resolvers, warn: warn}
}

// Resolve returns the first non-empty resolver result, or nil when every
// resolver misses or the registry is empty. A resolver error does not stop
// the scan; resolution failure is never fatal to the caller.
func (r *Registry) Resolve(ctx context.Context, req types.FetchRequest) *types.FetchResult {
	for _, resolver := range r.resolvers {
		result, err := resolver.Resolve(ctx, req)
		if err != nil {
			fmt.Fprintf(r.warn, "warning: resolver %s: %v\n", resolver.Name(), err)
			continue
		}
		if result != nil {
			return result
		}
	}
	return nil
}

// Package source decides, once per request, which storage generation a
// user's reads come from. The deployment is mid-migration: users whose
// data still lives in the legacy per-provider tables are served entirely
// from there; everyone else reads the unified ledger. Sources are never
// mixed within one response.
package source

import (
	"context"
	"fmt"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
)

// LegacyProbe reports whether the legacy table set holds at least one
// row for a user. A missing table (pre-migration schema) must read as
// false, not as an error.
type LegacyProbe interface {
	HasLegacyData(ctx context.Context, userID int64) (bool, error)
}

// Resolver picks the read surface for a request. The capability is
// computed once here and the chosen Reader is carried for the rest of
// the request, so downstream code never re-probes per call.
type Resolver struct {
	probe   LegacyProbe
	legacy  ledger.Reader
	unified ledger.Reader
}

// NewResolver creates a resolver over the two storage generations.
func NewResolver(probe LegacyProbe, legacy, unified ledger.Reader) *Resolver {
	return &Resolver{probe: probe, legacy: legacy, unified: unified}
}

// ReaderFor probes the legacy set for the user and returns the reader
// the entire response must be sourced from.
func (r *Resolver) ReaderFor(ctx context.Context, userID int64) (ledger.Reader, error) {
	hasLegacy, err := r.probe.HasLegacyData(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to probe legacy data: %w", err)
	}
	if hasLegacy {
		return r.legacy, nil
	}
	return r.unified, nil
}

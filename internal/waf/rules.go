package waf

import (
	"context"
	"fmt"
	"sync"

	"github.com/benedict-erwin/wafanalyzer/pkg/logger"
)

// DefaultRuleBatchSize is the provider's silent cap on ruleinfo ID lists
const DefaultRuleBatchSize = 25

// RuleDescriptions maps rule IDs to descriptions for the lifetime of a run.
// Entries are only ever added. An ID is requested from the provider at most once.
type RuleDescriptions struct {
	mu        sync.Mutex
	source    RuleInfoSource
	batchSize int
	entries   map[string]string
	fetches   int
	log       *logger.ScopedLogger
}

// NewRuleDescriptions creates an empty cache backed by source
func NewRuleDescriptions(source RuleInfoSource, batchSize int) *RuleDescriptions {
	if batchSize <= 0 {
		batchSize = DefaultRuleBatchSize
	}
	return &RuleDescriptions{
		source:    source,
		batchSize: batchSize,
		entries:   make(map[string]string),
		log:       logger.WithScope("rules"),
	}
}

// Has reports whether id was already looked up
func (r *RuleDescriptions) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Description returns the cached description for id
func (r *RuleDescriptions) Description(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	desc, ok := r.entries[id]
	return desc, ok
}

// Lookup ensures every id is cached, fetching only the ones not seen before.
// The missing set is fetched in chunks of batchSize while holding the lock, so
// concurrent callers never request the same ID twice. IDs the provider does
// not describe are cached with an empty description.
func (r *RuleDescriptions) Lookup(ctx context.Context, zoneID string, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var missing []string
	queued := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.entries[id]; ok || queued[id] {
			continue
		}
		queued[id] = true
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return nil
	}

	for start := 0; start < len(missing); start += r.batchSize {
		end := start + r.batchSize
		if end > len(missing) {
			end = len(missing)
		}
		chunk := missing[start:end]

		infos, err := r.source.RuleInfo(ctx, zoneID, chunk)
		r.fetches++
		if err != nil {
			return fmt.Errorf("failed to fetch rule descriptions: %w", err)
		}

		for _, id := range chunk {
			r.entries[id] = ""
		}
		for _, info := range infos {
			r.entries[info.ID] = info.Description
		}

		r.log.Debug().
			Str("zone", zoneID).
			Int("requested", len(chunk)).
			Int("returned", len(infos)).
			Msg("Rule descriptions fetched")
	}
	return nil
}

// Fetches returns the number of provider requests made so far
func (r *RuleDescriptions) Fetches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetches
}

// Len returns the number of cached IDs
func (r *RuleDescriptions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

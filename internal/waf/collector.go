package waf

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/benedict-erwin/wafanalyzer/pkg/logger"
)

const (
	// DefaultMaxPages is the per-zone page ceiling
	DefaultMaxPages = 10

	// DefaultPerPage is the events page size
	DefaultPerPage = 50
)

// CollectorOptions configures pagination
type CollectorOptions struct {
	MaxPages int
	PerPage  int
}

// Collector walks the cursor-paginated events endpoint zone by zone and
// memoizes the result per zone set.
type Collector struct {
	source   EventSource
	rules    *RuleDescriptions
	maxPages int
	perPage  int
	log      *logger.ScopedLogger

	mu    sync.Mutex
	cache map[string][]Event
}

// NewCollector creates a collector that enriches into rules
func NewCollector(source EventSource, rules *RuleDescriptions, opts CollectorOptions) *Collector {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	return &Collector{
		source:   source,
		rules:    rules,
		maxPages: opts.MaxPages,
		perPage:  opts.PerPage,
		log:      logger.WithScope("collector"),
		cache:    make(map[string][]Event),
	}
}

// Events returns the events for zoneIDs, fetching them on first access only
func (c *Collector) Events(ctx context.Context, zoneIDs []string) ([]Event, error) {
	key := strings.Join(zoneIDs, ",")

	c.mu.Lock()
	defer c.mu.Unlock()

	if events, ok := c.cache[key]; ok {
		c.log.Debug().Str("zones", key).Int("events", len(events)).Msg("Using cached event set")
		return events, nil
	}

	events, err := c.Collect(ctx, zoneIDs)
	if err != nil {
		return nil, err
	}
	c.cache[key] = events
	return events, nil
}

// Collect fetches every zone in order and concatenates their events
func (c *Collector) Collect(ctx context.Context, zoneIDs []string) ([]Event, error) {
	events := make([]Event, 0)
	for _, zoneID := range zoneIDs {
		zoneEvents, err := c.collectZone(ctx, zoneID)
		if err != nil {
			return nil, err
		}
		events = append(events, zoneEvents...)
	}
	return events, nil
}

// collectZone pages until an empty page, a missing cursor or the page ceiling
func (c *Collector) collectZone(ctx context.Context, zoneID string) ([]Event, error) {
	var events []Event
	cursor := ""

	c.log.Info().Str("zone", zoneID).Msg("Zone")

	for page := 0; ; {
		c.log.Info().Str("zone", zoneID).Int("page", page+1).Msg("Fetching page")

		resp, err := c.source.FirewallEvents(ctx, zoneID, page, c.perPage, cursor)
		if err != nil {
			return nil, fmt.Errorf("zone %s page %d: %w", zoneID, page+1, err)
		}

		var newIDs []string
		queued := make(map[string]bool)
		for _, w := range resp.Events {
			ev := NewEvent(zoneID, w)
			for _, id := range ev.TriggeredRuleIDs {
				if queued[id] || (c.rules != nil && c.rules.Has(id)) {
					continue
				}
				queued[id] = true
				newIDs = append(newIDs, id)
			}
			events = append(events, ev)
		}

		if len(newIDs) > 0 && c.rules != nil {
			if err := c.rules.Lookup(ctx, zoneID, newIDs); err != nil {
				return nil, fmt.Errorf("zone %s page %d: %w", zoneID, page+1, err)
			}
		}

		page++
		if len(resp.Events) == 0 || resp.NextPageID == nil || *resp.NextPageID == "" || page >= c.maxPages {
			evt := c.log.Debug().
				Str("zone", zoneID).
				Int("pages", page).
				Int("events", len(events))
			if c.rules != nil {
				evt = evt.Int("rules_cached", c.rules.Len())
			}
			evt.Msg("Zone complete")
			break
		}
		cursor = *resp.NextPageID
	}

	return events, nil
}

package waf

import (
	"context"
	"fmt"
	"io"

	"github.com/benedict-erwin/wafanalyzer/pkg/logger"
)

// Options sizes pagination, batching and report rows
type Options struct {
	MaxPages      int
	PerPage       int
	ZonesPerPage  int
	RuleBatchSize int
	Rows          int
}

// Analyzer owns the per-run caches and wires collector, directory and renderer
type Analyzer struct {
	api       API
	zones     *ZoneDirectory
	rules     *RuleDescriptions
	collector *Collector
	renderer  *Renderer
	log       *logger.ScopedLogger
}

// New creates an analyzer with fresh caches
func New(api API, opts Options) *Analyzer {
	rules := NewRuleDescriptions(api, opts.RuleBatchSize)
	return &Analyzer{
		api:   api,
		zones: NewZoneDirectory(api, opts.ZonesPerPage),
		rules: rules,
		collector: NewCollector(api, rules, CollectorOptions{
			MaxPages: opts.MaxPages,
			PerPage:  opts.PerPage,
		}),
		renderer: NewRenderer(rules, opts.Rows),
		log:      logger.WithScope("analyzer"),
	}
}

// WithASN enables the ASN section
func (a *Analyzer) WithASN(asn ASNResolver) *Analyzer {
	if asn != nil {
		a.renderer.WithASN(asn)
	}
	return a
}

// Zones returns the run's zone directory
func (a *Analyzer) Zones() *ZoneDirectory {
	return a.zones
}

// Run prints one aggregate report, or one report per zone when separate is
// set and more than one zone is selected
func (a *Analyzer) Run(ctx context.Context, out io.Writer, zoneIDs []string, separate bool) error {
	if separate && len(zoneIDs) > 1 {
		return a.SeparateReports(ctx, out, zoneIDs)
	}
	return a.Report(ctx, out, zoneIDs)
}

// Report prints a single report over all zoneIDs
func (a *Analyzer) Report(ctx context.Context, out io.Writer, zoneIDs []string) error {
	events, err := a.collector.Events(ctx, zoneIDs)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		a.log.Warn().Strs("zones", zoneIDs).Msg("No events returned")
	}
	return a.renderer.Report(out, events)
}

// SeparateReports prints one report per zone in input order
func (a *Analyzer) SeparateReports(ctx context.Context, out io.Writer, zoneIDs []string) error {
	for _, id := range zoneIDs {
		name, err := a.zones.Name(ctx, id)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "\nStarted grabbing WAF data for %s - ZoneID: %s\n", name, id); err != nil {
			return err
		}
		if err := a.Report(ctx, out, []string{id}); err != nil {
			return err
		}
	}
	return nil
}

// FindRay searches zones in order for rayID; nil means no zone holds it
func (a *Analyzer) FindRay(ctx context.Context, zoneIDs []string, rayID string) (*Event, error) {
	for _, zoneID := range zoneIDs {
		w, found, err := a.api.FirewallEvent(ctx, zoneID, rayID)
		if err != nil {
			return nil, fmt.Errorf("ray %s in zone %s: %w", rayID, zoneID, err)
		}
		if found {
			ev := NewEvent(zoneID, *w)
			return &ev, nil
		}
		a.log.Debug().Str("zone", zoneID).Str("ray", rayID).Msg("Ray not in zone")
	}
	return nil, nil
}

// Ray prints the detail view for rayID
func (a *Analyzer) Ray(ctx context.Context, out io.Writer, zoneIDs []string, rayID string) error {
	ev, err := a.FindRay(ctx, zoneIDs, rayID)
	if err != nil {
		return err
	}
	return a.renderer.Ray(out, rayID, ev)
}

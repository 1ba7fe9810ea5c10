package waf

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultZonesPerPage is the size of the single zones page requested
const DefaultZonesPerPage = 900

// ErrNoZoneSelected means no zone, org or all flag was given and the caller must pick
var ErrNoZoneSelected = errors.New("no zone selected")

// ZoneSelection describes which zones a run covers
type ZoneSelection struct {
	ZoneIDs []string
	Org     string
	All     bool
}

// ZoneDirectory lists the account's zones once per run
type ZoneDirectory struct {
	source  ZoneSource
	perPage int

	mu     sync.Mutex
	zones  []Zone
	loaded bool
}

// NewZoneDirectory creates a directory backed by source
func NewZoneDirectory(source ZoneSource, perPage int) *ZoneDirectory {
	if perPage <= 0 {
		perPage = DefaultZonesPerPage
	}
	return &ZoneDirectory{source: source, perPage: perPage}
}

// Zones returns the zone list, fetching it on first access
func (d *ZoneDirectory) Zones(ctx context.Context) ([]Zone, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.loaded {
		return d.zones, nil
	}

	wire, err := d.source.ListZones(ctx, d.perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}

	zones := make([]Zone, 0, len(wire))
	for _, z := range wire {
		zones = append(zones, Zone{ID: z.ID, Name: z.Name, Status: z.Status, OrgID: z.Owner.ID})
	}
	d.zones = zones
	d.loaded = true
	return zones, nil
}

// Name returns the display name of a zone, or "" when unknown
func (d *ZoneDirectory) Name(ctx context.Context, id string) (string, error) {
	zones, err := d.Zones(ctx)
	if err != nil {
		return "", err
	}
	for _, z := range zones {
		if z.ID == id {
			return z.Name, nil
		}
	}
	return "", nil
}

// Resolve turns a selection into ordered zone IDs. An org (without all) wins
// over explicit zones; all wins over both. With nothing selected it returns
// ErrNoZoneSelected.
func (d *ZoneDirectory) Resolve(ctx context.Context, sel ZoneSelection) ([]string, error) {
	switch {
	case len(sel.ZoneIDs) == 0 && sel.Org == "" && !sel.All:
		return nil, ErrNoZoneSelected

	case sel.Org != "" && !sel.All:
		zones, err := d.Zones(ctx)
		if err != nil {
			return nil, err
		}
		var ids []string
		for _, z := range zones {
			if z.OrgID == sel.Org {
				ids = append(ids, z.ID)
			}
		}
		return ids, nil

	case len(sel.ZoneIDs) > 0 && !sel.All:
		return append([]string(nil), sel.ZoneIDs...), nil

	default:
		zones, err := d.Zones(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(zones))
		for _, z := range zones {
			ids = append(ids, z.ID)
		}
		return ids, nil
	}
}

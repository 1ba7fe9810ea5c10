package waf

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/benedict-erwin/wafanalyzer/pkg/cloudflare"
	"github.com/benedict-erwin/wafanalyzer/pkg/geoip"
)

func strPtr(s string) *string { return &s }

// fakeAPI is an in-memory provider recording every call
type fakeAPI struct {
	mu sync.Mutex

	zones []cloudflare.Zone
	pages map[string][]cloudflare.EventsPage
	rays  map[string]map[string]cloudflare.FirewallEvent
	descs map[string]string

	// endless makes every zone return one event and a cursor forever
	endless bool
	failOn  string
	ruleErr error

	zoneCalls  int
	eventCalls map[string]int
	cursors    []string
	ruleCalls  [][]string
	rayCalls   []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		pages:      make(map[string][]cloudflare.EventsPage),
		rays:       make(map[string]map[string]cloudflare.FirewallEvent),
		descs:      make(map[string]string),
		eventCalls: make(map[string]int),
	}
}

func (f *fakeAPI) totalEventCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.eventCalls {
		total += n
	}
	return total
}

func (f *fakeAPI) ListZones(ctx context.Context, perPage int) ([]cloudflare.Zone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.zoneCalls++
	return f.zones, nil
}

func (f *fakeAPI) FirewallEvents(ctx context.Context, zoneID string, page, perPage int, cursor string) (*cloudflare.EventsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if zoneID == f.failOn {
		return nil, &cloudflare.APIError{Kind: cloudflare.KindTransport, Path: "zones/" + zoneID, Err: errors.New("connection refused")}
	}

	f.eventCalls[zoneID]++
	f.cursors = append(f.cursors, cursor)

	if f.endless {
		return &cloudflare.EventsPage{
			Events:     []cloudflare.FirewallEvent{{RayID: fmt.Sprintf("%s-%d", zoneID, page), Country: "US"}},
			NextPageID: strPtr(fmt.Sprintf("cursor-%d", page+1)),
		}, nil
	}

	idx := f.eventCalls[zoneID] - 1
	if idx < len(f.pages[zoneID]) {
		p := f.pages[zoneID][idx]
		return &p, nil
	}
	return &cloudflare.EventsPage{}, nil
}

func (f *fakeAPI) RuleInfo(ctx context.Context, zoneID string, ids []string) ([]cloudflare.RuleInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ruleCalls = append(f.ruleCalls, append([]string(nil), ids...))
	if f.ruleErr != nil {
		return nil, f.ruleErr
	}
	var out []cloudflare.RuleInfo
	for _, id := range ids {
		if desc, ok := f.descs[id]; ok {
			out = append(out, cloudflare.RuleInfo{ID: id, Description: desc})
		}
	}
	return out, nil
}

func (f *fakeAPI) FirewallEvent(ctx context.Context, zoneID, rayID string) (*cloudflare.FirewallEvent, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rayCalls = append(f.rayCalls, zoneID)
	if ev, ok := f.rays[zoneID][rayID]; ok {
		return &ev, true, nil
	}
	return nil, false, nil
}

// page builds an events page with a cursor (empty cursor means nil)
func page(cursor string, events ...cloudflare.FirewallEvent) cloudflare.EventsPage {
	p := cloudflare.EventsPage{Events: events}
	if cursor != "" {
		p.NextPageID = strPtr(cursor)
	}
	return p
}

// fakeASN resolves IPs from a static table
type fakeASN map[string]geoip.ASNInfo

func (f fakeASN) Lookup(ip string) geoip.ASNInfo {
	if info, ok := f[ip]; ok {
		return info
	}
	return geoip.ASNInfo{IP: ip}
}

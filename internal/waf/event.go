// Package waf collects firewall events for a set of zones, enriches them
// with rule descriptions and renders ranked threat reports.
package waf

import (
	"context"

	"github.com/benedict-erwin/wafanalyzer/pkg/cloudflare"
	"github.com/benedict-erwin/wafanalyzer/pkg/geoip"
)

const (
	// IPFirewallMessage replaces the rule message of events blocked without a rule
	IPFirewallMessage = "IP Firewall"

	// OWASPRulePrefix marks the anomaly-scoring rule family whose sub-rules get detail output
	OWASPRulePrefix = "981176"

	// DefaultRows is the number of entries per ranked section
	DefaultRows = 15
)

// Event is a normalized WAF event
type Event struct {
	ZoneID           string
	RayID            string
	RuleID           string
	RuleMessage      string
	Country          string
	Location         string
	IP               string
	Host             string
	URI              string
	UserAgent        string
	Protocol         string
	Method           string
	Action           string
	OccurredAt       string
	Duration         float64
	TriggeredRuleIDs []string
}

// NewEvent converts a wire event. A missing or empty rule ID marks an IP
// firewall block: the ID becomes "" and the message IPFirewallMessage.
func NewEvent(zoneID string, w cloudflare.FirewallEvent) Event {
	ev := Event{
		ZoneID:           zoneID,
		RayID:            w.RayID,
		RuleMessage:      w.RuleMessage,
		Country:          w.Country,
		Location:         w.CloudflareLocation,
		IP:               w.IP,
		Host:             w.Host,
		URI:              w.URI,
		UserAgent:        w.UserAgent,
		Protocol:         w.Protocol,
		Method:           w.Method,
		Action:           w.Action,
		OccurredAt:       w.OccurredAt,
		Duration:         w.RequestDuration,
		TriggeredRuleIDs: append([]string(nil), w.TriggeredRuleIDs...),
	}
	if w.RuleID != nil {
		ev.RuleID = *w.RuleID
	}
	if ev.RuleID == "" {
		ev.RuleMessage = IPFirewallMessage
	}
	return ev
}

// Zone is a provider zone reduced to what reports need
type Zone struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	OrgID  string `json:"org_id"`
}

// EventSource pages through firewall events
type EventSource interface {
	FirewallEvents(ctx context.Context, zoneID string, page, perPage int, cursor string) (*cloudflare.EventsPage, error)
}

// RuleInfoSource fetches rule descriptions by ID
type RuleInfoSource interface {
	RuleInfo(ctx context.Context, zoneID string, ids []string) ([]cloudflare.RuleInfo, error)
}

// ZoneSource lists zones
type ZoneSource interface {
	ListZones(ctx context.Context, perPage int) ([]cloudflare.Zone, error)
}

// RaySource fetches a single event by ray ID
type RaySource interface {
	FirewallEvent(ctx context.Context, zoneID, rayID string) (*cloudflare.FirewallEvent, bool, error)
}

// API is everything the analyzer needs from the provider; *cloudflare.Client implements it
type API interface {
	EventSource
	RuleInfoSource
	ZoneSource
	RaySource
}

// ASNResolver maps a client IP to its autonomous system
type ASNResolver interface {
	Lookup(ip string) geoip.ASNInfo
}

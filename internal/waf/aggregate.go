package waf

import (
	"sort"
	"strings"
)

// Field names an event attribute usable as a grouping key
type Field int

const (
	FieldCountry Field = iota
	FieldIP
	FieldHost
	FieldURI
	FieldUserAgent
	FieldRuleMessage
	FieldAction
	FieldMethod
	FieldProtocol
	FieldLocation
)

// Value extracts the field from e
func (f Field) Value(e Event) string {
	switch f {
	case FieldCountry:
		return e.Country
	case FieldIP:
		return e.IP
	case FieldHost:
		return e.Host
	case FieldURI:
		return e.URI
	case FieldUserAgent:
		return e.UserAgent
	case FieldRuleMessage:
		return e.RuleMessage
	case FieldAction:
		return e.Action
	case FieldMethod:
		return e.Method
	case FieldProtocol:
		return e.Protocol
	case FieldLocation:
		return e.Location
	}
	return ""
}

// Key is a grouping key of up to two parts. Parts stay separate while
// counting so ("ab","c") and ("a","bc") are distinct groups.
type Key struct {
	First  string
	Second string
}

// String flattens the key by plain concatenation, as reports print it
func (k Key) String() string {
	return k.First + k.Second
}

// Selector derives the grouping key of an event
type Selector func(Event) Key

// ByField groups by a single field
func ByField(f Field) Selector {
	return func(e Event) Key {
		return Key{First: f.Value(e)}
	}
}

// ByFields groups by two fields in order, e.g. host then URI
func ByFields(first, second Field) Selector {
	return func(e Event) Key {
		return Key{First: first.Value(e), Second: second.Value(e)}
	}
}

// Ranked is one row of a frequency table
type Ranked[K comparable] struct {
	Key   K
	Count int
}

// counter counts keys remembering first-seen order for tie-breaks
type counter[K comparable] struct {
	index map[K]int
	rows  []Ranked[K]
}

func newCounter[K comparable]() *counter[K] {
	return &counter[K]{index: make(map[K]int)}
}

func (c *counter[K]) add(k K) {
	if i, ok := c.index[k]; ok {
		c.rows[i].Count++
		return
	}
	c.index[k] = len(c.rows)
	c.rows = append(c.rows, Ranked[K]{Key: k, Count: 1})
}

// top returns at most limit rows by descending count; equal counts keep first-seen order
func (c *counter[K]) top(limit int) []Ranked[K] {
	rows := append([]Ranked[K](nil), c.rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})
	if limit >= 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// TopN counts events by sel and returns the limit most frequent keys
func TopN(events []Event, sel Selector, limit int) []Ranked[Key] {
	c := newCounter[Key]()
	for i := range events {
		c.add(sel(events[i]))
	}
	return c.top(limit)
}

// RuleKey identifies a top-level rule hit
type RuleKey struct {
	ID      string
	Message string
}

// String renders "<id> <message>"; IP firewall hits therefore start with a space
func (k RuleKey) String() string {
	return k.ID + " " + k.Message
}

// IsOWASP reports whether the rule belongs to the OWASP family
func (k RuleKey) IsOWASP() bool {
	return strings.HasPrefix(k.ID, OWASPRulePrefix)
}

// RuleStats holds the two correlated rule tables
type RuleStats struct {
	Rules    []Ranked[RuleKey]
	SubRules []Ranked[string]
}

// TopRules counts top-level rules and triggered sub-rules in a single pass
func TopRules(events []Event, limit int) RuleStats {
	rules := newCounter[RuleKey]()
	subRules := newCounter[string]()

	for i := range events {
		ev := &events[i]
		rules.add(RuleKey{ID: ev.RuleID, Message: ev.RuleMessage})
		for _, id := range ev.TriggeredRuleIDs {
			subRules.add(id)
		}
	}

	return RuleStats{
		Rules:    rules.top(limit),
		SubRules: subRules.top(limit),
	}
}

package waf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/benedict-erwin/wafanalyzer/pkg/utils"
)

// NoDataNotice is printed ahead of a report over an empty event set
const NoDataNotice = "No data for this zone."

// Section is one ranked report over a grouping key
type Section struct {
	Title    string
	Selector Selector
}

// DefaultSections are the single-key reports, in print order
var DefaultSections = []Section{
	{Title: "Top Country Threats:", Selector: ByField(FieldCountry)},
	{Title: "Top IP Threats:", Selector: ByField(FieldIP)},
	{Title: "Top URL Threats:", Selector: ByFields(FieldHost, FieldURI)},
	{Title: "Top User Agent Threats:", Selector: ByField(FieldUserAgent)},
}

// Renderer formats ranked results as text
type Renderer struct {
	rules *RuleDescriptions
	rows  int
	asn   ASNResolver
}

// NewRenderer creates a renderer printing up to rows entries per section
func NewRenderer(rules *RuleDescriptions, rows int) *Renderer {
	if rows <= 0 {
		rows = DefaultRows
	}
	return &Renderer{rules: rules, rows: rows}
}

// WithASN adds a "Top ASN Threats" section resolved through asn
func (r *Renderer) WithASN(asn ASNResolver) *Renderer {
	r.asn = asn
	return r
}

// Report writes the full threat report for events
func (r *Renderer) Report(out io.Writer, events []Event) error {
	w := bufio.NewWriter(out)

	if len(events) == 0 {
		fmt.Fprintf(w, "%s\n\n", NoDataNotice)
	}
	fmt.Fprintf(w, "Total events checked: %d\n\n", len(events))

	for _, s := range DefaultSections {
		r.writeTopEvents(w, s.Title, TopN(events, s.Selector, r.rows))
	}
	if r.asn != nil {
		r.writeTopEvents(w, "Top ASN Threats:", TopN(events, r.asnSelector(), r.rows))
	}
	r.writeTopRules(w, "Top Rule Hits:", TopRules(events, r.rows))

	return w.Flush()
}

func (r *Renderer) asnSelector() Selector {
	return func(e Event) Key {
		return Key{First: r.asn.Lookup(e.IP).Label()}
	}
}

func (r *Renderer) writeTopEvents(w io.Writer, title string, rows []Ranked[Key]) {
	fmt.Fprintf(w, "%s\n\n", title)
	for _, row := range rows {
		fmt.Fprintf(w, "- %s: %d\n", row.Key.String(), row.Count)
	}
	fmt.Fprintln(w)
}

// writeTopRules prints rule hits; the first OWASP rule gets the sub-rule table nested under it
func (r *Renderer) writeTopRules(w io.Writer, title string, stats RuleStats) {
	fmt.Fprintf(w, "%s\n\n", title)

	owaspDone := false
	for _, rule := range stats.Rules {
		fmt.Fprintf(w, "- %d Hits: %s\n", rule.Count, rule.Key.String())

		if rule.Key.IsOWASP() && !owaspDone {
			owaspDone = true
			fmt.Fprintln(w, "  OWASP Rule Details:")
			for _, sub := range stats.SubRules {
				fmt.Fprintf(w, "\t- %d Hits: %s %s\n", sub.Count, sub.Key, r.description(sub.Key))
			}
		}
	}
	fmt.Fprintln(w)
}

func (r *Renderer) description(id string) string {
	if r.rules == nil {
		return ""
	}
	desc, _ := r.rules.Description(id)
	return desc
}

// rayField is one labeled line of the single-event view
type rayField struct {
	Label string
	Value func(Event) string
}

var rayFields = []rayField{
	{"Message", FieldRuleMessage.Value},
	{"Country", FieldCountry.Value},
	{"Location", FieldLocation.Value},
	{"Duration", func(e Event) string { return strconv.FormatFloat(e.Duration, 'f', -1, 64) }},
	{"Protocol", FieldProtocol.Value},
	{"Time", func(e Event) string { return utils.FormatTimestamp(e.OccurredAt) }},
	{"URI", FieldURI.Value},
	{"Host", FieldHost.Value},
	{"User Agent", FieldUserAgent.Value},
	{"Client IP", FieldIP.Value},
	{"Action", FieldAction.Value},
	{"Method", FieldMethod.Value},
}

// Ray writes the detail view of a single event, or a not-found notice when ev is nil
func (r *Renderer) Ray(out io.Writer, rayID string, ev *Event) error {
	w := bufio.NewWriter(out)
	if ev == nil {
		fmt.Fprintf(w, "WAF event not found.\n\n")
		return w.Flush()
	}

	fmt.Fprintf(w, "WAF details for ray %s:\n\n", rayID)
	for _, f := range rayFields {
		fmt.Fprintf(w, "%-12s %-10s\n", f.Label+":", f.Value(*ev))
	}
	return w.Flush()
}

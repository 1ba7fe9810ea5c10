package cloudflare

import "time"

// Message is an entry of the errors/messages arrays in an API envelope
type Message struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ResultInfo carries paging metadata for list endpoints
type ResultInfo struct {
	Page       int     `json:"page"`
	PerPage    int     `json:"per_page"`
	Count      int     `json:"count"`
	TotalCount int     `json:"total_count"`
	NextPageID *string `json:"next_page_id"`
}

// Response is the standard v4 API envelope
type Response[T any] struct {
	Success    bool        `json:"success"`
	Errors     []Message   `json:"errors"`
	Messages   []Message   `json:"messages"`
	Result     T           `json:"result"`
	ResultInfo *ResultInfo `json:"result_info"`
}

// Zone is a provider zone as returned by the zones endpoint
type Zone struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Status string    `json:"status"`
	Owner  ZoneOwner `json:"owner"`
}

// ZoneOwner identifies the organization or user owning a zone
type ZoneOwner struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Email string `json:"email"`
}

// FirewallEvent is a single WAF event. RuleID is nil for IP firewall blocks.
type FirewallEvent struct {
	RayID              string   `json:"ray_id"`
	Kind               string   `json:"kind"`
	Source             string   `json:"source"`
	Action             string   `json:"action"`
	RuleID             *string  `json:"rule_id"`
	RuleMessage        string   `json:"rule_message"`
	Country            string   `json:"country"`
	CloudflareLocation string   `json:"cloudflare_location"`
	IP                 string   `json:"ip"`
	Host               string   `json:"host"`
	URI                string   `json:"uri"`
	UserAgent          string   `json:"user_agent"`
	Protocol           string   `json:"protocol"`
	Method             string   `json:"method"`
	OccurredAt         string   `json:"occurred_at"`
	RequestDuration    float64  `json:"request_duration"`
	TriggeredRuleIDs   []string `json:"triggered_rule_ids"`
}

// EventsPage is one page of firewall events plus the cursor for the next one
type EventsPage struct {
	Events []FirewallEvent
	// NextPageID is nil when the provider returned no cursor
	NextPageID *string
	TotalCount int
}

// RuleInfo is the description of a WAF rule or sub-rule
type RuleInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Priority    string `json:"priority,omitempty"`
	Group       struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"group"`
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts int           `json:"max_attempts"`
	Delay       time.Duration `json:"delay"`
}

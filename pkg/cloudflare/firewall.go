package cloudflare

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ListZones returns the zones visible to the account, one page of perPage entries
func (c *Client) ListZones(ctx context.Context, perPage int) ([]Zone, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(perPage))

	var resp Response[[]Zone]
	if _, err := c.Get(ctx, "zones", params, &resp); err != nil {
		return nil, err
	}

	total := len(resp.Result)
	if resp.ResultInfo != nil {
		total = resp.ResultInfo.TotalCount
	}
	if total > len(resp.Result) {
		c.log.Warn().
			Int("returned", len(resp.Result)).
			Int("total_count", total).
			Msg("Zone list truncated to a single page")
	}

	return resp.Result, nil
}

// FirewallEvents fetches one page of WAF events for a zone. cursor is the
// next_page_id of the previous page, empty for the first page.
func (c *Client) FirewallEvents(ctx context.Context, zoneID string, page, perPage int, cursor string) (*EventsPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	if cursor != "" {
		params.Set("page_id", cursor)
	}

	var resp Response[[]FirewallEvent]
	if _, err := c.Get(ctx, "zones/"+url.PathEscape(zoneID)+"/firewall/events", params, &resp); err != nil {
		return nil, err
	}

	out := &EventsPage{Events: resp.Result}
	if resp.ResultInfo != nil {
		out.NextPageID = resp.ResultInfo.NextPageID
		out.TotalCount = resp.ResultInfo.TotalCount
	}
	return out, nil
}

// FirewallEvent looks up a single event by ray ID. The boolean is false when
// the zone does not hold the event.
func (c *Client) FirewallEvent(ctx context.Context, zoneID, rayID string) (*FirewallEvent, bool, error) {
	path := "zones/" + url.PathEscape(zoneID) + "/firewall/events/" + url.PathEscape(rayID)

	var resp Response[*FirewallEvent]
	accepted := append([]int{http.StatusNotFound}, DefaultAcceptedStatuses...)
	status, err := c.get(ctx, path, nil, &resp, accepted)
	if err != nil {
		return nil, false, err
	}
	if status == http.StatusNotFound || !resp.Success || resp.Result == nil {
		return nil, false, nil
	}
	return resp.Result, true, nil
}

// RuleInfo fetches descriptions for the given rule IDs in one request.
// The provider silently truncates long ID lists, so callers chunk.
func (c *Client) RuleInfo(ctx context.Context, zoneID string, ids []string) ([]RuleInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))

	var resp Response[[]RuleInfo]
	if _, err := c.Get(ctx, "zones/"+url.PathEscape(zoneID)+"/firewall/ruleinfo", params, &resp); err != nil {
		return nil, fmt.Errorf("rule info for %d ids: %w", len(ids), err)
	}
	return resp.Result, nil
}

package cloudflare

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string, attempts int) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL:       url,
		User:          "ops@example.com",
		Key:           "secret-key",
		Version:       "test",
		Timeout:       5 * time.Second,
		RetryAttempts: attempts,
		RetryDelay:    time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "http://x", Key: "k"})
	require.Error(t, err)

	_, err = NewClient(Options{BaseURL: "http://x", User: "u"})
	require.Error(t, err)
}

func TestClient_Get_SendsAuthHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/zones", r.URL.Path)
		require.Equal(t, "ops@example.com", r.Header.Get("X-Auth-Email"))
		require.Equal(t, "secret-key", r.Header.Get("X-Auth-Key"))
		require.Equal(t, "wafanalyzer-test", r.Header.Get("User-Agent"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "900", r.URL.Query().Get("per_page"))
		w.Write([]byte(`{"success":true,"result":[{"id":"z1","name":"Site1","owner":{"id":"o1"}}],"result_info":{"total_count":1}}`))
	}))
	defer server.Close()

	zones, err := newTestClient(t, server.URL, 1).ListZones(context.Background(), 900)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "z1", zones[0].ID)
	assert.Equal(t, "Site1", zones[0].Name)
	assert.Equal(t, "o1", zones[0].Owner.ID)
}

func TestClient_Get_AcceptsBadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"result":null,"errors":[{"code":1000,"message":"bad"}]}`))
	}))
	defer server.Close()

	page, err := newTestClient(t, server.URL, 1).FirewallEvents(context.Background(), "z1", 0, 50, "")
	require.NoError(t, err)
	assert.Empty(t, page.Events)
	assert.Nil(t, page.NextPageID)
}

func TestClient_Get_UnexpectedStatusIsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"success":false,"errors":[{"code":9103,"message":"Unknown X-Auth-Key"}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, 3).ListZones(context.Background(), 900)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindStatus, apiErr.Kind)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "Unknown X-Auth-Key")
}

func TestClient_Get_RetriesServerErrorsThenFails(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, 3).ListZones(context.Background(), 900)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Get_RetryRecovers(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"success":true,"result":[]}`))
	}))
	defer server.Close()

	zones, err := newTestClient(t, server.URL, 2).ListZones(context.Background(), 900)
	require.NoError(t, err)
	assert.Empty(t, zones)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Get_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url, 1).ListZones(context.Background(), 900)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindTransport, apiErr.Kind)
}

func TestClient_Get_DecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, 1).ListZones(context.Background(), 900)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindDecode, apiErr.Kind)
}

func TestClient_FirewallEvents_PagingParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/zones/z1/firewall/events", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "1", q.Get("page"))
		require.Equal(t, "50", q.Get("per_page"))
		require.Equal(t, "cursor-1", q.Get("page_id"))
		w.Write([]byte(`{"success":true,"result":[
			{"ray_id":"r1","rule_id":null,"country":"US","ip":"1.2.3.4","triggered_rule_ids":[]},
			{"ray_id":"r2","rule_id":"981176","rule_message":"Inbound Anomaly","triggered_rule_ids":["950901","960024"]}
		],"result_info":{"next_page_id":"cursor-2","total_count":120}}`))
	}))
	defer server.Close()

	page, err := newTestClient(t, server.URL, 1).FirewallEvents(context.Background(), "z1", 1, 50, "cursor-1")
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	assert.Nil(t, page.Events[0].RuleID)
	require.NotNil(t, page.Events[1].RuleID)
	assert.Equal(t, "981176", *page.Events[1].RuleID)
	assert.Equal(t, []string{"950901", "960024"}, page.Events[1].TriggeredRuleIDs)
	require.NotNil(t, page.NextPageID)
	assert.Equal(t, "cursor-2", *page.NextPageID)
	assert.Equal(t, 120, page.TotalCount)
}

func TestClient_FirewallEvents_OmitsEmptyCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["page_id"]
		require.False(t, present)
		w.Write([]byte(`{"success":true,"result":[],"result_info":{"next_page_id":null}}`))
	}))
	defer server.Close()

	page, err := newTestClient(t, server.URL, 1).FirewallEvents(context.Background(), "z1", 0, 50, "")
	require.NoError(t, err)
	assert.Nil(t, page.NextPageID)
}

func TestClient_RuleInfo_JoinsIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/zones/z1/firewall/ruleinfo", r.URL.Path)
		require.Equal(t, "950901,960024", r.URL.Query().Get("ids"))
		w.Write([]byte(`{"success":true,"result":[{"id":"950901","description":"SQL Injection"},{"id":"960024","description":"Repetitive non-word characters"}]}`))
	}))
	defer server.Close()

	infos, err := newTestClient(t, server.URL, 1).RuleInfo(context.Background(), "z1", []string{"950901", "960024"})
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "SQL Injection", infos[0].Description)
}

func TestClient_RuleInfo_EmptyIDsSkipsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	defer server.Close()

	infos, err := newTestClient(t, server.URL, 1).RuleInfo(context.Background(), "z1", nil)
	require.NoError(t, err)
	assert.Nil(t, infos)
}

func TestClient_FirewallEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/zones/z1/firewall/events/ray1":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`not found`))
		case "/zones/z2/firewall/events/ray1":
			w.Write([]byte(`{"success":true,"result":{"ray_id":"ray1","host":"a.com"}}`))
		case "/zones/z3/firewall/events/ray1":
			w.Write([]byte(`{"success":false,"result":null}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, 1)

	ev, found, err := c.FirewallEvent(context.Background(), "z1", "ray1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, ev)

	ev, found, err = c.FirewallEvent(context.Background(), "z2", "ray1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a.com", ev.Host)

	_, found, err = c.FirewallEvent(context.Background(), "z3", "ray1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClient_StringMasksCredentials(t *testing.T) {
	c := newTestClient(t, "http://localhost", 1)
	s := c.String()
	assert.NotContains(t, s, "secret-key")
	assert.NotContains(t, s, "ops@example.com")
}

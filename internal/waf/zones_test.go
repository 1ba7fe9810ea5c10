package waf

import (
	"context"
	"testing"

	"github.com/benedict-erwin/wafanalyzer/pkg/cloudflare"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zoneFixture() *fakeAPI {
	api := newFakeAPI()
	api.zones = []cloudflare.Zone{
		{ID: "z1", Name: "site1.com", Owner: cloudflare.ZoneOwner{ID: "o1"}},
		{ID: "z2", Name: "site2.com", Owner: cloudflare.ZoneOwner{ID: "o2"}},
		{ID: "z3", Name: "site3.com", Owner: cloudflare.ZoneOwner{ID: "o1"}},
	}
	return api
}

func TestZoneDirectory_Resolve(t *testing.T) {
	tests := []struct {
		name string
		sel  ZoneSelection
		want []string
		err  error
	}{
		{name: "nothing selected", sel: ZoneSelection{}, err: ErrNoZoneSelected},
		{name: "explicit zones keep order", sel: ZoneSelection{ZoneIDs: []string{"z3", "z1"}}, want: []string{"z3", "z1"}},
		{name: "org filters zones", sel: ZoneSelection{Org: "o1"}, want: []string{"z1", "z3"}},
		{name: "org wins over zones", sel: ZoneSelection{Org: "o2", ZoneIDs: []string{"z1"}}, want: []string{"z2"}},
		{name: "unknown org", sel: ZoneSelection{Org: "nope"}, want: nil},
		{name: "all", sel: ZoneSelection{All: true}, want: []string{"z1", "z2", "z3"}},
		{name: "all wins over org", sel: ZoneSelection{All: true, Org: "o2"}, want: []string{"z1", "z2", "z3"}},
		{name: "all wins over zones", sel: ZoneSelection{All: true, ZoneIDs: []string{"z2"}}, want: []string{"z1", "z2", "z3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewZoneDirectory(zoneFixture(), 0)
			got, err := d.Resolve(context.Background(), tt.sel)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestZoneDirectory_ExplicitZonesSkipListing(t *testing.T) {
	api := zoneFixture()
	d := NewZoneDirectory(api, 0)

	_, err := d.Resolve(context.Background(), ZoneSelection{ZoneIDs: []string{"z1"}})
	require.NoError(t, err)
	assert.Equal(t, 0, api.zoneCalls)
}

func TestZoneDirectory_ListsOnce(t *testing.T) {
	api := zoneFixture()
	d := NewZoneDirectory(api, 0)
	ctx := context.Background()

	zones, err := d.Zones(ctx)
	require.NoError(t, err)
	assert.Equal(t, Zone{ID: "z2", Name: "site2.com", OrgID: "o2"}, zones[1])

	name, err := d.Name(ctx, "z3")
	require.NoError(t, err)
	assert.Equal(t, "site3.com", name)

	name, err = d.Name(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, name)

	_, err = d.Resolve(ctx, ZoneSelection{All: true})
	require.NoError(t, err)

	assert.Equal(t, 1, api.zoneCalls)
}

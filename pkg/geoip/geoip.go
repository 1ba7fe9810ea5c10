package geoip

import (
	"fmt"
	"net/netip"
	"sync"

	"github.com/benedict-erwin/wafanalyzer/config"
	"github.com/benedict-erwin/wafanalyzer/pkg/logger"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oschwald/geoip2-golang/v2"
)

// ASNInfo holds Autonomous System Number information for an IP
type ASNInfo struct {
	IP           string `json:"ip"`
	ASN          uint   `json:"asn"`
	Organization string `json:"organization"`
}

// Label renders the ASN as "AS<n> <org>", or empty when unknown
func (a ASNInfo) Label() string {
	if a.ASN == 0 {
		return ""
	}
	if a.Organization == "" {
		return fmt.Sprintf("AS%d", a.ASN)
	}
	return fmt.Sprintf("AS%d %s", a.ASN, a.Organization)
}

// asnLookup is the subset of geoip2.Reader used here
type asnLookup interface {
	ASN(ip netip.Addr) (*geoip2.ASN, error)
	Close() error
}

// ASNReader resolves client IPs to ASNs with an LRU cache in front of the database
type ASNReader struct {
	mu      sync.Mutex
	db      asnLookup
	cache   *lru.Cache[string, ASNInfo]
	lookups int
	log     *logger.ScopedLogger
}

// Open opens the ASN database at path with a cache of cacheSize entries
func Open(path string, cacheSize int) (*ASNReader, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ASN database %s: %w", path, err)
	}
	return newASNReader(db, cacheSize)
}

// OpenFromConfig returns nil without error when geoip is disabled
func OpenFromConfig(cfg config.GeoIPConfig) (*ASNReader, error) {
	if !cfg.Enabled {
		logger.Debug().Msg("GeoIP ASN enrichment disabled")
		return nil, nil
	}
	return Open(cfg.ASNDB, cfg.CacheSize)
}

func newASNReader(db asnLookup, cacheSize int) (*ASNReader, error) {
	if cacheSize <= 0 {
		cacheSize = 4096
	}
	cache, err := lru.New[string, ASNInfo](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create ASN cache: %w", err)
	}

	r := &ASNReader{db: db, cache: cache, log: logger.WithScope("geoip")}
	r.log.Info().Int("max_entries", cacheSize).Msg("ASN reader initialized")
	return r, nil
}

// Lookup resolves ip; unknown or invalid addresses yield an ASNInfo with ASN 0
func (r *ASNReader) Lookup(ip string) ASNInfo {
	if cached, ok := r.cache.Get(ip); ok {
		return cached
	}

	result := ASNInfo{IP: ip}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		r.log.Debug().Err(err).Str("ip", ip).Msg("Invalid IP address format")
		r.cache.Add(ip, result)
		return result
	}

	r.mu.Lock()
	record, err := r.db.ASN(addr)
	r.lookups++
	r.mu.Unlock()
	if err != nil {
		r.log.Debug().Err(err).Str("ip", ip).Msg("ASN lookup failed")
	} else if record != nil {
		result.ASN = record.AutonomousSystemNumber
		result.Organization = record.AutonomousSystemOrganization
	}

	r.cache.Add(ip, result)
	return result
}

// Lookups returns how many database lookups were performed
func (r *ASNReader) Lookups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups
}

// Close releases the database
func (r *ASNReader) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	r.cache.Purge()
	return r.db.Close()
}

package cmd

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"github.com/benedict-erwin/wafanalyzer/config"
	"github.com/benedict-erwin/wafanalyzer/internal/waf"
	"github.com/benedict-erwin/wafanalyzer/pkg/cloudflare"
	"github.com/benedict-erwin/wafanalyzer/pkg/geoip"
	"github.com/benedict-erwin/wafanalyzer/pkg/logger"
	"github.com/benedict-erwin/wafanalyzer/pkg/utils"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// session bundles what one command run needs
type session struct {
	cfg      *config.Config
	analyzer *waf.Analyzer
	asn      *geoip.ASNReader
	prompt   *prompter
}

// openSession resolves credentials, builds the API client and the analyzer
func openSession(cmd *cobra.Command) (*session, error) {
	cfg := config.Get()
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}

	p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	creds, err := p.credentials(config.Credentials{User: cfg.Cloudflare.User, Key: cfg.Cloudflare.Key})
	if err != nil {
		return nil, err
	}

	client, err := cloudflare.NewClientFromConfig(cfg.Cloudflare, creds, cfg.App.Version)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("client", client.String()).Msg("API client ready")

	analyzer := waf.New(client, waf.Options{
		MaxPages:      cfg.Cloudflare.MaxPages,
		PerPage:       cfg.Cloudflare.PerPage,
		ZonesPerPage:  cfg.Cloudflare.ZonesPerPage,
		RuleBatchSize: cfg.Cloudflare.RuleBatchSize,
		Rows:          cfg.Report.Rows,
	})

	asn, err := geoip.OpenFromConfig(cfg.GeoIP)
	if err != nil {
		logger.Warn().Err(err).Msg("ASN database unavailable, continuing without ASN section")
	} else if asn != nil {
		analyzer.WithASN(asn)
	}

	return &session{cfg: cfg, analyzer: analyzer, asn: asn, prompt: p}, nil
}

// resolveZones applies --zone/--org/--all and falls back to the interactive picker
func (s *session) resolveZones(ctx context.Context) ([]string, error) {
	sel := waf.ZoneSelection{
		ZoneIDs: utils.SplitList(s.cfg.Cloudflare.Zone),
		Org:     s.cfg.Cloudflare.Org,
		All:     allZones,
	}

	ids, err := s.analyzer.Zones().Resolve(ctx, sel)
	if errors.Is(err, waf.ErrNoZoneSelected) {
		zones, err := s.analyzer.Zones().Zones(ctx)
		if err != nil {
			return nil, err
		}
		id, err := s.prompt.pickZone(zones)
		if err != nil {
			return nil, err
		}
		return []string{id}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		logger.Warn().Str("org", sel.Org).Msg("Selection matched no zones")
	}
	return ids, nil
}

// Close releases the ASN database
func (s *session) Close() {
	if s.asn == nil {
		return
	}
	logger.Debug().Int("lookups", s.asn.Lookups()).Msg("Closing ASN database")
	if err := s.asn.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close ASN database")
	}
}

// interactive reports whether in is a terminal we may prompt on.
// Readers that are not files (tests, pipes wrapped by callers) count as interactive.
func interactive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return true
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive(in),
	}
}

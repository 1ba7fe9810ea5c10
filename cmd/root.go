package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/benedict-erwin/wafanalyzer/config"
	"github.com/benedict-erwin/wafanalyzer/pkg/logger"
	"github.com/benedict-erwin/wafanalyzer/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "wafanalyzer",
	Short: "Cloudflare WAF event analyzer",
	Long: `Fetches recent firewall events for one or more Cloudflare zones and prints
ranked threat reports by country, IP, URL, user agent and rule.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runReport,
}

// Command flags
var (
	allZones bool
	separate bool
	rayID    string
	verbose  bool
)

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints the single user-facing error line; the log copy stays at debug
func reportError(w io.Writer, err error) {
	logger.Debug().Err(err).Msg("Failed to execute command")
	fmt.Fprintf(w, "Error: %v\n", err)
}

// init registers flags, binds them over config and adds subcommands
func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("user", "u", "", "The user account")
	pf.StringP("key", "k", "", "The API key")
	pf.StringP("zone", "z", "", "The zone ID (comma separated for several)")
	pf.StringP("org", "o", "", "The organization ID")
	pf.BoolVarP(&allZones, "all", "a", false, "All zones (overwrites zone ID)")
	pf.BoolVar(&verbose, "verbose", false, "Debug logging on stderr")

	viper.BindPFlag("cloudflare.user", pf.Lookup("user"))
	viper.BindPFlag("cloudflare.key", pf.Lookup("key"))
	viper.BindPFlag("cloudflare.zone", pf.Lookup("zone"))
	viper.BindPFlag("cloudflare.org", pf.Lookup("org"))

	rootCmd.Flags().BoolVarP(&separate, "separate", "s", false, "Separate reports per zone")
	rootCmd.Flags().StringVarP(&rayID, "ray", "r", "", "The ray ID")

	rootCmd.AddCommand(zonesCmd)
	rootCmd.AddCommand(rayCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads config, then configures logger and timezone from it
func setup(cmd *cobra.Command, args []string) error {
	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()

	level := cfg.App.LogLevel
	if verbose {
		level = "debug"
	}
	logger.Init(logger.Options{
		Timezone: cfg.App.Timezone,
		Format:   cfg.App.LogFormat,
		Level:    level,
		Output:   cmd.ErrOrStderr(),
	})

	if err := utils.InitTimezone(cfg.App.Timezone); err != nil {
		logger.Warn().Err(err).Msg("Timezone initialization failed, continuing with UTC")
	}
	return nil
}

// runReport prints the aggregate or per-zone report, or a single ray when --ray is set
func runReport(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := cmd.Context()
	zoneIDs, err := sess.resolveZones(ctx)
	if err != nil {
		return err
	}

	if rayID != "" {
		return sess.analyzer.Ray(ctx, cmd.OutOrStdout(), zoneIDs, rayID)
	}
	return sess.analyzer.Run(ctx, cmd.OutOrStdout(), zoneIDs, separate)
}

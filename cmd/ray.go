package cmd

import (
	"github.com/spf13/cobra"
)

var rayCmd = &cobra.Command{
	Use:   "ray [ray_id]",
	Short: "Show a single WAF event",
	Long:  "Look up one WAF event by ray ID in the selected zones and print its details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer sess.Close()

		zoneIDs, err := sess.resolveZones(cmd.Context())
		if err != nil {
			return err
		}
		return sess.analyzer.Ray(cmd.Context(), cmd.OutOrStdout(), zoneIDs, args[0])
	},
}

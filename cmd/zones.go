package cmd

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var zonesJSON bool

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "List the account's zones",
	Long:  "List every zone visible to the account with its ID, name, status and owning organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer sess.Close()

		zones, err := sess.analyzer.Zones().Zones(cmd.Context())
		if err != nil {
			return err
		}

		if zonesJSON {
			output, err := json.MarshalIndent(zones, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal zones: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return nil
		}
		return renderZoneTable(cmd.OutOrStdout(), zones, false)
	},
}

func init() {
	zonesCmd.Flags().BoolVar(&zonesJSON, "json", false, "Output as JSON")
}

package commands

import (
	"github.com/spf13/cobra"

	"smart-scraper/models"
	"smart-scraper/report"
)

func init() {
	addSaveFlags(rankCmd)
	rootCmd.AddCommand(rankCmd)
}

var rankCmd = &cobra.Command{
	Use:   "rank <domain>...",
	Short: "Looks up the traffic rank of one or more domains.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		records := make([]models.Record, 0, len(args))
		for _, domain := range args {
			rank, err := client.AlexaRank(ctx, domain)
			if err != nil {
				return err
			}
			report.Rank(cmd.OutOrStdout(), domain, rank)
			records = append(records, models.Record{
				"domain":       domain,
				"rank":         rank.Global,
				"country_code": rank.CountryCode,
				"country_rank": rank.CountryRank,
			})
		}
		return save(ctx, "rank", records)
	},
}

package commands

import (
	"github.com/spf13/cobra"

	"smart-scraper/models"
	"smart-scraper/report"
)

var robotsAgent string

func init() {
	robotsCmd.Flags().StringVar(&robotsAgent, "agent", "*", "User agent the saved records are checked against.")
	addSaveFlags(robotsCmd)
	rootCmd.AddCommand(robotsCmd)
}

var robotsCmd = &cobra.Command{
	Use:   "robots <url>",
	Short: "Lists the paths referenced by a site's robots.txt.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		robots, err := client.ParseRobots(ctx, args[0])
		if err != nil {
			return err
		}

		urls := robots.URLs()
		report.List(cmd.OutOrStdout(), "Path", urls)
		if len(robots.Sitemaps) > 0 {
			report.List(cmd.OutOrStdout(), "Sitemap", robots.Sitemaps)
		}

		records := make([]models.Record, 0, len(urls))
		for i, u := range urls {
			records = append(records, models.Record{
				"url":     u,
				"path":    robots.Paths[i],
				"allowed": robots.Allowed(robots.Paths[i], robotsAgent),
			})
		}
		return save(ctx, robots.Origin+"/robots.txt", records)
	},
}

package commands

import (
	"github.com/spf13/cobra"

	"smart-scraper/crawler"
	"smart-scraper/models"
	"smart-scraper/report"
)

var (
	linksSearch  string
	linksPattern string
)

func init() {
	linksCmd.Flags().StringVarP(&linksSearch, "search", "s", "", "Only keep links containing this text.")
	linksCmd.Flags().StringVarP(&linksPattern, "pattern", "p", "", "Match this regular expression against the raw page instead.")
	addSaveFlags(linksCmd)
	rootCmd.AddCommand(linksCmd)
}

var linksCmd = &cobra.Command{
	Use:   "links <url> [--search text | --pattern regexp] [-o links.json]",
	Short: "Lists the hyperlinks of a page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		res, err := client.SendRequest(ctx, args[0], requestOptions())
		if err != nil {
			return err
		}

		var links []string
		if linksPattern != "" {
			links, err = crawler.ReLinks(res, linksPattern)
		} else {
			links, err = crawler.Links(res, linksSearch)
		}
		if err != nil {
			return err
		}

		report.List(cmd.OutOrStdout(), "Link", links)

		records := make([]models.Record, 0, len(links))
		for _, link := range links {
			records = append(records, models.Record{"url": link})
		}
		return save(ctx, res.URL, records)
	},
}

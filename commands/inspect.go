package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"smart-scraper/crawler"
	"smart-scraper/models"
	"smart-scraper/output"
	"smart-scraper/report"
)

func init() {
	addSaveFlags(inspectCmd)
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <url>...",
	Short: "Fetches pages and reports their size, load time and content metrics.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zerolog.Ctx(ctx)

		pages := make([]*models.Page, 0, len(args))
		for _, u := range args {
			doc, err := client.Fetch(ctx, u, requestOptions())
			if err != nil {
				return err
			}
			page := crawler.NewPage(doc)
			report.Page(cmd.OutOrStdout(), page)
			pages = append(pages, page)
		}

		if file := outputFile(); file != "" {
			records := make([]models.Record, 0, len(pages))
			for _, p := range pages {
				records = append(records, pageRecord(p))
			}
			if err := output.SaveAsJSON(records, file, output.Options{SortBy: sortBy, NoDuplicate: unique}); err != nil {
				return err
			}
			log.Info().Str("file", file).Int("records", len(records)).Msg("saved records")
		}

		if !useDB {
			return nil
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		for _, p := range pages {
			if err := db.SavePage(p); err != nil {
				return fmt.Errorf("failed to store page %s: %w", p.URL, err)
			}
			log.Debug().Str("url", p.URL).Int64("id", p.ID).Msg("stored page")

			same, err := db.GetPagesByHash(p.Metrics.Hash)
			if err != nil {
				return fmt.Errorf("failed to look up page hash: %w", err)
			}
			for _, other := range same {
				if other.URL != p.URL {
					log.Warn().Str("url", p.URL).Str("duplicate_of", other.URL).Msg("page content already stored")
				}
			}
		}
		return nil
	},
}

func pageRecord(p *models.Page) models.Record {
	return models.Record{
		"url":             p.URL,
		"status":          p.StatusCode,
		"content_type":    p.ContentType,
		"size":            p.Size,
		"load_time_ms":    p.LoadTime,
		"links":           p.Links,
		"title":           p.Metrics.Title,
		"content_quality": p.Metrics.ContentQuality,
		"link_density":    p.Metrics.LinkDensity,
		"importance":      p.Metrics.Importance,
		"hash":            p.Metrics.Hash,
	}
}

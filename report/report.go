// report/report.go
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"smart-scraper/models"
)

func NewTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

// List prints one value per row under a single header.
func List(out io.Writer, header string, values []string) {
	t := NewTable(out)
	t.AppendHeader(table.Row{"#", header})
	for i, v := range values {
		t.AppendRow(table.Row{i + 1, v})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d total", len(values))})
	t.Render()
}

func Page(out io.Writer, page *models.Page) {
	t := NewTable(out)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"URL", page.URL},
		{"Title", page.Metrics.Title},
		{"Status", page.StatusCode},
		{"Content Type", page.ContentType},
		{"Size", FormatBytes(page.Size)},
		{"Load Time", (time.Duration(page.LoadTime) * time.Millisecond).String()},
		{"Links", page.Links},
		{"Content Quality", formatScore(page.Metrics.ContentQuality)},
		{"Link Density", formatScore(page.Metrics.LinkDensity)},
		{"Importance", formatScore(page.Metrics.Importance)},
		{"Hash", page.Metrics.Hash},
	})
	t.Render()
}

func Rank(out io.Writer, domain string, rank *models.Rank) {
	t := NewTable(out)
	t.AppendHeader(table.Row{"Domain", "Global Rank", "Country", "Country Rank"})
	t.AppendRow(table.Row{domain, rank.Global, rank.CountryCode, rank.CountryRank})
	t.Render()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

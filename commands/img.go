package commands

import (
	"errors"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"smart-scraper/crawler"
	"smart-scraper/report"
	"smart-scraper/utils"
)

var (
	imgOut      string
	imgDir      string
	imgRandom   bool
	imgSelector string
	imgAttr     string
)

func init() {
	imgCmd.Flags().StringVarP(&imgOut, "out", "o", "", "File name for a single image.")
	imgCmd.Flags().StringVar(&imgDir, "dir", ".", "Directory the images are written to.")
	imgCmd.Flags().BoolVar(&imgRandom, "random", false, "Use random file names, keeping the extension.")
	imgCmd.Flags().StringVar(&imgSelector, "selector", "", "Treat <url> as a page and download every image matched by this selector.")
	imgCmd.Flags().StringVar(&imgAttr, "attr", "src", "Attribute of --selector matches holding the image url.")
	rootCmd.AddCommand(imgCmd)
}

var imgCmd = &cobra.Command{
	Use:   "img <url> [-o name] [--selector 'a.directlink' --attr href]",
	Short: "Downloads an image, or every image a page points at.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zerolog.Ctx(ctx)

		urls := []string{args[0]}
		if imgSelector != "" {
			doc, err := client.Fetch(ctx, args[0], requestOptions())
			if err != nil {
				return err
			}
			urls = resolveAll(doc, doc.Attrs(imgSelector, imgAttr))
		}

		var total int64
		saved := 0
		for _, u := range urls {
			name := imgOut
			if name == "" || len(urls) > 1 {
				name = crawler.GetImgName(u, imgRandom)
			}
			n, err := client.SaveImg(ctx, u, filepath.Join(imgDir, name))
			if errors.Is(err, crawler.ErrUnavailable) && len(urls) > 1 {
				log.Warn().Err(err).Str("url", u).Msg("skipping image")
				continue
			} else if err != nil {
				return err
			}
			total += int64(n)
			saved++
		}

		log.Info().Int("images", saved).Str("size", report.FormatBytes(total)).Msg("download finished")
		return nil
	},
}

func resolveAll(doc *crawler.Document, refs []string) []string {
	resolved := make([]string, 0, len(refs))
	for _, ref := range refs {
		if u := doc.Resolve(ref); utils.IsValidURL(u) {
			resolved = append(resolved, u)
		}
	}
	return resolved
}

package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"smart-scraper/config"
	"smart-scraper/crawler"
	"smart-scraper/database"
	"smart-scraper/models"
	"smart-scraper/output"
	"smart-scraper/utils"
)

var (
	cookieFile string
	timeout    int
	logLevel   string
	useDB      bool

	outFile  string
	saveJSON bool
	sortBy   string
	unique   bool
)

// state shared by the subcommands, filled in before any of them runs
var (
	cfg     *config.Config
	client  *crawler.Client
	cookies []*http.Cookie
)

var rootCmd = &cobra.Command{
	Use:           "smart-scraper",
	Short:         "smart-scraper fetches a page and extracts links, images and metrics from it.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if cmd.Flags().Changed("timeout") {
			cfg.RequestTimeout = timeout
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		level, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("bad log level %q: %w", cfg.LogLevel, err)
		}
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(level).
			With().Timestamp().Logger()
		cmd.SetContext(logger.WithContext(cmd.Context()))

		if cookieFile != "" {
			cookies, err = utils.ReadCookies(cookieFile)
			if err != nil {
				return err
			}
			logger.Debug().Str("file", cookieFile).Int("cookies", len(cookies)).Msg("loaded cookies")
		}

		client = crawler.NewClient(cfg)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cookieFile, "cookies", "", "Netscape cookie file sent with every request.")
	flags.IntVar(&timeout, "timeout", 30, "Request timeout in seconds.")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error).")
	flags.BoolVar(&useDB, "db", false, "Also store results in the Postgres database at DATABASE_URL.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addSaveFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the results to this JSON file.")
	cmd.Flags().BoolVar(&saveJSON, "save", false, "Write the results to OUTPUT_FILE (data.json unless set).")
	cmd.Flags().StringVar(&sortBy, "sort-by", "", "Sort saved records by this key.")
	cmd.Flags().BoolVar(&unique, "unique", false, "Drop duplicate records before saving.")
}

func requestOptions() crawler.RequestOptions {
	return crawler.RequestOptions{Cookies: cookies}
}

// save writes records to the --out file and, with --db, to Postgres under collection.
func save(ctx context.Context, collection string, records []models.Record) error {
	log := zerolog.Ctx(ctx)
	opts := output.Options{SortBy: sortBy, NoDuplicate: unique}

	if file := outputFile(); file != "" {
		if err := output.SaveAsJSON(records, file, opts); err != nil {
			return err
		}
		log.Info().Str("file", file).Int("records", len(records)).Msg("saved records")
	}

	if !useDB {
		return nil
	}
	prepared, err := output.Prepare(records, opts)
	if err != nil {
		return err
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.SaveRecords(collection, prepared); err != nil {
		return fmt.Errorf("failed to store records: %w", err)
	}
	log.Info().Str("collection", collection).Int("records", len(prepared)).Msg("stored records")
	return nil
}

// outputFile is the JSON file results go to, "" when none was asked for.
func outputFile() string {
	if outFile == "" && saveJSON {
		return cfg.OutputFile
	}
	return outFile
}

func openDB() (*database.PostgresDB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("--db needs DATABASE_URL to be set")
	}
	return database.NewPostgresDB(cfg.DatabaseURL)
}

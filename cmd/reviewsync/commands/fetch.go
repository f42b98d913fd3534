package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"reviewsync/internal/adapters/export"
	"reviewsync/internal/adapters/hellopeter"
	"reviewsync/internal/app"
	"reviewsync/internal/domain"
)

var fetchFlags struct {
	businesses     []string
	startPage      int
	endPage        int
	statsOnly      bool
	reviewsOnly    bool
	outputFormat   string
	outputDir      string
	forceRefresh   bool
	discardPartial bool
}

func init() {
	f := fetchCmd.Flags()
	f.StringSliceVar(&fetchFlags.businesses, "businesses", nil, "Business slugs to fetch (e.g. bank-zero-mutual-bank). Positional arguments are accepted too.")
	f.IntVar(&fetchFlags.startPage, "start-page", 1, "Review page to start from.")
	f.IntVar(&fetchFlags.endPage, "end-page", 0, "Last review page to fetch (0 fetches all pages).")
	f.BoolVar(&fetchFlags.statsOnly, "stats-only", false, "Only fetch business statistics.")
	f.BoolVar(&fetchFlags.reviewsOnly, "reviews-only", false, "Only fetch reviews.")
	f.StringVar(&fetchFlags.outputFormat, "output-format", "csv", "Output format: db, csv or json.")
	f.StringVar(&fetchFlags.outputDir, "output-dir", "", "Directory for csv/json files (default OUTPUT_DIR).")
	f.BoolVar(&fetchFlags.forceRefresh, "force-refresh", false, "Refetch every review even if it is already stored.")
	f.BoolVar(&fetchFlags.discardPartial, "discard-partial", false, "Do not save businesses whose fetch only partly succeeded.")
	fetchCmd.MarkFlagsMutuallyExclusive("stats-only", "reviews-only")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch --businesses <slug>[,<slug>...] [--output-format db|csv|json]",
	Short: "Fetches reviews and statistics for businesses and saves them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ids := businessIDs(append(append([]string{}, fetchFlags.businesses...), args...))
		if len(ids) == 0 {
			return errors.New("no businesses specified, pass at least one slug with --businesses")
		}
		opts := app.SyncOptions{
			ReviewsOnly:    fetchFlags.reviewsOnly,
			StatsOnly:      fetchFlags.statsOnly,
			ForceRefresh:   fetchFlags.forceRefresh,
			Pages:          domain.PageRange{Start: fetchFlags.startPage, End: fetchFlags.endPage},
			DiscardPartial: fetchFlags.discardPartial,
		}
		if err := opts.Validate(); err != nil {
			return err
		}
		outDir := fetchFlags.outputDir
		if outDir == "" {
			outDir = cfg.OutputDir
		}

		tr := hellopeter.NewTransport(hellopeter.TransportConfig{
			MinDelay: cfg.RequestDelay,
			Timeout:  cfg.HTTPTimeout,
			Retry: hellopeter.RetryPolicy{
				MaxAttempts: cfg.MaxRetries,
				BaseDelay:   cfg.BackoffBase,
				Factor:      cfg.BackoffFactor,
				MaxWait:     cfg.BackoffMaxWait,
			},
		})
		client, err := hellopeter.New(cfg.HelloPeterBase, cfg.PageSize, tr)
		if err != nil {
			return fmt.Errorf("hellopeter client: %w", err)
		}

		var (
			store domain.Store
			sink  domain.Sink
		)
		format := strings.ToLower(fetchFlags.outputFormat)
		if format == "db" {
			repo, err := openStore(ctx, cfg)
			if err != nil {
				log.Error().Err(err).Msg("database unavailable, falling back to csv output")
				format = "csv"
			} else {
				defer repo.Close()
				cache, closeCache := openCache(ctx, cfg)
				defer closeCache()
				store = repo
				sink = app.NewStoreSink(repo, cache)
			}
		}
		switch format {
		case "db":
		case "csv":
			sink = export.NewCSVSink(outDir)
		case "json":
			sink = export.NewJSONSink(outDir)
		default:
			return fmt.Errorf("unknown output format %q (want db, csv or json)", fetchFlags.outputFormat)
		}

		log.Info().
			Strs("businesses", businessStrings(ids)).
			Str("output", format).
			Bool("force_refresh", opts.ForceRefresh).
			Msg("fetch starting")

		outs, err := app.NewSyncService(client, store, sink).Run(ctx, ids, opts)
		if err != nil {
			return err
		}

		s := summarize(outs)
		renderSummary(os.Stdout, outs, s)
		log.Info().
			Int("processed", s.Processed).
			Int("partial", s.Partial).
			Int("failed", s.Failed).
			Int("reviews", s.Reviews).
			Msg("fetch finished")
		if s.Failed > 0 {
			return errFailed
		}
		return nil
	},
}

// businessIDs trims slugs and drops blanks; order is kept for the run.
func businessIDs(raw []string) []domain.BusinessID {
	var out []domain.BusinessID
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, domain.BusinessID(s))
		}
	}
	return out
}

func businessStrings(ids []domain.BusinessID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

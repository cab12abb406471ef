package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/smartcart/optimizer-service/internal/database"
	"github.com/smartcart/optimizer-service/internal/geocode"
	"github.com/spf13/cobra"
)

var (
	enrichStoreID string
	enrichDelay   time.Duration
)

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Geocode store addresses that are missing coordinates",
	Long: `Look up coordinates for stores whose latitude or longitude is not set.
Stores are processed one at a time with a delay between lookups so the
geocoding provider is not hammered. Ctrl-C stops the run cleanly; stores
already enriched keep their coordinates.`,
	Example: `  optimizer-service enrich
  optimizer-service enrich --store 4f3a...
  optimizer-service enrich --delay 2s`,
	Annotations: map[string]string{annotationNeedsDB: "true"},
	RunE:        runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().StringVar(&enrichStoreID, "store", "", "Enrich a single store by ID instead of the whole backlog")
	enrichCmd.Flags().DurationVar(&enrichDelay, "delay", 0, "Delay between geocoding requests (defaults to the configured batch delay)")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	delay := cfg.Geocoding.BatchDelay
	if enrichDelay > 0 {
		delay = enrichDelay
	}

	client := geocode.NewClient(geocode.ClientConfig{
		BaseURL:           cfg.Geocoding.BaseURL,
		RequestsPerSecond: cfg.Geocoding.RequestsPerSecond,
		Timeout:           cfg.Geocoding.Timeout,
		UserAgent:         cfg.Geocoding.UserAgent,
	})
	repo := database.NewStoreRepo(database.Pool())
	enricher := geocode.NewEnricher(repo, client, delay)

	if enrichStoreID != "" {
		outcome, err := enricher.EnrichStore(ctx, enrichStoreID)
		if err != nil {
			return fmt.Errorf("enrich store %s: %w", enrichStoreID, err)
		}
		if outcome.NoOp {
			logger.Info().Str("store_id", outcome.StoreID).Msg("Coordinates already present, nothing to do")
		} else {
			logger.Info().Str("store_id", outcome.StoreID).Msg("Coordinates written")
		}
		return nil
	}

	result, err := enricher.EnrichAll(ctx)
	if err != nil {
		printEnrichSummary(result)
		return fmt.Errorf("batch enrichment aborted: %w", err)
	}

	printEnrichSummary(result)
	return nil
}

func printEnrichSummary(result geocode.BatchResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOTAL\tSUCCEEDED\tSKIPPED\tFAILED")
	fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", result.Total, result.Succeeded, result.Skipped, result.Failed)
	w.Flush()

	for _, id := range result.FailedIDs {
		fmt.Printf("  failed: %s\n", id)
	}
}

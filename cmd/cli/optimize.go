package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/smartcart/optimizer-service/internal/database"
	"github.com/smartcart/optimizer-service/internal/scoring"
	"github.com/spf13/cobra"
)

var (
	optimizeUserID    string
	optimizeItemsFile string
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize [productId[:quantity]...]",
	Short: "Pick the best store offer for each item of a shopping list",
	Long: `Run the selection pipeline for a shopping list and print the winning
offer per item together with the ranked alternatives.

Items are given either as positional productId:quantity arguments or via
--items-file pointing at a JSON array of {"productId": ..., "name": ...,
"quantity": ...} objects.`,
	Example: `  optimizer-service optimize --user u-42 prod-milk:2 prod-bread
  optimizer-service optimize --user u-42 --items-file list.json`,
	Annotations: map[string]string{annotationNeedsDB: "true"},
	RunE:        runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVar(&optimizeUserID, "user", "", "User whose preferences drive the scoring (required)")
	optimizeCmd.Flags().StringVar(&optimizeItemsFile, "items-file", "", "JSON file with the shopping list items")
	optimizeCmd.MarkFlagRequired("user")
}

type itemsFileEntry struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

func runOptimize(cmd *cobra.Command, args []string) error {
	items, err := collectItems(args, optimizeItemsFile)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no items given: pass productId arguments or --items-file")
	}

	pool := database.Pool()
	storeRepo := database.NewStoreRepo(pool)
	catalogRepo := database.NewCatalogRepo(pool)
	qualityRepo := database.NewQualityRepo(pool)
	prefRepo := database.NewPreferenceRepo(pool)

	scoringCfg := cliScoringConfig()
	metrics := scoring.NewMetricsRecorder()
	gatherer := scoring.NewGatherer(catalogRepo, storeRepo, qualityRepo, metrics)
	selector := scoring.NewSelector(gatherer, scoringCfg, metrics)

	ctx := cmd.Context()
	prefs, err := prefRepo.Preferences(ctx, optimizeUserID)
	if err != nil {
		return fmt.Errorf("load preferences for %s: %w", optimizeUserID, err)
	}

	results, err := selector.SelectList(ctx, items, prefs)
	if err != nil {
		return fmt.Errorf("optimize list: %w", err)
	}

	printResults(items, results)
	return nil
}

func collectItems(args []string, itemsFile string) ([]scoring.ListItem, error) {
	if itemsFile != "" {
		data, err := os.ReadFile(itemsFile)
		if err != nil {
			return nil, fmt.Errorf("read items file: %w", err)
		}
		var entries []itemsFileEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parse items file: %w", err)
		}
		items := make([]scoring.ListItem, len(entries))
		for i, e := range entries {
			qty := e.Quantity
			if qty <= 0 {
				qty = 1
			}
			items[i] = scoring.ListItem{
				ItemID:    fmt.Sprintf("item-%d", i+1),
				ProductID: e.ProductID,
				Name:      e.Name,
				Quantity:  qty,
			}
		}
		return items, nil
	}

	items := make([]scoring.ListItem, 0, len(args))
	for i, arg := range args {
		productID := arg
		qty := 1
		if idx := strings.LastIndex(arg, ":"); idx > 0 {
			parsed, err := strconv.Atoi(arg[idx+1:])
			if err != nil || parsed < 1 {
				return nil, fmt.Errorf("invalid quantity in %q", arg)
			}
			productID = arg[:idx]
			qty = parsed
		}
		items = append(items, scoring.ListItem{
			ItemID:    fmt.Sprintf("item-%d", i+1),
			ProductID: productID,
			Name:      productID,
			Quantity:  qty,
		})
	}
	return items, nil
}

func cliScoringConfig() *scoring.Config {
	out := scoring.DefaultConfig()
	if cfg == nil {
		return out
	}
	out.FavoriteStoreDistanceBonus = cfg.Scoring.FavoriteStoreDistanceBonus
	out.FavoriteStoreAvailabilityBonus = cfg.Scoring.FavoriteStoreAvailabilityBonus
	out.PreferredBrandBonus = cfg.Scoring.PreferredBrandBonus
	out.LowStockBaseline = cfg.Scoring.LowStockBaseline
	out.AdditivePenalty = cfg.Scoring.AdditivePenalty
	out.ReferenceDistanceKm = cfg.Scoring.ReferenceDistanceKm
	out.MaxConcurrentItems = cfg.Scoring.MaxConcurrentItems
	return out
}

func printResults(items []scoring.ListItem, results []scoring.SelectionResult) {
	byID := make(map[string]scoring.ListItem, len(items))
	for _, item := range items {
		byID[item.ItemID] = item
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tSTORE\tPRICE\tSCORE\tALTERNATIVES")
	for _, r := range results {
		name := byID[r.ItemID].Name
		if r.NoCandidate {
			fmt.Fprintf(w, "%s\t-\tno price available\t-\t0\n", name)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%.2f\t%d\n",
			name,
			r.Chosen.StoreName,
			formatAmount(r.Chosen.Amount),
			r.Chosen.Currency,
			r.Chosen.CompositeScore,
			len(r.Ranked),
		)
	}
	w.Flush()
}

// formatAmount renders minor units as a decimal string, e.g. 1299 -> "12.99".
func formatAmount(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}

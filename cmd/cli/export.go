package main

import (
	"fmt"

	"github.com/smartcart/optimizer-service/internal/database"
	"github.com/smartcart/optimizer-service/internal/scoring"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
)

var (
	exportUserID    string
	exportItemsFile string
	exportOutFile   string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run an optimization and write the result as an XLSX report",
	Long: `Run the selection pipeline for a shopping list and write a workbook
with one sheet of winning offers and one sheet listing every ranked
alternative per item.`,
	Example:     `  optimizer-service export --user u-42 --items-file list.json --out report.xlsx`,
	Annotations: map[string]string{annotationNeedsDB: "true"},
	RunE:        runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportUserID, "user", "", "User whose preferences drive the scoring (required)")
	exportCmd.Flags().StringVar(&exportItemsFile, "items-file", "", "JSON file with the shopping list items (required)")
	exportCmd.Flags().StringVar(&exportOutFile, "out", "optimization-report.xlsx", "Output workbook path")
	exportCmd.MarkFlagRequired("user")
	exportCmd.MarkFlagRequired("items-file")
}

func runExport(cmd *cobra.Command, args []string) error {
	items, err := collectItems(nil, exportItemsFile)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("items file is empty")
	}

	pool := database.Pool()
	storeRepo := database.NewStoreRepo(pool)
	catalogRepo := database.NewCatalogRepo(pool)
	qualityRepo := database.NewQualityRepo(pool)
	prefRepo := database.NewPreferenceRepo(pool)

	metrics := scoring.NewMetricsRecorder()
	gatherer := scoring.NewGatherer(catalogRepo, storeRepo, qualityRepo, metrics)
	selector := scoring.NewSelector(gatherer, cliScoringConfig(), metrics)

	ctx := cmd.Context()
	prefs, err := prefRepo.Preferences(ctx, exportUserID)
	if err != nil {
		return fmt.Errorf("load preferences for %s: %w", exportUserID, err)
	}

	results, err := selector.SelectList(ctx, items, prefs)
	if err != nil {
		return fmt.Errorf("optimize list: %w", err)
	}

	if err := writeReport(items, results, exportOutFile); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	logger.Info().Str("path", exportOutFile).Int("items", len(items)).Msg("Report written")
	return nil
}

func writeReport(items []scoring.ListItem, results []scoring.SelectionResult, path string) error {
	byID := make(map[string]scoring.ListItem, len(items))
	for _, item := range items {
		byID[item.ItemID] = item
	}

	f := excelize.NewFile()
	defer f.Close()

	const selections = "Selections"
	f.SetSheetName(f.GetSheetName(0), selections)

	header := []interface{}{"Item", "Quantity", "Store", "Price", "Currency", "Price Score", "Quality Score", "Distance Score", "Availability Score", "Composite"}
	if err := setRow(f, selections, 1, header); err != nil {
		return err
	}

	for i, r := range results {
		item := byID[r.ItemID]
		row := []interface{}{item.Name, item.Quantity}
		if r.NoCandidate {
			row = append(row, "no price available", "", "", "", "", "", "", "")
		} else {
			c := r.Chosen
			row = append(row, c.StoreName, formatAmount(c.Amount), c.Currency,
				c.PriceSubScore, c.QualitySubScore, c.DistanceSubScore, c.AvailabilitySubScore, c.CompositeScore)
		}
		if err := setRow(f, selections, i+2, row); err != nil {
			return err
		}
	}

	const alternatives = "Alternatives"
	if _, err := f.NewSheet(alternatives); err != nil {
		return err
	}
	altHeader := []interface{}{"Item", "Rank", "Store", "Price", "Currency", "Composite"}
	if err := setRow(f, alternatives, 1, altHeader); err != nil {
		return err
	}

	rowIdx := 2
	for _, r := range results {
		item := byID[r.ItemID]
		for rank, alt := range r.Ranked {
			row := []interface{}{item.Name, rank + 1, alt.StoreName, formatAmount(alt.Amount), alt.Currency, alt.CompositeScore}
			if err := setRow(f, alternatives, rowIdx, row); err != nil {
				return err
			}
			rowIdx++
		}
	}

	return f.SaveAs(path)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bldgsim/beosim/results"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Build base-vs-variant comparison tables from result stores",
	Long:  `Extracts one reporting frequency's time series from a baseline result store and each variant's, aligns them by (timestamp, zone), and writes one comparison parquet per variable under comparisons/ (spec.md §6).`,
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().String("request", "", "JSON comparison request (required)")
	compareCmd.MarkFlagRequired("request")
}

type compareVariantRequest struct {
	VariantID int    `json:"variant_id"`
	DB        string `json:"db"`
}

type compareRequest struct {
	BuildingID string                  `json:"building_id"`
	Frequency  string                  `json:"frequency"`
	BaseDB     string                  `json:"base_db"`
	Variants   []compareVariantRequest `json:"variants"`
	OutDir     string                  `json:"out_dir"`
}

// extractFrequency pulls one reporting frequency's time series out of
// a result store.
func extractFrequency(dbPath, buildingID, variantID, freq string) ([]results.TimeSeriesRecord, error) {
	source, err := results.Open(dbPath, buildingID, variantID)
	if err != nil {
		return nil, err
	}
	defer source.Close()
	series, err := source.TimeSeries()
	if err != nil {
		return nil, err
	}
	return series[freq], nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	requestPath, _ := cmd.Flags().GetString("request")
	req, err := loadJSON[compareRequest](requestPath)
	if err != nil {
		return err
	}

	base, err := extractFrequency(req.BaseDB, req.BuildingID, "0", req.Frequency)
	if err != nil {
		return fmt.Errorf("compare: baseline %s: %w", req.BaseDB, err)
	}

	variants := make(map[int][]results.TimeSeriesRecord, len(req.Variants))
	for _, v := range req.Variants {
		series, err := extractFrequency(v.DB, req.BuildingID, fmt.Sprintf("%d", v.VariantID), req.Frequency)
		if err != nil {
			logger.Error("compare: variant extraction failed, continuing without it", err, map[string]any{
				"variant_id": v.VariantID, "db": v.DB,
			})
			continue
		}
		variants[v.VariantID] = series
	}

	tables := results.BuildComparisons(req.BuildingID, req.Frequency, base, variants)
	if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
		return err
	}
	if err := results.WriteComparisons(req.OutDir, tables); err != nil {
		return err
	}
	logger.Info("compare: wrote comparison tables", map[string]any{
		"tables": len(tables), "out_dir": req.OutDir,
	})
	return nil
}

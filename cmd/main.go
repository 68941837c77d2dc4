package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/narchambault/autopulse/config"
	"github.com/narchambault/autopulse/internal/app"
	"github.com/narchambault/autopulse/internal/domain/models"
	"github.com/narchambault/autopulse/internal/logger"
	"github.com/narchambault/autopulse/internal/service"
)

// main is the entry point of the autopulse pipeline.
//
// The run is strictly linear: load the raw listings file, clean it, write the
// cleaned file when an output path is set, aggregate, print the report to
// stdout. Logs go to stderr so the report stays pipeable.
//
// Flags (override config/env defaults per run):
//   - --input:     Path to the raw listings file.
//   - --output:    Path for the cleaned file; empty disables the export.
//   - --encoding:  Input text encoding (latin1, windows-1252, utf8).
//   - --group-by:  Comma-separated grouping keys: brand, model, damage.
//   - --min-share: Omit groups below this share of retained listings.
//   - --format:    Report output format, text or json.
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	// Parse CLI flags (override config defaults if provided)
	input := flag.String("input", config.AppConfig.Input.Path, "Path to the raw listings file")
	output := flag.String("output", config.AppConfig.Output.Path, "Path for the cleaned file (empty = no export)")
	encoding := flag.String("encoding", config.AppConfig.Input.Encoding, "Input text encoding: latin1, windows-1252, utf8")
	groupBy := flag.String("group-by", "brand", "Comma-separated grouping keys: brand, model, damage")
	minShare := flag.Float64("min-share", 0, "Omit groups below this share of retained listings (0..1)")
	format := flag.String("format", "text", "Report output format: text or json")
	flag.Parse()

	keys, err := service.ParseKeys(*groupBy)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("invalid --group-by")
	}
	if *minShare < 0 || *minShare >= 1 {
		logger.L().Fatal().Float64("min_share", *minShare).Msg("--min-share must be in [0, 1)")
	}
	if *format != "text" && *format != "json" {
		logger.L().Fatal().Str("format", *format).Msg("unknown --format")
	}

	cfg := config.AppConfig
	cfg.Input.Path = *input
	cfg.Input.Encoding = *encoding
	cfg.Output.Path = *output

	res, err := app.Run(ctx, cfg, app.Options{Keys: keys, MinShare: *minShare})
	if err != nil {
		logger.L().Fatal().Err(err).Msg("pipeline failed")
	}

	switch *format {
	case "json":
		if err := printJSON(os.Stdout, res); err != nil {
			logger.L().Fatal().Err(err).Msg("encode report")
		}
	default:
		printText(os.Stdout, res)
	}
}

// printJSON writes the full result (summary + report) as indented JSON.
func printJSON(w io.Writer, res *app.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// printText writes the cleaning summary and a tab-aligned report table.
func printText(w io.Writer, res *app.Result) {
	fmt.Fprintf(w, "listings: %d read, %d retained, %d dropped\n",
		res.Summary.InputRows, res.Summary.Retained, res.Summary.Dropped())

	reasons := make([]string, 0, len(res.Summary.Drops))
	for r := range res.Summary.Drops {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(w, "  dropped %d: %s\n", res.Summary.Drops[models.DropReason(r)], r)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := ""
	for _, k := range res.Report.Keys {
		header += k + "\t"
	}
	fmt.Fprintf(tw, "%scount\tmean_price_eur\tmin_price_eur\tmax_price_eur\tmean_odometer_km\n", header)

	for _, g := range res.Report.Groups {
		row := ""
		for _, k := range res.Report.Keys {
			switch service.GroupKey(k) {
			case service.KeyBrand:
				row += g.Brand + "\t"
			case service.KeyModel:
				row += g.Model + "\t"
			case service.KeyDamage:
				row += g.Damage + "\t"
			}
		}
		fmt.Fprintf(tw, "%s%d\t%.2f\t%d\t%d\t%.0f\n",
			row, g.Count, g.MeanPriceEUR, g.MinPriceEUR, g.MaxPriceEUR, g.MeanOdometerKM)
	}
	_ = tw.Flush()
}

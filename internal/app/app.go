package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/narchambault/autopulse/config"
	"github.com/narchambault/autopulse/internal/cleaning"
	"github.com/narchambault/autopulse/internal/domain/models"
	"github.com/narchambault/autopulse/internal/ingestion"
	"github.com/narchambault/autopulse/internal/logger"
	"github.com/narchambault/autopulse/internal/service"
	"github.com/narchambault/autopulse/internal/storage"
)

// Options are the per-run knobs the CLI layers on top of the static config.
type Options struct {
	Keys     []service.GroupKey // grouping keys for the report
	MinShare float64            // omit groups below this share of the dataset
}

// Result holds everything a pipeline run produced.
type Result struct {
	RunID   string              `json:"run_id"`
	Summary models.CleanSummary `json:"summary"`
	Report  *models.Report      `json:"report"`
}

// Indirections for unit testing; defaults are the real implementations.
var (
	loadFile   = ingestion.LoadFile
	aggCtor    = service.NewAggregator
	writerCtor = func(path string, delimiter rune) storage.ListingWriter {
		return storage.NewCSVWriter(path, delimiter)
	}
)

// Run executes the pipeline: load → clean → (optional export) → aggregate.
//
// Ownership is linear: each stage consumes the previous stage's output and
// nothing is retained across the hand-off, so no synchronization is needed.
//
// Parameters:
//   - ctx:  context for cancellation during the file read.
//   - cfg:  static configuration (paths, encoding, bounds, fill policy).
//   - opts: per-run grouping options.
//
// Returns:
//   - *Result: run id, cleaning summary, and the aggregate report.
//   - error: first fatal error (load failure, empty dataset, export failure).
func Run(ctx context.Context, cfg config.Config, opts Options) (*Result, error) {
	runID := uuid.NewString()
	log := logger.L().With().Str("run_id", runID).Logger()

	start := time.Now()
	log.Info().
		Str("input", cfg.Input.Path).
		Str("encoding", cfg.Input.Encoding).
		Msg("pipeline start")

	table, err := loadFile(ctx, cfg.Input.Path, ingestion.Options{
		Encoding:  cfg.Input.Encoding,
		Delimiter: delimiterRune(cfg.Input.Delimiter),
	})
	if err != nil {
		log.Error().Err(err).Msg("load failed")
		return nil, err
	}
	log.Info().Int("rows", len(table.Rows)).Dur("elapsed", time.Since(start)).Msg("load done")

	cleanStart := time.Now()
	listings, summary, err := cleaning.Clean(table, cleaning.Config{
		MinYear:      cfg.Clean.MinYear,
		MaxYear:      cfg.Clean.MaxYear,
		MinPriceEUR:  cfg.Clean.MinPriceEUR,
		MaxPriceEUR:  cfg.Clean.MaxPriceEUR,
		FillSentinel: cfg.Clean.FillSentinel,
	})
	if err != nil {
		log.Error().Err(err).Int("dropped", summary.Dropped()).Msg("clean failed")
		return nil, fmt.Errorf("clean: %w", err)
	}
	log.Info().
		Int("retained", summary.Retained).
		Int("dropped", summary.Dropped()).
		Dur("elapsed", time.Since(cleanStart)).
		Msg("clean done")

	if cfg.Output.Path != "" {
		w := writerCtor(cfg.Output.Path, delimiterRune(cfg.Output.Delimiter))
		if err := w.WriteAll(listings); err != nil {
			log.Error().Err(err).Msg("export failed")
			return nil, fmt.Errorf("export: %w", err)
		}
		log.Info().Str("file", cfg.Output.Path).Int("rows", len(listings)).Msg("export done")
	}

	report, err := aggCtor().Aggregate(listings, opts.Keys, opts.MinShare)
	if err != nil {
		log.Error().Err(err).Msg("aggregate failed")
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	log.Info().
		Int("groups", len(report.Groups)).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline done")

	return &Result{RunID: runID, Summary: summary, Report: report}, nil
}

// delimiterRune maps the configured delimiter string to a rune; empty means
// auto-detect (the Loader's default).
func delimiterRune(s string) rune {
	if s == "" {
		return 0
	}
	return []rune(s)[0]
}

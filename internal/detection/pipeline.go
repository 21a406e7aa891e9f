package detection

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/orderwatch/dupguard/internal/config"
	"github.com/orderwatch/dupguard/internal/domain"
	"github.com/orderwatch/dupguard/internal/ingestion"
)

// Detector runs the full batch over one report: ingest, aggregate, then
// compute exact groups and similar pairs. It holds no state between runs.
type Detector struct {
	settings config.Settings
	sniffer  ingestion.Sniffer
	logger   *zap.Logger
}

func NewDetector(settings config.Settings, logger *zap.Logger) (*Detector, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		settings: settings,
		sniffer: ingestion.HeaderSniffer{
			Marker:    settings.HeaderMarker,
			ScanLines: settings.HeaderScanLines,
		},
		logger: logger.Named("detection"),
	}, nil
}

// WithSniffer replaces the header/delimiter heuristic.
func (d *Detector) WithSniffer(s ingestion.Sniffer) *Detector {
	c := *d
	c.sniffer = s
	return &c
}

func (d *Detector) Settings() config.Settings {
	return d.settings
}

// Run detects duplicates in a raw report. The only error it returns for
// report content is one wrapping ingestion.ErrHeaderNotFound.
func (d *Detector) Run(data []byte) (*domain.Result, error) {
	orders, stats, err := d.Aggregate(data)
	if err != nil {
		return nil, err
	}
	return d.Detect(orders, stats), nil
}

// Aggregate reads the report and folds its rows into orders.
func (d *Detector) Aggregate(data []byte) ([]*domain.Order, domain.RunStats, error) {
	var stats domain.RunStats

	rd, err := ingestion.NewReader(data, ingestion.Options{Sniffer: d.sniffer, Logger: d.logger})
	if err != nil {
		if errors.Is(err, ingestion.ErrHeaderNotFound) {
			return nil, stats, fmt.Errorf("no line starts with %q in the first %d lines: %w",
				d.settings.HeaderMarker, d.settings.HeaderScanLines, err)
		}
		return nil, stats, err
	}

	agg := NewAggregator()
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read report: %w", err)
		}
		stats.RowsRead++
		agg.Add(rec.LineItem())
	}
	for i := 0; i < rd.Malformed(); i++ {
		agg.Skip(domain.SkipMalformedRow)
	}

	orders := agg.Orders()
	stats.Skipped = agg.Skipped()
	stats.Orders = len(orders)
	return orders, stats, nil
}

// Detect computes both result tables from aggregated orders.
func (d *Detector) Detect(orders []*domain.Order, stats domain.RunStats) *domain.Result {
	s := d.settings

	exact, groups := GroupExact(orders, s.ExactStatus, s.AmountPrecision, s.QuantityPrecision)
	similar := PairSimilar(orders, PairOptions{
		MaxDays:              s.MaxDays,
		MinAmountSimilarity:  s.MinAmountSimilarity,
		MinProductSimilarity: s.MinProductSimilarity,
	})

	stats.ExactGroups = groups
	stats.ExactRows = len(exact)
	stats.SimilarPairs = len(similar)

	d.logger.Info("detection finished",
		zap.Int("rows", stats.RowsRead),
		zap.Int("orders", stats.Orders),
		zap.Int("skipped_invalid_status", stats.Skipped[domain.SkipInvalidStatus]),
		zap.Int("skipped_missing_key", stats.Skipped[domain.SkipMissingKey]),
		zap.Int("skipped_malformed", stats.Skipped[domain.SkipMalformedRow]),
		zap.Int("exact_groups", groups),
		zap.Int("similar_pairs", len(similar)))

	return &domain.Result{Exact: exact, Similar: similar, Stats: stats}
}

package detection

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orderwatch/dupguard/internal/config"
	"github.com/orderwatch/dupguard/internal/domain"
	"github.com/orderwatch/dupguard/internal/ingestion"
	"github.com/orderwatch/dupguard/internal/metrics"
	"github.com/orderwatch/dupguard/internal/repository"
)

// RunResult is returned from a successful detection over an uploaded report.
type RunResult struct {
	Run    domain.Run `json:"run"`
	Cached bool       `json:"cached"`
}

// RunStore persists detection runs. Save must fail with an error wrapping
// repository.ErrDuplicateFingerprint when the fingerprint is already stored.
type RunStore interface {
	FindByFingerprint(ctx context.Context, fp string) (*domain.Run, error)
	Save(ctx context.Context, run *domain.Run, res *domain.Result) error
	Result(ctx context.Context, id string) (*domain.Result, error)
}

// Service runs detections for uploaded reports and stores their results.
type Service struct {
	runs   RunStore
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new detection service.
func NewService(runs RunStore, logger *zap.Logger) *Service {
	return &Service{
		runs:   runs,
		logger: logger.Named("service"),
		now:    time.Now,
	}
}

// Fingerprint identifies a report under a given set of settings.
func Fingerprint(data []byte, settings config.Settings) string {
	h := sha256.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(settings.Canonical()))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// DetectReport runs the detector over a report and stores the two result
// tables. A report already processed with identical settings returns the
// stored run without recomputing.
func (s *Service) DetectReport(ctx context.Context, data []byte, sourceName string, settings config.Settings) (*RunResult, error) {
	started := s.now()

	fp := Fingerprint(data, settings)
	existing, err := s.runs.FindByFingerprint(ctx, fp)
	if err != nil {
		return nil, fmt.Errorf("check fingerprint: %w", err)
	}
	if existing != nil {
		metrics.RunsTotal.WithLabelValues("cached").Inc()
		s.logger.Info("report already processed", zap.String("run_id", existing.ID))
		return &RunResult{Run: *existing, Cached: true}, nil
	}

	det, err := NewDetector(settings, s.logger)
	if err != nil {
		return nil, err
	}
	res, err := det.Run(data)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	run := domain.Run{
		ID:          uuid.NewString(),
		SourceName:  sourceName,
		Fingerprint: fp,
		Settings:    settings.Canonical(),
		Stats:       res.Stats,
		CreatedAt:   s.now(),
	}
	if err := s.runs.Save(ctx, &run, res); err != nil {
		if errors.Is(err, repository.ErrDuplicateFingerprint) {
			return s.storedConcurrently(ctx, fp)
		}
		return nil, fmt.Errorf("save run: %w", err)
	}

	metrics.RunsTotal.WithLabelValues("computed").Inc()
	metrics.RunDuration.Observe(s.now().Sub(started).Seconds())
	for reason, n := range res.Stats.Skipped {
		metrics.RowsSkippedTotal.WithLabelValues(string(reason)).Add(float64(n))
	}
	for _, e := range res.Exact {
		metrics.FindingsTotal.WithLabelValues("exact", string(e.Priority)).Inc()
	}
	for _, p := range res.Similar {
		metrics.FindingsTotal.WithLabelValues("similar", string(p.Priority)).Inc()
	}

	s.logger.Info("stored detection run",
		zap.String("run_id", run.ID),
		zap.String("source", sourceName),
		zap.Int("exact_rows", res.Stats.ExactRows),
		zap.Int("similar_pairs", res.Stats.SimilarPairs))

	return &RunResult{Run: run, Cached: false}, nil
}

// storedConcurrently returns the run another upload of the same report
// stored between the fingerprint check and the insert.
func (s *Service) storedConcurrently(ctx context.Context, fp string) (*RunResult, error) {
	existing, err := s.runs.FindByFingerprint(ctx, fp)
	if err != nil {
		return nil, fmt.Errorf("reload run: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("reload run: %w", repository.ErrRunNotFound)
	}
	metrics.RunsTotal.WithLabelValues("cached").Inc()
	s.logger.Info("report stored by a concurrent upload", zap.String("run_id", existing.ID))
	return &RunResult{Run: *existing, Cached: true}, nil
}

// Result returns the stored tables of a run.
func (s *Service) Result(ctx context.Context, id string) (*domain.Result, error) {
	return s.runs.Result(ctx, id)
}

// DispatchReport aggregates a report and lists the orders due on a date.
// Nothing is stored.
func (s *Service) DispatchReport(data []byte, settings config.Settings, f DispatchFilter) (domain.DispatchList, error) {
	det, err := NewDetector(settings, s.logger)
	if err != nil {
		return domain.DispatchList{}, err
	}
	orders, _, err := det.Aggregate(data)
	if err != nil {
		return domain.DispatchList{}, err
	}
	return Dispatch(orders, f), nil
}

// IsReportError reports whether err comes from the report's content rather
// than from the service.
func IsReportError(err error) bool {
	return errors.Is(err, ingestion.ErrHeaderNotFound)
}

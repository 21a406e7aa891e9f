package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/orderwatch/dupguard/internal/domain"
)

var (
	// ErrRunNotFound is returned when no run has the requested id.
	ErrRunNotFound = errors.New("run not found")
	// ErrDuplicateFingerprint is returned by Save when another run with the
	// same fingerprint was stored first.
	ErrDuplicateFingerprint = errors.New("run fingerprint already stored")
)

const (
	dateLayout = "2006-01-02"
	// Fixed width so that created_at sorts chronologically as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

type RunRepo struct {
	db *sqlx.DB
}

// NewRunRepo creates a new run repository.
func NewRunRepo(db *sqlx.DB) *RunRepo {
	return &RunRepo{db: db}
}

type runRow struct {
	ID          string `db:"id"`
	SourceName  string `db:"source_name"`
	Fingerprint string `db:"fingerprint"`
	Settings    string `db:"settings"`
	Stats       string `db:"stats"`
	CreatedAt   string `db:"created_at"`
}

type exactRow struct {
	RunID        string              `db:"run_id"`
	Position     int                 `db:"position"`
	CustomerID   string              `db:"customer_id"`
	DisplayName  string              `db:"display_name"`
	Status       string              `db:"status"`
	OrderID      string              `db:"order_id"`
	Delivery     sql.NullString      `db:"delivery_date"`
	Amount       decimal.NullDecimal `db:"amount"`
	Priority     string              `db:"priority"`
	ProductCount int                 `db:"product_count"`
	Signature    string              `db:"signature"`
}

type similarRow struct {
	RunID             string              `db:"run_id"`
	Position          int                 `db:"position"`
	CustomerID        string              `db:"customer_id"`
	DisplayName       string              `db:"display_name"`
	Status1           string              `db:"status_1"`
	Status2           string              `db:"status_2"`
	OrderID1          string              `db:"order_id_1"`
	OrderID2          string              `db:"order_id_2"`
	Delivery1         sql.NullString      `db:"delivery_date_1"`
	Delivery2         sql.NullString      `db:"delivery_date_2"`
	Amount1           decimal.NullDecimal `db:"amount_1"`
	Amount2           decimal.NullDecimal `db:"amount_2"`
	AmountSimilarity  float64             `db:"amount_similarity"`
	ProductSimilarity float64             `db:"product_similarity"`
	Priority          string              `db:"priority"`
}

// FindByFingerprint returns the run previously computed for the same input
// and settings, or nil when there is none (idempotency check).
func (r *RunRepo) FindByFingerprint(ctx context.Context, fp string) (*domain.Run, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM runs WHERE fingerprint = ?", fp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	return row.toDomain()
}

func (r *RunRepo) Get(ctx context.Context, id string) (*domain.Run, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return row.toDomain()
}

// List returns runs newest first with the total number of runs.
func (r *RunRepo) List(ctx context.Context, page, limit int) ([]domain.Run, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM runs"); err != nil {
		return nil, 0, fmt.Errorf("count runs: %w", err)
	}

	var rows []runRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM runs ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]domain.Run, 0, len(rows))
	for i := range rows {
		run, err := rows[i].toDomain()
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, *run)
	}
	return runs, total, nil
}

// Save stores a run and both result tables in one transaction.
func (r *RunRepo) Save(ctx context.Context, run *domain.Run, res *domain.Result) error {
	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO runs (id, source_name, fingerprint, settings, stats, created_at)
		VALUES (:id, :source_name, :fingerprint, :settings, :stats, :created_at)`,
		runRow{
			ID:          run.ID,
			SourceName:  run.SourceName,
			Fingerprint: run.Fingerprint,
			Settings:    run.Settings,
			Stats:       string(stats),
			CreatedAt:   run.CreatedAt.UTC().Format(timeLayout),
		},
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert run %s: %w", run.ID, ErrDuplicateFingerprint)
	}
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, e := range res.Exact {
		sig, err := json.Marshal(e.Signature)
		if err != nil {
			return fmt.Errorf("encode signature %d: %w", i, err)
		}
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO exact_duplicates
			(run_id, position, customer_id, display_name, status, order_id,
			 delivery_date, amount, priority, product_count, signature)
			VALUES (:run_id, :position, :customer_id, :display_name, :status, :order_id,
			 :delivery_date, :amount, :priority, :product_count, :signature)`,
			exactRow{
				RunID:        run.ID,
				Position:     i,
				CustomerID:   e.CustomerID,
				DisplayName:  e.DisplayName,
				Status:       string(e.Status),
				OrderID:      e.OrderID,
				Delivery:     nullDate(e.Delivery),
				Amount:       nullDecimal(e.Amount),
				Priority:     string(e.Priority),
				ProductCount: e.ProductCount,
				Signature:    string(sig),
			},
		)
		if err != nil {
			return fmt.Errorf("insert exact row %d: %w", i, err)
		}
	}

	for i, p := range res.Similar {
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO similar_pairs
			(run_id, position, customer_id, display_name, status_1, status_2,
			 order_id_1, order_id_2, delivery_date_1, delivery_date_2, amount_1, amount_2,
			 amount_similarity, product_similarity, priority)
			VALUES (:run_id, :position, :customer_id, :display_name, :status_1, :status_2,
			 :order_id_1, :order_id_2, :delivery_date_1, :delivery_date_2, :amount_1, :amount_2,
			 :amount_similarity, :product_similarity, :priority)`,
			similarRow{
				RunID:             run.ID,
				Position:          i,
				CustomerID:        p.CustomerID,
				DisplayName:       p.DisplayName,
				Status1:           string(p.Status1),
				Status2:           string(p.Status2),
				OrderID1:          p.OrderID1,
				OrderID2:          p.OrderID2,
				Delivery1:         nullDate(p.Delivery1),
				Delivery2:         nullDate(p.Delivery2),
				Amount1:           nullDecimal(p.Amount1),
				Amount2:           nullDecimal(p.Amount2),
				AmountSimilarity:  p.AmountSimilarity,
				ProductSimilarity: p.ProductSimilarity,
				Priority:          string(p.Priority),
			},
		)
		if err != nil {
			return fmt.Errorf("insert similar pair %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Result loads both stored tables of a run in their original order.
func (r *RunRepo) Result(ctx context.Context, id string) (*domain.Result, error) {
	run, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var exact []exactRow
	if err := r.db.SelectContext(ctx, &exact,
		"SELECT * FROM exact_duplicates WHERE run_id = ? ORDER BY position", id,
	); err != nil {
		return nil, fmt.Errorf("select exact rows: %w", err)
	}
	var similar []similarRow
	if err := r.db.SelectContext(ctx, &similar,
		"SELECT * FROM similar_pairs WHERE run_id = ? ORDER BY position", id,
	); err != nil {
		return nil, fmt.Errorf("select similar pairs: %w", err)
	}

	res := &domain.Result{Stats: run.Stats}
	for i := range exact {
		row, err := exact[i].toDomain()
		if err != nil {
			return nil, err
		}
		res.Exact = append(res.Exact, row)
	}
	for i := range similar {
		res.Similar = append(res.Similar, similar[i].toDomain())
	}
	return res, nil
}

// --- helpers ---

func (row *runRow) toDomain() (*domain.Run, error) {
	run := &domain.Run{
		ID:          row.ID,
		SourceName:  row.SourceName,
		Fingerprint: row.Fingerprint,
		Settings:    row.Settings,
	}
	if err := json.Unmarshal([]byte(row.Stats), &run.Stats); err != nil {
		return nil, fmt.Errorf("decode stats of run %s: %w", row.ID, err)
	}
	run.CreatedAt, _ = time.Parse(timeLayout, row.CreatedAt)
	return run, nil
}

func (row *exactRow) toDomain() (domain.ExactDuplicateRow, error) {
	e := domain.ExactDuplicateRow{
		CustomerID:   row.CustomerID,
		DisplayName:  row.DisplayName,
		Status:       domain.Status(row.Status),
		OrderID:      row.OrderID,
		Delivery:     parseNullDate(row.Delivery),
		Amount:       parseNullDecimal(row.Amount),
		Priority:     domain.Priority(row.Priority),
		ProductCount: row.ProductCount,
	}
	if err := json.Unmarshal([]byte(row.Signature), &e.Signature); err != nil {
		return e, fmt.Errorf("decode signature at %d: %w", row.Position, err)
	}
	return e, nil
}

func (row *similarRow) toDomain() domain.SimilarPairRow {
	return domain.SimilarPairRow{
		CustomerID:        row.CustomerID,
		DisplayName:       row.DisplayName,
		Status1:           domain.Status(row.Status1),
		Status2:           domain.Status(row.Status2),
		OrderID1:          row.OrderID1,
		OrderID2:          row.OrderID2,
		Delivery1:         parseNullDate(row.Delivery1),
		Delivery2:         parseNullDate(row.Delivery2),
		Amount1:           parseNullDecimal(row.Amount1),
		Amount2:           parseNullDecimal(row.Amount2),
		AmountSimilarity:  row.AmountSimilarity,
		ProductSimilarity: row.ProductSimilarity,
		Priority:          domain.Priority(row.Priority),
	}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

func parseNullDate(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func parseNullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

// isUniqueViolation matches the runs.fingerprint constraint. Primary key
// collisions carry a different extended code.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

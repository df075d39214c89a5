// internal/adapter/storage/report_store.go

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"tweetscope/internal/service/report"
)

// ErrReportNotFound is returned when no report has the requested id
var ErrReportNotFound = errors.New("report not found")

// ReportSummary is one row of a report listing
type ReportSummary struct {
	ID        string    `json:"id"`
	Handle    string    `json:"handle"`
	Processed int       `json:"processed"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportStore implements storage for finished reports
type ReportStore struct {
	db *pgxpool.Pool
}

// NewReportStore creates a new report store
func NewReportStore(db *pgxpool.Pool) *ReportStore {
	return &ReportStore{
		db: db,
	}
}

// EnsureSchema creates the reports table when missing
func (s *ReportStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			handle TEXT NOT NULL,
			processed INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			body JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reports_handle ON reports (lower(handle), created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("error creating reports table: %w", err)
	}
	return nil
}

// SaveReport saves a report, replacing any earlier report with the same run id
func (s *ReportStore) SaveReport(ctx context.Context, res *report.Result) error {
	if res.RunID == "" {
		return fmt.Errorf("report has no run id")
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("error marshaling report: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO reports (id, handle, processed, created_at, body)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET
			handle = $2,
			processed = $3,
			created_at = $4,
			body = $5
	`, res.RunID, res.UserName, res.StatusProcessed, res.CreatedAt, body)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

// GetReport retrieves a report by run id
func (s *ReportStore) GetReport(ctx context.Context, id string) (*report.Result, error) {
	var body []byte
	err := s.db.QueryRow(ctx, `SELECT body FROM reports WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying report: %w", err)
	}

	var res report.Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("error unmarshaling report: %w", err)
	}

	return &res, nil
}

// ListReports returns the newest reports, optionally restricted to one handle
func (s *ReportStore) ListReports(ctx context.Context, handle string, limit int) ([]ReportSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	query := `SELECT id, handle, processed, created_at FROM reports`
	args := []interface{}{}
	if handle != "" {
		query += ` WHERE lower(handle) = lower($1)`
		args = append(args, handle)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var reports []ReportSummary
	for rows.Next() {
		var r ReportSummary
		if err := rows.Scan(&r.ID, &r.Handle, &r.Processed, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return reports, nil
}

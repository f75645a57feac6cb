package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avelter/qrscan/internal/logging"
	"github.com/avelter/qrscan/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

var ErrScanNotFound = errors.New("scan not found")

// Entry is one row of scan history, without the full report payload.
type Entry struct {
	ScanID       string    `json:"scan_id"`
	Filename     string    `json:"filename"`
	CompletedAt  time.Time `json:"completed_at"`
	TotalPages   int       `json:"total_pages"`
	UniqueURLs   int       `json:"unique_urls"`
	OverallScore float64   `json:"overall_score"`
}

// History persists finished scan reports in SQLite so past results survive a
// restart.
type History struct {
	db     *sql.DB
	logger logging.Logger
}

// New runs the schema migration and returns the store.
func New(db *sql.DB, logger logging.Logger) (*History, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &History{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "history"}),
	}, nil
}

// Record stores a finished report under its scan ID. Re-recording the same
// scan replaces the previous row.
func (h *History) Record(ctx context.Context, scanID string, report *model.ScanReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = h.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO scans
             (id, filename, completed_at, total_pages, unique_urls, overall_score, report)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		scanID,
		report.Metadata.FileInfo.Filename,
		report.Metadata.CompletedAt.Unix(),
		report.Stats.TotalPages,
		report.Stats.UniqueURLs,
		report.QualityScores.Overall,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	h.logger.Debug("recorded scan", logging.Field{Key: "scan_id", Value: scanID})
	return nil
}

// Get returns the full report for a scan ID.
func (h *History) Get(ctx context.Context, scanID string) (*model.ScanReport, error) {
	row := h.db.QueryRowContext(ctx,
		`SELECT report FROM scans WHERE id = ? LIMIT 1`, scanID)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrScanNotFound
		}
		return nil, err
	}

	var report model.ScanReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

// List returns recent entries, newest first. limit <= 0 means no limit.
func (h *History) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, filename, completed_at, total_pages, unique_urls, overall_score
              FROM scans
              ORDER BY completed_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var completed int64
		if err := rows.Scan(&e.ScanID, &e.Filename, &completed, &e.TotalPages, &e.UniqueURLs, &e.OverallScore); err != nil {
			return nil, err
		}
		e.CompletedAt = time.Unix(completed, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes a scan's history row.
func (h *History) Delete(ctx context.Context, scanID string) error {
	res, err := h.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, scanID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrScanNotFound
	}
	return nil
}

// PruneOlderThan removes rows completed before the cutoff and returns how
// many were deleted.
func (h *History) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := h.db.ExecContext(ctx,
		`DELETE FROM scans WHERE completed_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/shared"
)

// ScanLogRepository persists [models.ScanLog] rows.
type ScanLogRepository struct {
	db *sql.DB
}

// NewScanLogRepository creates a new ScanLogRepository with the given database connection
func NewScanLogRepository(db *sql.DB) *ScanLogRepository {
	return &ScanLogRepository{db: db}
}

const scanLogColumns = `id, source_id, status, started_at, completed_at, total_entries, processed_entries, errors`

// Create inserts log, generating an ID when it has none.
func (r *ScanLogRepository) Create(ctx context.Context, log *models.ScanLog) error {
	if log.ID == "" {
		log.ID = shared.GenerateID()
	}
	if log.SourceID == "" {
		return fmt.Errorf("validation failed: %w", models.ErrMissingSource)
	}

	errs, err := encodeErrors(log.Errors)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scan_logs (` + scanLogColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		log.ID,
		log.SourceID,
		log.Status,
		log.StartedAt,
		log.CompletedAt,
		log.TotalEntries,
		log.ProcessedEntries,
		errs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan log: %w", err)
	}
	return nil
}

// Update writes patch over the scan log with id.
func (r *ScanLogRepository) Update(ctx context.Context, id string, patch models.ScanLogPatch) error {
	errs, err := encodeErrors(patch.Errors)
	if err != nil {
		return err
	}

	query := `
		UPDATE scan_logs
		SET status = ?, completed_at = ?, total_entries = ?, processed_entries = ?, errors = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		patch.Status,
		patch.CompletedAt,
		patch.TotalEntries,
		patch.ProcessedEntries,
		errs,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update scan log: %w", err)
	}
	return affected(result, "scan log", id)
}

// Get retrieves a scan log by ID.
func (r *ScanLogRepository) Get(ctx context.Context, id string) (*models.ScanLog, error) {
	query := `SELECT ` + scanLogColumns + ` FROM scan_logs WHERE id = ?`
	log, err := scanLog(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("scan log", id)
	}
	return log, err
}

// List returns scan logs newest first. Criteria: "source_id", "status", "limit".
func (r *ScanLogRepository) List(ctx context.Context, criteria map[string]any) ([]*models.ScanLog, error) {
	query := `SELECT ` + scanLogColumns + ` FROM scan_logs WHERE 1 = 1`
	query, args := where(query, nil, criteria, "source_id", "status")
	query = limit(query+" ORDER BY started_at DESC", criteria)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.ScanLog
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return logs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLog(row scanner) (*models.ScanLog, error) {
	var (
		log         models.ScanLog
		status      string
		completedAt sql.NullTime
		errs        string
	)
	err := row.Scan(&log.ID, &log.SourceID, &status, &log.StartedAt, &completedAt, &log.TotalEntries, &log.ProcessedEntries, &errs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scan log: %w", err)
	}

	log.Status = models.ScanStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		log.CompletedAt = &t
	}
	if err := json.Unmarshal([]byte(errs), &log.Errors); err != nil {
		return nil, fmt.Errorf("failed to decode scan log errors: %w", err)
	}
	if log.Errors == nil {
		log.Errors = []string{}
	}
	return &log, nil
}

func encodeErrors(errs []string) (string, error) {
	if errs == nil {
		errs = []string{}
	}
	b, err := json.Marshal(errs)
	if err != nil {
		return "", fmt.Errorf("failed to encode scan log errors: %w", err)
	}
	return string(b), nil
}

package assessments

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const recordColumns = `id, variant, model, prompt_hash, status, job_description_sha256, file_name,
	response, failure_reason, report_key, duration_ms, created_at`

// Create inserts a history record.
func (r *PGRepo) Create(ctx context.Context, record Record) error {
	const query = `
INSERT INTO assessments (` + recordColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.DB.ExecContext(ctx, query,
		record.ID,
		string(record.Variant),
		record.Model,
		record.PromptHash,
		record.Status,
		record.JobDescriptionSHA256,
		record.FileName,
		nullString(record.Response),
		nullString(record.FailureReason),
		nullString(record.ReportKey),
		record.DurationMs,
		record.CreatedAt,
	)
	return err
}

// GetByID fetches a record by id. Ids that are not UUIDs cannot exist.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Record, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Record{}, ErrNotFound
	}
	const query = `SELECT ` + recordColumns + ` FROM assessments WHERE id = $1`
	record, err := scanRecord(r.DB.QueryRowContext(ctx, query, parsed.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return record, err
}

// List returns records newest first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `SELECT ` + recordColumns + ` FROM assessments ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		record        Record
		variant       string
		response      sql.NullString
		failureReason sql.NullString
		reportKey     sql.NullString
	)
	if err := row.Scan(
		&record.ID,
		&variant,
		&record.Model,
		&record.PromptHash,
		&record.Status,
		&record.JobDescriptionSHA256,
		&record.FileName,
		&response,
		&failureReason,
		&reportKey,
		&record.DurationMs,
		&record.CreatedAt,
	); err != nil {
		return Record{}, err
	}
	record.Variant = Variant(variant)
	record.Response = stringPtr(response)
	record.FailureReason = stringPtr(failureReason)
	record.ReportKey = stringPtr(reportKey)
	return record, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

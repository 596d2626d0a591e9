package repository

import (
	"context"
	"fmt"

	"github.com/intelboard/api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresUploadLogRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUploadLogRepository wires the upload log onto Postgres.
func NewPostgresUploadLogRepository(pool *pgxpool.Pool) UploadLogRepository {
	return &postgresUploadLogRepository{pool: pool}
}

func (r *postgresUploadLogRepository) Record(ctx context.Context, entry domain.UploadLogEntry) error {
	if r.pool == nil {
		return fmt.Errorf("upload log repository not initialized")
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	var rowNumber any
	if entry.RowNumber != nil {
		rowNumber = *entry.RowNumber
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO upload_logs (id, session_id, dataset, file_name, row_number, kind, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID.String(),
		entry.SessionID,
		entry.Dataset,
		entry.FileName,
		rowNumber,
		entry.Kind,
		entry.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to record upload log: %w", err)
	}
	return nil
}

func (r *postgresUploadLogRepository) List(ctx context.Context, dataset string, fileName string, limit int, offset int) ([]domain.UploadLogEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("upload log repository not initialized")
	}

	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, session_id, dataset, file_name, row_number, kind, error_message, created_at
		 FROM upload_logs
		 WHERE dataset = $1 AND file_name = $2
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		dataset,
		fileName,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list upload logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.UploadLogEntry{}
	for rows.Next() {
		var (
			entry     domain.UploadLogEntry
			id        string
			rowNumber pgtype.Int4
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &entry.SessionID, &entry.Dataset, &entry.FileName, &rowNumber, &entry.Kind, &entry.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload log: %w", err)
		}
		if parsed, err := uuid.Parse(id); err == nil {
			entry.ID = parsed
		}
		if rowNumber.Valid {
			value := int(rowNumber.Int32)
			entry.RowNumber = &value
		}
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate upload logs: %w", err)
	}

	return logs, nil
}

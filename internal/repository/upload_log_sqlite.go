package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/intelboard/api/internal/domain"

	"github.com/google/uuid"
)

type sqliteUploadLogRepository struct {
	db *sql.DB
}

// NewSQLiteUploadLogRepository wires the upload log onto the SQLite store.
func NewSQLiteUploadLogRepository(db *sql.DB) UploadLogRepository {
	return &sqliteUploadLogRepository{db: db}
}

func (r *sqliteUploadLogRepository) Record(ctx context.Context, entry domain.UploadLogEntry) error {
	if r.db == nil {
		return fmt.Errorf("upload log repository not initialized")
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	var rowNumber any
	if entry.RowNumber != nil {
		rowNumber = *entry.RowNumber
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO upload_logs (id, session_id, dataset, file_name, row_number, kind, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
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

func (r *sqliteUploadLogRepository) List(ctx context.Context, dataset string, fileName string, limit int, offset int) ([]domain.UploadLogEntry, error) {
	if r.db == nil {
		return nil, fmt.Errorf("upload log repository not initialized")
	}

	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, session_id, dataset, file_name, row_number, kind, error_message, created_at
		 FROM upload_logs
		 WHERE dataset = ? AND file_name = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
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
			rowNumber sql.NullInt64
			createdAt sql.NullString
		)
		if err := rows.Scan(&id, &entry.SessionID, &entry.Dataset, &entry.FileName, &rowNumber, &entry.Kind, &entry.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload log: %w", err)
		}
		if parsed, err := uuid.Parse(id); err == nil {
			entry.ID = parsed
		}
		if rowNumber.Valid {
			value := int(rowNumber.Int64)
			entry.RowNumber = &value
		}
		if createdAt.Valid {
			if ts, err := time.Parse("2006-01-02 15:04:05", createdAt.String); err == nil {
				entry.CreatedAt = ts
			}
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate upload logs: %w", err)
	}

	return logs, nil
}

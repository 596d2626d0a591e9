package repository

import (
	"context"

	"github.com/intelboard/api/internal/domain"
)

// RowStore defines the persistent side of one dataset table. The reconciler
// treats it as opaque: it only sees tagged kinds from Classify when an
// insert fails.
type RowStore interface {
	// Insert persists one normalized row and returns its primary key.
	// Rows arriving without a primary key value get a generated one.
	Insert(ctx context.Context, row domain.Row) (string, error)
	SelectAll(ctx context.Context) ([]domain.Row, error)
	Count(ctx context.Context) (int64, error)
}

// UploadLogRepository stores per-row reconciliation issues for operator
// visibility. The outcome message caps what it surfaces; the log keeps
// everything.
type UploadLogRepository interface {
	Record(ctx context.Context, entry domain.UploadLogEntry) error
	List(ctx context.Context, dataset string, fileName string, limit int, offset int) ([]domain.UploadLogEntry, error)
}

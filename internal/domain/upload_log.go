package domain

import (
	"time"

	"github.com/google/uuid"
)

// Upload log entry kinds.
const (
	UploadLogKindDuplicate = "duplicate"
	UploadLogKindError     = "error"
)

// UploadLogEntry captures row level issues that occur while reconciling an
// upload. Every skipped row is recorded here even when only the first few
// are surfaced to the operator.
type UploadLogEntry struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	Dataset   string    `json:"dataset"`
	FileName  string    `json:"file_name"`
	RowNumber *int      `json:"row_number,omitempty"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/intelboard/api/internal/domain"
	"github.com/intelboard/api/internal/repository"
)

// Bucket names one of the three staging destinations.
type Bucket string

const (
	BucketMatching   Bucket = "matching"
	BucketUnmatching Bucket = "unmatching"
	BucketManual     Bucket = "manual"
)

// surfacedIssueLimit caps how many per-row warnings reach the outcome
// message. Every issue is still recorded in the upload log.
const surfacedIssueLimit = 3

// StagingStore reconciles uploads for one logical dataset within one user
// session. Rows route to exactly one of: persistent storage, the matching
// bucket, or the unmatching bucket. None of its methods return a Go error;
// callers receive a success flag plus message so pages never need error
// handling around it.
type StagingStore struct {
	schema domain.DatasetSchema
	store  repository.RowStore
	logs   repository.UploadLogRepository

	sessionID string
	now       func() time.Time

	matching   []domain.Row
	unmatching []domain.Row
	manual     []domain.Row
}

// Option configures a StagingStore.
type Option func(*StagingStore)

// WithRowStore enables persistent insertion for matched uploads. Without
// it the store runs in pure staging mode.
func WithRowStore(store repository.RowStore) Option {
	return func(s *StagingStore) { s.store = store }
}

// WithUploadLog records every skipped row for operator review.
func WithUploadLog(logs repository.UploadLogRepository) Option {
	return func(s *StagingStore) { s.logs = logs }
}

// WithSessionID tags upload log entries with the owning session.
func WithSessionID(id string) Option {
	return func(s *StagingStore) { s.sessionID = id }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *StagingStore) { s.now = now }
}

// NewStagingStore creates the reconciler for one dataset schema.
func NewStagingStore(schema domain.DatasetSchema, opts ...Option) *StagingStore {
	s := &StagingStore{
		schema: schema,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schema returns the dataset schema this store reconciles against.
func (s *StagingStore) Schema() domain.DatasetSchema {
	return s.schema
}

// CheckColumnsMatch reports whether the header set equals the expected
// column set, ignoring case, surrounding whitespace and order.
func (s *StagingStore) CheckColumnsMatch(headers []string) bool {
	return columnsMatch(headers, s.schema)
}

// HandleUpload parses one uploaded tabular file and routes every row to
// exactly one destination. Per-row failures never abort the batch; only an
// empty or unparseable file fails the whole call.
func (s *StagingStore) HandleUpload(ctx context.Context, fileName string, data io.Reader) domain.UploadOutcome {
	if data == nil {
		return domain.UploadOutcome{Message: "No file uploaded"}
	}

	payload, err := io.ReadAll(data)
	if err != nil {
		return domain.UploadOutcome{Message: fmt.Sprintf("Error reading CSV: %v", err)}
	}

	return s.handlePayload(ctx, fileName, payload)
}

func (s *StagingStore) handlePayload(ctx context.Context, fileName string, payload []byte) domain.UploadOutcome {
	table, err := parseTable(fileName, payload)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return domain.UploadOutcome{Message: "Uploaded CSV is empty"}
		}
		return domain.UploadOutcome{Message: fmt.Sprintf("Error reading CSV: %v", err)}
	}

	if !s.CheckColumnsMatch(table.headers) {
		// Designated safe fallback: stage everything verbatim for review.
		for _, record := range table.rows {
			s.unmatching = append(s.unmatching, verbatimRow(table.headers, record))
		}
		return domain.UploadOutcome{
			OK:       true,
			Message:  fmt.Sprintf("Columns don't match. Added %d rows to unmatching data", len(table.rows)),
			RoutedTo: domain.RouteUnmatching,
		}
	}

	if s.store == nil {
		// Pure staging mode, kept for backward-compatible display.
		now := s.now()
		for _, record := range table.rows {
			s.matching = append(s.matching, normalizeRow(s.schema, table.headers, record, now))
		}
		return domain.UploadOutcome{
			OK:       true,
			Message:  fmt.Sprintf("Successfully added %d rows to matching data", len(table.rows)),
			RoutedTo: domain.RouteMatching,
		}
	}

	return s.insertRows(ctx, fileName, table)
}

func (s *StagingStore) insertRows(ctx context.Context, fileName string, table tableData) domain.UploadOutcome {
	outcome := domain.UploadOutcome{RoutedTo: domain.RoutePersistent}
	now := s.now()

	for idx, record := range table.rows {
		row := normalizeRow(s.schema, table.headers, record, now)

		_, err := s.store.Insert(ctx, row)
		if err == nil {
			outcome.Inserted++
			continue
		}

		rowNumber := idx + 1
		switch repository.Classify(err) {
		case repository.ErrorKindDuplicateKey:
			outcome.Duplicates++
			if outcome.Duplicates <= surfacedIssueLimit {
				if pk, ok := row[s.schema.PrimaryKey].(string); ok && pk != "" {
					log.Printf("[UPLOAD] %s row %d skipped: %s %q already exists in database", s.schema.Name, rowNumber, s.schema.PrimaryKey, pk)
				} else {
					log.Printf("[UPLOAD] %s row %d skipped: duplicate entry already exists", s.schema.Name, rowNumber)
				}
			}
			s.recordIssue(ctx, fileName, rowNumber, domain.UploadLogKindDuplicate, err)
		default:
			outcome.Errors++
			if outcome.Errors <= surfacedIssueLimit {
				log.Printf("[UPLOAD] %s row %d insert failed: %v", s.schema.Name, rowNumber, err)
			}
			s.recordIssue(ctx, fileName, rowNumber, domain.UploadLogKindError, err)
		}
	}

	var parts []string
	if outcome.Inserted > 0 {
		parts = append(parts, fmt.Sprintf("Successfully inserted %d row(s)", outcome.Inserted))
	}
	if outcome.Duplicates > 0 {
		parts = append(parts, fmt.Sprintf("Skipped %d duplicate(s)", outcome.Duplicates))
	}
	if outcome.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", outcome.Errors))
	}

	switch {
	case outcome.Inserted > 0:
		outcome.OK = true
		outcome.Message = strings.Join(parts, ", ") + "."
	case outcome.Duplicates > 0 && outcome.Errors == 0:
		outcome.Message = fmt.Sprintf("All rows were skipped (duplicates). %d duplicate(s) found.", outcome.Duplicates)
	default:
		outcome.Message = fmt.Sprintf("Failed to insert any rows. %d error(s), %d duplicate(s).", outcome.Errors, outcome.Duplicates)
	}

	return outcome
}

func (s *StagingStore) recordIssue(ctx context.Context, fileName string, rowNumber int, kind string, err error) {
	if s.logs == nil {
		return
	}
	entry := domain.UploadLogEntry{
		SessionID: s.sessionID,
		Dataset:   s.schema.Name,
		FileName:  fileName,
		RowNumber: &rowNumber,
		Kind:      kind,
		Message:   err.Error(),
	}
	if recordErr := s.logs.Record(ctx, entry); recordErr != nil {
		log.Printf("[UPLOAD] failed to record upload log entry: %v", recordErr)
	}
}

// AddManualRow appends one hand-entered row to the manual bucket. The
// timestamp and inserted_at columns are always stamped with the current
// wall clock, overriding any caller-supplied value, and a missing primary
// key gets a generated identifier. Returns false when the row cannot be
// constructed; session state is left unchanged in that case.
func (s *StagingStore) AddManualRow(input map[string]any) bool {
	if len(s.schema.Columns) == 0 {
		log.Printf("[UPLOAD] cannot add manual row: schema %q has no columns", s.schema.Name)
		return false
	}

	now := s.now()
	stamp := now.Format(timestampFormat)

	row := make(domain.Row, len(s.schema.Columns))
	for _, col := range s.schema.Columns {
		if isTimeColumn(col.Name) {
			row[col.Name] = stamp
			continue
		}
		value, ok := input[col.Name]
		if !ok {
			row[col.Name] = nil
			continue
		}
		row[col.Name] = flattenManualValue(s.schema, col, value)
	}

	if pk, ok := row[s.schema.PrimaryKey].(string); !ok || strings.TrimSpace(pk) == "" {
		row[s.schema.PrimaryKey] = s.schema.NewID(now)
	}

	s.manual = append(s.manual, row)
	return true
}

// flattenManualValue maps form input onto the Row scalar set.
func flattenManualValue(schema domain.DatasetSchema, col domain.Column, value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return coerceValue(schema, col, v)
	case int:
		return int64(v)
	case int64, float64:
		return v
	case float32:
		return float64(v)
	case time.Time:
		return v.Format(timestampFormat)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Matching returns the rows staged because no insert capability was
// configured when their columns matched.
func (s *StagingStore) Matching() []domain.Row {
	return domain.CloneRows(s.matching)
}

// Unmatching returns the rows held for human review.
func (s *StagingStore) Unmatching() []domain.Row {
	return domain.CloneRows(s.unmatching)
}

// Manual returns the rows added through the manual-entry form.
func (s *StagingStore) Manual() []domain.Row {
	return domain.CloneRows(s.manual)
}

// CombineWithOriginal overlays staged rows onto the persisted dataset:
// persisted ++ matching ++ manual, as a flat sequence. The input slice is
// not mutated.
func (s *StagingStore) CombineWithOriginal(persisted []domain.Row) []domain.Row {
	combined := make([]domain.Row, 0, len(persisted)+len(s.matching)+len(s.manual))
	combined = append(combined, persisted...)
	combined = append(combined, domain.CloneRows(s.matching)...)
	combined = append(combined, domain.CloneRows(s.manual)...)
	return combined
}

// DeleteAt removes the row at index from the named bucket and compacts the
// remaining indices. Returns false when the bucket is empty, unknown, or
// the index is out of range.
func (s *StagingStore) DeleteAt(bucket Bucket, index int) bool {
	target := s.bucketRef(bucket)
	if target == nil || index < 0 || index >= len(*target) {
		return false
	}
	*target = append((*target)[:index], (*target)[index+1:]...)
	return true
}

// Clear drops every row in the named bucket.
func (s *StagingStore) Clear(bucket Bucket) {
	if target := s.bucketRef(bucket); target != nil {
		*target = nil
	}
}

// ClearAll drops all three buckets.
func (s *StagingStore) ClearAll() {
	s.matching = nil
	s.unmatching = nil
	s.manual = nil
}

func (s *StagingStore) bucketRef(bucket Bucket) *[]domain.Row {
	switch bucket {
	case BucketMatching:
		return &s.matching
	case BucketUnmatching:
		return &s.unmatching
	case BucketManual:
		return &s.manual
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/intelboard/api/internal/domain"
)

type sqliteRowStore struct {
	db     *sql.DB
	schema domain.DatasetSchema
	now    func() time.Time
}

// NewSQLiteRowStore wires a RowStore for one dataset table backed by the
// single-file SQLite database.
func NewSQLiteRowStore(db *sql.DB, schema domain.DatasetSchema) RowStore {
	return &sqliteRowStore{db: db, schema: schema, now: time.Now}
}

func (s *sqliteRowStore) Insert(ctx context.Context, row domain.Row) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("row store not initialized")
	}

	row = row.Clone()
	pk, _ := row[s.schema.PrimaryKey].(string)
	if strings.TrimSpace(pk) == "" {
		pk = s.schema.NewID(s.now())
		row[s.schema.PrimaryKey] = pk
	}

	var (
		columns      []string
		placeholders []string
		args         []any
	)
	for _, col := range s.schema.Columns {
		value, present := row[col.Name]
		// Leave inserted_at to the table default when the row carries none.
		if col.Name == "inserted_at" && (!present || value == nil) {
			continue
		}
		columns = append(columns, col.Name)
		placeholders = append(placeholders, "?")
		args = append(args, value)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		s.schema.Table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", err
	}
	return pk, nil
}

func (s *sqliteRowStore) SelectAll(ctx context.Context) ([]domain.Row, error) {
	if s.db == nil {
		return nil, fmt.Errorf("row store not initialized")
	}

	names := s.schema.ColumnNames()
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), s.schema.Table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", s.schema.Table, err)
	}
	defer rows.Close()

	var result []domain.Row
	for rows.Next() {
		values := make([]any, len(names))
		dests := make([]any, len(names))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", s.schema.Table, err)
		}

		row := make(domain.Row, len(names))
		for i, name := range names {
			row[name] = normalizeScanned(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", s.schema.Table, err)
	}

	return result, nil
}

func (s *sqliteRowStore) Count(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("row store not initialized")
	}
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.schema.Table)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s rows: %w", s.schema.Table, err)
	}
	return count, nil
}

// normalizeScanned flattens driver-specific scan results into the scalar
// set Row permits.
func normalizeScanned(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return string(v)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return v
	}
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/intelboard/api/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRowStore struct {
	pool   *pgxpool.Pool
	schema domain.DatasetSchema
	now    func() time.Time
}

// NewPostgresRowStore wires a RowStore for one dataset table backed by
// Postgres. Behavior matches the SQLite store; only the driver differs.
func NewPostgresRowStore(pool *pgxpool.Pool, schema domain.DatasetSchema) RowStore {
	return &postgresRowStore{pool: pool, schema: schema, now: time.Now}
}

func (s *postgresRowStore) Insert(ctx context.Context, row domain.Row) (string, error) {
	if s.pool == nil {
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
		if col.Name == "inserted_at" && (!present || value == nil) {
			continue
		}
		columns = append(columns, col.Name)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
		args = append(args, value)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		s.schema.Table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return "", err
	}
	return pk, nil
}

func (s *postgresRowStore) SelectAll(ctx context.Context) ([]domain.Row, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("row store not initialized")
	}

	names := s.schema.ColumnNames()
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), s.schema.Table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", s.schema.Table, err)
	}
	defer rows.Close()

	var result []domain.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s row: %w", s.schema.Table, err)
		}
		row := make(domain.Row, len(names))
		for i, name := range names {
			if i < len(values) {
				row[name] = normalizeScanned(values[i])
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", s.schema.Table, err)
	}

	return result, nil
}

func (s *postgresRowStore) Count(ctx context.Context) (int64, error) {
	if s.pool == nil {
		return 0, fmt.Errorf("row store not initialized")
	}
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.schema.Table)
	if err := s.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s rows: %w", s.schema.Table, err)
	}
	return count, nil
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// ColumnType declares how raw cell values are coerced before they cross
// the store boundary.
type ColumnType string

const (
	ColumnTypeString    ColumnType = "string"
	ColumnTypeInteger   ColumnType = "integer"
	ColumnTypeFloat     ColumnType = "float"
	ColumnTypeTimestamp ColumnType = "timestamp"
)

// Column describes one field of a dataset schema.
type Column struct {
	Name string
	Type ColumnType
}

// DatasetSchema is the canonical shape of one logical dataset. The primary
// key is declared explicitly at construction rather than inferred from a
// list of well known column names.
type DatasetSchema struct {
	Name       string
	Table      string
	Columns    []Column
	PrimaryKey string
	IDPrefix   string
}

// ColumnNames returns the canonical column names in declared order.
func (s DatasetSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// Column looks up a column by canonical name.
func (s DatasetSchema) Column(name string) (Column, bool) {
	for _, col := range s.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// CanonicalName maps a raw header to the canonical column spelling.
// Matching is case and surrounding-whitespace insensitive.
func (s DatasetSchema) CanonicalName(raw string) (string, bool) {
	key := CanonicalKey(raw)
	for _, col := range s.Columns {
		if CanonicalKey(col.Name) == key {
			return col.Name, true
		}
	}
	return "", false
}

// NewID generates a primary key value for rows that arrive without one.
// The layout follows the original dataset conventions: a short prefix
// followed by a wall-clock stamp, with microseconds to keep IDs generated
// in the same second distinct.
func (s DatasetSchema) NewID(now time.Time) string {
	return fmt.Sprintf("%s%s%06d", s.IDPrefix, now.Format("20060102150405"), now.Nanosecond()/1000)
}

// CanonicalKey normalizes a column name for comparison purposes.
func CanonicalKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CyberIncidents returns the schema backing the cyber incidents dashboard.
func CyberIncidents() DatasetSchema {
	return DatasetSchema{
		Name:  "cyber_incidents",
		Table: "cyber_incidents",
		Columns: []Column{
			{Name: "incident_id", Type: ColumnTypeString},
			{Name: "timestamp", Type: ColumnTypeTimestamp},
			{Name: "severity", Type: ColumnTypeString},
			{Name: "category", Type: ColumnTypeString},
			{Name: "status", Type: ColumnTypeString},
			{Name: "description", Type: ColumnTypeString},
			{Name: "inserted_at", Type: ColumnTypeTimestamp},
		},
		PrimaryKey: "incident_id",
		IDPrefix:   "INC",
	}
}

// ITTickets returns the schema backing the IT tickets dashboard.
func ITTickets() DatasetSchema {
	return DatasetSchema{
		Name:  "it_tickets",
		Table: "it_tickets",
		Columns: []Column{
			{Name: "ticket_id", Type: ColumnTypeString},
			{Name: "priority", Type: ColumnTypeString},
			{Name: "description", Type: ColumnTypeString},
			{Name: "status", Type: ColumnTypeString},
			{Name: "assigned_to", Type: ColumnTypeString},
			{Name: "created_at", Type: ColumnTypeTimestamp},
			{Name: "resolution_time_hours", Type: ColumnTypeFloat},
			{Name: "inserted_at", Type: ColumnTypeTimestamp},
		},
		PrimaryKey: "ticket_id",
		IDPrefix:   "T",
	}
}

// DatasetsMetadata returns the schema backing the dataset catalog.
func DatasetsMetadata() DatasetSchema {
	return DatasetSchema{
		Name:  "datasets_metadata",
		Table: "datasets_metadata",
		Columns: []Column{
			{Name: "dataset_id", Type: ColumnTypeString},
			{Name: "name", Type: ColumnTypeString},
			{Name: "rows", Type: ColumnTypeInteger},
			{Name: "columns", Type: ColumnTypeInteger},
			{Name: "uploaded_by", Type: ColumnTypeString},
			{Name: "upload_date", Type: ColumnTypeTimestamp},
		},
		PrimaryKey: "dataset_id",
		IDPrefix:   "DS",
	}
}

// BuiltinSchemas lists every dataset the dashboard serves.
func BuiltinSchemas() []DatasetSchema {
	return []DatasetSchema{CyberIncidents(), ITTickets(), DatasetsMetadata()}
}

// SchemaByName resolves a dataset schema from a request path segment.
func SchemaByName(name string) (DatasetSchema, bool) {
	for _, schema := range BuiltinSchemas() {
		if schema.Name == name {
			return schema, true
		}
	}
	return DatasetSchema{}, false
}

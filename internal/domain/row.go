package domain

// Row is one record of a dataset, keyed by canonical column name.
// Values are primitive scalars only: string, int64, float64 or nil.
type Row map[string]any

// Clone returns a shallow copy so callers can mutate without aliasing
// bucket contents.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// CloneRows copies a slice of rows, cloning each element.
func CloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = row.Clone()
	}
	return out
}

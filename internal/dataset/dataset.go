// Package dataset defines the tabular value that flows between pipeline
// nodes: an ordered set of columns, positionally aligned rows, and derived
// metadata. Datasets are treated as immutable once handed to an executor;
// code that changes rows or columns must do so on a fresh instance and
// recompute the metadata.
package dataset

import (
	"time"
)

// ColumnType is the inferred type tag for a single column.
type ColumnType string

const (
	TypeString  ColumnType = "string"
	TypeNumber  ColumnType = "number"
	TypeBoolean ColumnType = "boolean"
	TypeDate    ColumnType = "date"
	TypeNull    ColumnType = "null"
	TypeMixed   ColumnType = "mixed"
)

// SourceInfo describes where a dataset came from, for display and debugging.
type SourceInfo struct {
	Kind       string `json:"kind"`       // "csv", "json", "http", "inline", "derived"
	Descriptor string `json:"descriptor"` // file path, URL, or producing node id
}

// Metadata carries derived facts about a dataset. RowCount and ColumnCount
// are recomputed whenever rows or columns change; stale counts are never
// trusted.
type Metadata struct {
	RowCount    int `json:"rowCount"`
	ColumnCount int `json:"columnCount"`
	// ColumnTypes, Nullable and Unique are aligned to Columns by position.
	ColumnTypes []ColumnType `json:"columnTypes,omitempty"`
	Nullable    []bool       `json:"nullable,omitempty"`
	Unique      []bool       `json:"unique,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	ModifiedAt  time.Time    `json:"modifiedAt"`
	Source      *SourceInfo  `json:"source,omitempty"`
}

// Dataset is the tabular value exchanged between pipeline nodes.
//
// Rows may be ragged: a row's length is allowed to differ from len(Columns).
// Ingestion preserves rows as parsed, so consumers must index through Cell
// (or bounds-check themselves) rather than assume uniform width.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Meta    Metadata `json:"metadata"`
}

// New builds a dataset from columns and rows and computes its metadata.
// The source may be nil for derived datasets.
func New(columns []string, rows [][]any, source *SourceInfo) *Dataset {
	ds := &Dataset{
		Columns: columns,
		Rows:    rows,
		Meta: Metadata{
			CreatedAt: time.Now().UTC(),
			Source:    source,
		},
	}
	ds.RecomputeMeta()
	return ds
}

// Cell returns the value at (row, column index), or nil when the row is too
// short to cover that column. It does not distinguish a missing cell from an
// explicit null; both read as nil.
func (d *Dataset) Cell(row []any, col int) any {
	if col < 0 || col >= len(row) {
		return nil
	}
	return row[col]
}

// ColumnIndex returns the position of the named column, or -1 if absent.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// RecomputeMeta refreshes counts, per-column type tags, nullability and
// uniqueness from the current columns and rows, and bumps ModifiedAt.
func (d *Dataset) RecomputeMeta() {
	d.Meta.RowCount = len(d.Rows)
	d.Meta.ColumnCount = len(d.Columns)
	d.Meta.ColumnTypes = make([]ColumnType, len(d.Columns))
	d.Meta.Nullable = make([]bool, len(d.Columns))
	d.Meta.Unique = make([]bool, len(d.Columns))
	for i := range d.Columns {
		d.Meta.ColumnTypes[i] = d.inferColumnType(i)
		d.Meta.Nullable[i] = d.columnNullable(i)
		d.Meta.Unique[i] = d.columnUnique(i)
	}
	d.Meta.ModifiedAt = time.Now().UTC()
	if d.Meta.CreatedAt.IsZero() {
		d.Meta.CreatedAt = d.Meta.ModifiedAt
	}
}

// inferColumnType tags a column by scanning its cells. A column of only null
// cells is "null"; a column mixing two non-null kinds is "mixed".
func (d *Dataset) inferColumnType(col int) ColumnType {
	inferred := TypeNull
	for _, row := range d.Rows {
		v := d.Cell(row, col)
		if v == nil {
			continue
		}
		t := cellType(v)
		if inferred == TypeNull {
			inferred = t
		} else if inferred != t {
			return TypeMixed
		}
	}
	return inferred
}

func cellType(v any) ColumnType {
	switch v.(type) {
	case bool:
		return TypeBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return TypeNumber
	case time.Time:
		return TypeDate
	default:
		return TypeString
	}
}

func (d *Dataset) columnNullable(col int) bool {
	for _, row := range d.Rows {
		if d.Cell(row, col) == nil {
			return true
		}
	}
	return false
}

func (d *Dataset) columnUnique(col int) bool {
	if len(d.Rows) == 0 {
		return true
	}
	seen := make(map[string]struct{}, len(d.Rows))
	for _, row := range d.Rows {
		k := CanonicalKey(d.Cell(row, col))
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
	}
	return true
}

// CloneRows returns a shallow copy of the row slice with fresh row slices, so
// a consumer can reorder or filter without touching the source dataset. Cell
// values themselves are shared; executors never mutate cells in place.
func (d *Dataset) CloneRows() [][]any {
	rows := make([][]any, len(d.Rows))
	for i, row := range d.Rows {
		cp := make([]any, len(row))
		copy(cp, row)
		rows[i] = cp
	}
	return rows
}

// Derived builds a new dataset produced from this one by the named node,
// computing fresh metadata and carrying a "derived" source descriptor.
func (d *Dataset) Derived(columns []string, rows [][]any, producer string) *Dataset {
	return New(columns, rows, &SourceInfo{Kind: "derived", Descriptor: producer})
}

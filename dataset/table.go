// Package dataset holds the in-memory Table passed between pipeline stages
// and its CSV reader and writer.
package dataset

import (
	"strconv"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Kind is the value type of a column, fixed when the column is created.
type Kind int

const (
	// Numeric columns hold float64 values.
	Numeric Kind = iota
	// Categorical columns hold text values.
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Column is a named, homogeneously typed column. Exactly one of Floats or
// Texts is populated depending on Kind. Valid[i] is false when row i is missing.
type Column struct {
	Name   string
	Kind   Kind
	Floats []float64
	Texts  []string
	Valid  []bool
}

// NewNumericColumn builds a numeric column. A nil valid slice marks every row observed.
func NewNumericColumn(name string, values []float64, valid []bool) *Column {
	return &Column{Name: name, Kind: Numeric, Floats: values, Valid: fillValid(valid, len(values))}
}

// NewCategoricalColumn builds a categorical column. A nil valid slice marks every row observed.
func NewCategoricalColumn(name string, values []string, valid []bool) *Column {
	return &Column{Name: name, Kind: Categorical, Texts: values, Valid: fillValid(valid, len(values))}
}

func fillValid(valid []bool, n int) []bool {
	if valid != nil {
		return valid
	}
	valid = make([]bool, n)
	for i := range valid {
		valid[i] = true
	}
	return valid
}

// Len returns the number of rows.
func (c *Column) Len() int {
	return len(c.Valid)
}

// IsMissing reports whether row i has no value.
func (c *Column) IsMissing(i int) bool {
	return !c.Valid[i]
}

// MissingCount returns the number of missing rows.
func (c *Column) MissingCount() int {
	n := 0
	for _, ok := range c.Valid {
		if !ok {
			n++
		}
	}
	return n
}

// MissingFraction returns the proportion of missing rows, 0 for an empty column.
func (c *Column) MissingFraction() float64 {
	if c.Len() == 0 {
		return 0
	}
	return float64(c.MissingCount()) / float64(c.Len())
}

// Text renders row i the way it is written to CSV. Missing rows render as "".
func (c *Column) Text(i int) string {
	if c.IsMissing(i) {
		return ""
	}
	if c.Kind == Numeric {
		return strconv.FormatFloat(c.Floats[i], 'f', -1, 64)
	}
	return c.Texts[i]
}

// Clone returns a deep copy.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Valid: append([]bool(nil), c.Valid...)}
	if c.Floats != nil {
		out.Floats = append([]float64(nil), c.Floats...)
	}
	if c.Texts != nil {
		out.Texts = append([]string(nil), c.Texts...)
	}
	return out
}

func (c *Column) check() error {
	switch c.Kind {
	case Numeric:
		if len(c.Floats) != len(c.Valid) {
			return errors.NewDimensionError("dataset.Column", len(c.Valid), len(c.Floats), 0)
		}
	case Categorical:
		if len(c.Texts) != len(c.Valid) {
			return errors.NewDimensionError("dataset.Column", len(c.Valid), len(c.Texts), 0)
		}
	default:
		return errors.NewValueError("dataset.Column", "unknown column kind for "+c.Name)
	}
	return nil
}

// Table is an ordered collection of uniquely named columns sharing one row count.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// Empty returns a Table with zero rows and zero columns.
func Empty() *Table {
	return &Table{index: map[string]int{}}
}

// NewTable validates the columns and assembles them into a Table.
func NewTable(columns ...*Column) (*Table, error) {
	t := Empty()
	for _, c := range columns {
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddColumn appends c. It fails on a duplicate name or a row-count mismatch.
func (t *Table) AddColumn(c *Column) error {
	if err := c.check(); err != nil {
		return err
	}
	if _, dup := t.index[c.Name]; dup {
		return errors.NewValueError("dataset.AddColumn", "duplicate column name: "+c.Name)
	}
	if (len(t.columns) > 0 || t.rows > 0) && c.Len() != t.rows {
		return errors.NewDimensionError("dataset.AddColumn", t.rows, c.Len(), 0)
	}
	t.rows = c.Len()
	t.index[c.Name] = len(t.columns)
	t.columns = append(t.columns, c)
	return nil
}

// Rows returns the row count.
func (t *Table) Rows() int { return t.rows }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.columns) }

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) { return t.rows, len(t.columns) }

// IsEmpty reports whether the table has no columns or no rows.
func (t *Table) IsEmpty() bool { return len(t.columns) == 0 || t.rows == 0 }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order. The slice is a copy; the columns are shared.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.columns...)
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := Empty()
	out.rows = t.rows
	for _, c := range t.columns {
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, c.Clone())
	}
	return out
}

// Drop returns a new table without the named columns. Unknown names are ignored.
// Surviving columns are shared with t. The row count is kept even when no
// column survives.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := Empty()
	out.rows = t.rows
	for _, c := range t.columns {
		if skip[c.Name] {
			continue
		}
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, c)
	}
	return out
}

// Row renders row i as text, one entry per column.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Text(i)
	}
	return row
}

// Vector returns a numeric, fully observed column as a float slice.
func (t *Table) Vector(name string) ([]float64, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, errors.NewMissingColumnError("dataset.Vector", name)
	}
	if c.Kind != Numeric {
		return nil, errors.NewValueError("dataset.Vector", "column "+name+" is not numeric")
	}
	if n := c.MissingCount(); n > 0 {
		return nil, errors.NewValueError("dataset.Vector", "column "+name+" has "+strconv.Itoa(n)+" missing values")
	}
	return append([]float64(nil), c.Floats...), nil
}

// Matrix assembles the named numeric columns into a rows×len(names) matrix.
func (t *Table) Matrix(names []string) (*mat.Dense, error) {
	if t.rows == 0 || len(names) == 0 {
		return nil, errors.NewModelError("dataset.Matrix", "empty data", errors.ErrEmptyData)
	}
	m := mat.NewDense(t.rows, len(names), nil)
	for j, name := range names {
		v, err := t.Vector(name)
		if err != nil {
			return nil, err
		}
		m.SetCol(j, v)
	}
	return m, nil
}

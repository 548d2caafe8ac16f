package grid

import (
	"sort"
	"strings"
	"time"

	"tally/a1"
)

// TableKind distinguishes how a data table came to exist.
type TableKind string

const (
	TableFromCode   TableKind = "code"
	TableFromImport TableKind = "import"
)

// SortDirection orders a table column.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// SortSpec is one entry of a table's sort specification.
type SortSpec struct {
	ColumnIndex int64         `json:"column_index"`
	Direction   SortDirection `json:"direction"`
}

// TableColumn describes one column of a data table.
type TableColumn struct {
	Name          string `json:"name"`
	Display       bool   `json:"display"`
	OriginalIndex int64  `json:"original_index"`
}

// CodeRun is the execution record of a code cell: what ran, what it
// read, and what it printed.
type CodeRun struct {
	Lang          Language    `json:"language"`
	Source        string      `json:"source"`
	CellsAccessed a1.RangeSet `json:"cells_accessed"`
	StdOut        string      `json:"std_out,omitempty"`
	StdErr        string      `json:"std_err,omitempty"`
	Err           *Error      `json:"error,omitempty"`
	LastModified  time.Time   `json:"last_modified"`

	// cachedAST holds the parsed formula between runs; invalidated
	// whenever Source changes or references are rewritten.
	cachedAST any
}

func (r *CodeRun) CachedAST() any       { return r.cachedAST }
func (r *CodeRun) SetCachedAST(ast any) { r.cachedAST = ast }
func (r *CodeRun) InvalidateAST()       { r.cachedAST = nil }

// DataTable is the output of a code cell or import anchored at a cell:
// a rectangular value plus table metadata.
type DataTable struct {
	Kind          TableKind     `json:"kind"`
	Name          string        `json:"name"`
	Value         [][]CellValue `json:"-"`
	Columns       []TableColumn `json:"columns,omitempty"`
	SortBy        []SortSpec    `json:"sort_by,omitempty"`
	DisplayBuffer []int64       `json:"display_buffer,omitempty"`
	HeaderIsFirst bool          `json:"header_is_first_row"`
	ShowHeader    bool          `json:"show_header"`
	LastModified  time.Time     `json:"last_modified"`
	SpillError    bool          `json:"spill_error"`
	Run           *CodeRun      `json:"run,omitempty"`
}

// Width is the horizontal extent of the value array.
func (t *DataTable) Width() int64 {
	if len(t.Value) == 0 {
		return 0
	}
	return int64(len(t.Value[0]))
}

func (t *DataTable) Height() int64 {
	return int64(len(t.Value))
}

// Footprint is the rectangle the table occupies from its anchor.
func (t *DataTable) Footprint(anchor a1.Pos) a1.Rect {
	w, h := t.Width(), t.Height()
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return a1.NewRectSpan(anchor, w, h)
}

// ValueAt returns the displayed cell at 0-based (x, y) within the
// table, honoring the display buffer permutation.
func (t *DataTable) ValueAt(x, y int64) CellValue {
	if y < 0 || y >= t.Height() || x < 0 || x >= t.Width() {
		return BlankValue
	}
	row := y
	if t.DisplayBuffer != nil {
		// The header row is pinned; the buffer permutes data rows.
		if t.HeaderIsFirst && y == 0 {
			row = 0
		} else {
			idx := y
			if t.HeaderIsFirst {
				idx--
			}
			if idx < 0 || idx >= int64(len(t.DisplayBuffer)) {
				return BlankValue
			}
			row = t.DisplayBuffer[idx]
			if t.HeaderIsFirst {
				row++
			}
		}
	}
	if row < 0 || row >= t.Height() {
		return BlankValue
	}
	v := t.Value[row][x]
	if v == nil {
		return BlankValue
	}
	return v
}

// ColumnNames returns the effective column names: the declared
// descriptors, else the first row when it is the header, else A1-style
// letters.
func (t *DataTable) ColumnNames() []string {
	if len(t.Columns) > 0 {
		names := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			names[i] = col.Name
		}
		return names
	}
	w := t.Width()
	names := make([]string, w)
	if t.HeaderIsFirst && t.Height() > 0 {
		for i := int64(0); i < w; i++ {
			names[i] = t.Value[0][i].Display()
		}
		return names
	}
	for i := int64(0); i < w; i++ {
		names[i] = a1.ColumnLetters(i + 1)
	}
	return names
}

// dataRowCount is the number of sortable rows (excluding a header).
func (t *DataTable) dataRowCount() int64 {
	h := t.Height()
	if t.HeaderIsFirst && h > 0 {
		return h - 1
	}
	return h
}

// Sort rebuilds the display buffer from the sort specification. An
// empty specification clears the buffer.
func (t *DataTable) Sort() {
	if len(t.SortBy) == 0 {
		t.DisplayBuffer = nil
		return
	}
	n := t.dataRowCount()
	buffer := make([]int64, n)
	for i := range buffer {
		buffer[i] = int64(i)
	}
	offset := int64(0)
	if t.HeaderIsFirst {
		offset = 1
	}
	sort.SliceStable(buffer, func(i, j int) bool {
		ri, rj := buffer[i]+offset, buffer[j]+offset
		for _, spec := range t.SortBy {
			if spec.ColumnIndex < 0 || spec.ColumnIndex >= t.Width() {
				continue
			}
			cmp := CompareValues(t.Value[ri][spec.ColumnIndex], t.Value[rj][spec.ColumnIndex])
			if cmp == 0 {
				continue
			}
			if spec.Direction == SortDescending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	t.DisplayBuffer = buffer
}

// CompareValues orders two cell values for sorting: blanks last,
// numbers before everything else, and all other values by their
// case-insensitive display string.
func CompareValues(x, y CellValue) int {
	xBlank, yBlank := IsBlank(x), IsBlank(y)
	switch {
	case xBlank && yBlank:
		return 0
	case xBlank:
		return 1
	case yBlank:
		return -1
	}
	xn, xIsNum := x.(*Number)
	yn, yIsNum := y.(*Number)
	switch {
	case xIsNum && yIsNum:
		return xn.Value.Cmp(yn.Value)
	case xIsNum:
		return -1
	case yIsNum:
		return 1
	}
	xs, ys := strings.ToLower(x.Display()), strings.ToLower(y.Display())
	switch {
	case xs < ys:
		return -1
	case xs > ys:
		return 1
	}
	return 0
}

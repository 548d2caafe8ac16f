package grid

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"tally/a1"
)

// SchemaVersion is written into exported files; imports of any other
// version are rejected.
const SchemaVersion = 1

type fileCellValue struct {
	Kind     Kind    `json:"kind"`
	Number   string  `json:"number,omitempty"`
	Text     string  `json:"text,omitempty"`
	Logical  bool    `json:"logical,omitempty"`
	Instant  string  `json:"instant,omitempty"` // RFC3339 for date/time kinds
	Duration int64   `json:"duration,omitempty"`
	Error    *Error  `json:"error,omitempty"`
	Code     *Code   `json:"code,omitempty"`
	Import   *Import `json:"import,omitempty"`
}

func encodeCellValue(v CellValue) fileCellValue {
	switch val := v.(type) {
	case nil, *Blank:
		return fileCellValue{Kind: BLANK}
	case *Number:
		return fileCellValue{Kind: NUMBER, Number: val.Value.String()}
	case *Text:
		return fileCellValue{Kind: TEXT, Text: val.Value}
	case *Logical:
		return fileCellValue{Kind: LOGICAL, Logical: val.Value}
	case *Date:
		return fileCellValue{Kind: DATE, Instant: val.Value.Format(time.RFC3339)}
	case *Time:
		return fileCellValue{Kind: TIME, Instant: val.Value.Format(time.RFC3339)}
	case *DateTime:
		return fileCellValue{Kind: DATETIME, Instant: val.Value.Format(time.RFC3339)}
	case *Duration:
		return fileCellValue{Kind: DURATION, Duration: int64(val.Value)}
	case *Error:
		return fileCellValue{Kind: ERROR, Error: val}
	case *Code:
		return fileCellValue{Kind: CODE, Code: val}
	case *Import:
		return fileCellValue{Kind: IMPORT, Import: val}
	case *Html:
		return fileCellValue{Kind: HTML, Text: val.Value}
	case *Image:
		return fileCellValue{Kind: IMAGE, Text: val.Value}
	default:
		return fileCellValue{Kind: TEXT, Text: v.Display()}
	}
}

func decodeCellValue(f fileCellValue) (CellValue, error) {
	switch f.Kind {
	case BLANK, "":
		return BlankValue, nil
	case NUMBER:
		d, err := decimal.NewFromString(f.Number)
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", f.Number, err)
		}
		return &Number{Value: d}, nil
	case TEXT:
		return &Text{Value: f.Text}, nil
	case LOGICAL:
		return &Logical{Value: f.Logical}, nil
	case DATE, TIME, DATETIME:
		t, err := time.Parse(time.RFC3339, f.Instant)
		if err != nil {
			return nil, fmt.Errorf("bad instant %q: %w", f.Instant, err)
		}
		switch f.Kind {
		case DATE:
			return &Date{Value: t}, nil
		case TIME:
			return &Time{Value: t}, nil
		default:
			return &DateTime{Value: t}, nil
		}
	case DURATION:
		return &Duration{Value: time.Duration(f.Duration)}, nil
	case ERROR:
		if f.Error == nil {
			return nil, fmt.Errorf("error value without payload")
		}
		return f.Error, nil
	case CODE:
		if f.Code == nil {
			return nil, fmt.Errorf("code value without payload")
		}
		return f.Code, nil
	case IMPORT:
		if f.Import == nil {
			return nil, fmt.Errorf("import value without payload")
		}
		return f.Import, nil
	case HTML:
		return &Html{Value: f.Text}, nil
	case IMAGE:
		return &Image{Value: f.Text}, nil
	}
	return nil, fmt.Errorf("unknown cell kind %q", f.Kind)
}

type fileColumn struct {
	X       int64                    `json:"x"`
	Cells   map[string]fileCellValue `json:"cells,omitempty"`
	Formats map[string]*Format       `json:"formats,omitempty"`
}

type fileTable struct {
	Anchor        a1.Pos            `json:"anchor"`
	Kind          TableKind         `json:"kind"`
	Name          string            `json:"name"`
	Value         [][]fileCellValue `json:"value"`
	Columns       []TableColumn     `json:"columns,omitempty"`
	SortBy        []SortSpec        `json:"sort_by,omitempty"`
	DisplayBuffer []int64           `json:"display_buffer,omitempty"`
	HeaderIsFirst bool              `json:"header_is_first_row"`
	ShowHeader    bool              `json:"show_header"`
	LastModified  time.Time         `json:"last_modified"`
	SpillError    bool              `json:"spill_error"`
	Run           *CodeRun          `json:"run,omitempty"`
}

type fileBorderCell struct {
	Pos     a1.Pos      `json:"pos"`
	Borders CellBorders `json:"borders"`
}

type fileSheet struct {
	ID            a1.SheetID         `json:"id"`
	Name          string             `json:"name"`
	Columns       []fileColumn       `json:"columns,omitempty"`
	Tables        []fileTable        `json:"tables,omitempty"`
	SheetFormat   *Format            `json:"sheet_format,omitempty"`
	ColumnFormats map[string]*Format `json:"column_formats,omitempty"`
	RowFormats    map[string]*Format `json:"row_formats,omitempty"`
	RowSizes      map[string]float64 `json:"row_sizes,omitempty"`
	Merged        []a1.Rect          `json:"merged,omitempty"`
	Borders       []fileBorderCell   `json:"borders,omitempty"`
	Validations   []*Validation      `json:"validations,omitempty"`
}

type fileGrid struct {
	Version int         `json:"version"`
	Sheets  []fileSheet `json:"sheets"`
}

// Export serializes the whole document.
func (g *Grid) Export() ([]byte, error) {
	out := fileGrid{Version: SchemaVersion}
	for _, sheet := range g.Sheets() {
		fs := fileSheet{
			ID:          sheet.ID,
			Name:        sheet.Name,
			SheetFormat: sheet.SheetFormat,
			Merged:      sheet.Merged,
			Validations: sheet.Validations.Rules,
		}
		for _, x := range sortedKeys(sheet.Columns) {
			col := sheet.Columns[x]
			fc := fileColumn{X: x}
			if len(col.Cells) > 0 {
				fc.Cells = make(map[string]fileCellValue, len(col.Cells))
				for _, y := range col.Rows() {
					fc.Cells[strconv.FormatInt(y, 10)] = encodeCellValue(col.Cells[y])
				}
			}
			if len(col.Formats) > 0 {
				fc.Formats = make(map[string]*Format, len(col.Formats))
				for _, y := range col.FormatRows() {
					fc.Formats[strconv.FormatInt(y, 10)] = col.Formats[y]
				}
			}
			fs.Columns = append(fs.Columns, fc)
		}
		for _, anchor := range sheet.tableAnchors() {
			table := sheet.Tables[anchor]
			ft := fileTable{
				Anchor:        anchor,
				Kind:          table.Kind,
				Name:          table.Name,
				Columns:       table.Columns,
				SortBy:        table.SortBy,
				DisplayBuffer: table.DisplayBuffer,
				HeaderIsFirst: table.HeaderIsFirst,
				ShowHeader:    table.ShowHeader,
				LastModified:  table.LastModified,
				SpillError:    table.SpillError,
				Run:           table.Run,
			}
			for _, row := range table.Value {
				encoded := make([]fileCellValue, len(row))
				for i, v := range row {
					encoded[i] = encodeCellValue(v)
				}
				ft.Value = append(ft.Value, encoded)
			}
			fs.Tables = append(fs.Tables, ft)
		}
		if len(sheet.ColumnFormats) > 0 {
			fs.ColumnFormats = make(map[string]*Format, len(sheet.ColumnFormats))
			for x, f := range sheet.ColumnFormats {
				fs.ColumnFormats[strconv.FormatInt(x, 10)] = f
			}
		}
		if len(sheet.RowFormats) > 0 {
			fs.RowFormats = make(map[string]*Format, len(sheet.RowFormats))
			for y, f := range sheet.RowFormats {
				fs.RowFormats[strconv.FormatInt(y, 10)] = f
			}
		}
		if len(sheet.RowSizes) > 0 {
			fs.RowSizes = make(map[string]float64, len(sheet.RowSizes))
			for y, size := range sheet.RowSizes {
				fs.RowSizes[strconv.FormatInt(y, 10)] = size
			}
		}
		for pos, borders := range sheet.Borders.Cells {
			fs.Borders = append(fs.Borders, fileBorderCell{Pos: pos, Borders: *borders})
		}
		sort.Slice(fs.Borders, func(i, j int) bool {
			a, b := fs.Borders[i].Pos, fs.Borders[j].Pos
			if a.Y != b.Y {
				return a.Y < b.Y
			}
			return a.X < b.X
		})
		out.Sheets = append(out.Sheets, fs)
	}
	return json.MarshalIndent(out, "", "  ")
}

// ImportGrid rebuilds a document from exported bytes, restoring every
// store and re-registering names in the context.
func ImportGrid(data []byte) (*Grid, error) {
	var in fileGrid
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse grid file: %w", err)
	}
	if in.Version != SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d (want %d)", in.Version, SchemaVersion)
	}
	g := NewEmptyGrid()
	for _, fs := range in.Sheets {
		sheet := g.AddSheetWithID(fs.ID, fs.Name, len(g.SheetOrder))
		sheet.SheetFormat = fs.SheetFormat
		sheet.Merged = fs.Merged
		if fs.Validations != nil {
			sheet.Validations.Rules = fs.Validations
		}
		for _, fc := range fs.Columns {
			col := sheet.column(fc.X)
			for key, fv := range fc.Cells {
				y, err := strconv.ParseInt(key, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("bad row key %q: %w", key, err)
				}
				v, err := decodeCellValue(fv)
				if err != nil {
					return nil, err
				}
				col.Set(y, v)
			}
			for key, f := range fc.Formats {
				y, err := strconv.ParseInt(key, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("bad row key %q: %w", key, err)
				}
				col.Formats[y] = f
			}
		}
		for _, ft := range fs.Tables {
			table := &DataTable{
				Kind:          ft.Kind,
				Name:          ft.Name,
				Columns:       ft.Columns,
				SortBy:        ft.SortBy,
				DisplayBuffer: ft.DisplayBuffer,
				HeaderIsFirst: ft.HeaderIsFirst,
				ShowHeader:    ft.ShowHeader,
				LastModified:  ft.LastModified,
				SpillError:    ft.SpillError,
				Run:           ft.Run,
			}
			for _, row := range ft.Value {
				decoded := make([]CellValue, len(row))
				for i, fv := range row {
					v, err := decodeCellValue(fv)
					if err != nil {
						return nil, err
					}
					decoded[i] = v
				}
				table.Value = append(table.Value, decoded)
			}
			sheet.Tables[ft.Anchor] = table
			g.RegisterTable(sheet, ft.Anchor, table)
		}
		if err := importFormatMap(fs.ColumnFormats, sheet.ColumnFormats); err != nil {
			return nil, err
		}
		if err := importFormatMap(fs.RowFormats, sheet.RowFormats); err != nil {
			return nil, err
		}
		for key, size := range fs.RowSizes {
			y, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad row key %q: %w", key, err)
			}
			sheet.RowSizes[y] = size
		}
		for _, fb := range fs.Borders {
			borders := fb.Borders
			sheet.Borders.Cells[fb.Pos] = &borders
		}
		if len(fs.Borders) > 0 {
			borderBounds := a1.SingleRect(fs.Borders[0].Pos)
			for _, fb := range fs.Borders[1:] {
				borderBounds = borderBounds.Union(a1.SingleRect(fb.Pos))
			}
			sheet.Borders.rebuildLines(borderBounds)
		}
		g.SyncBounds(sheet)
	}
	return g, nil
}

func importFormatMap(in map[string]*Format, out map[int64]*Format) error {
	for key, f := range in {
		idx, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("bad format key %q: %w", key, err)
		}
		out[idx] = f
	}
	return nil
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

package a1

import "strings"

// TableInfo describes one computed table for reference resolution.
type TableInfo struct {
	Sheet     SheetID
	Name      string
	Anchor    Pos
	Columns   []string
	HasHeader bool
	Width     int64
	Height    int64 // value rows, including the header row when present
}

// Context is the name table the engine consults when parsing,
// printing and adjusting references: sheet name <-> id and table
// name -> geometry. It is kept up to date by sheet and table
// lifecycle operations.
type Context struct {
	sheetNames map[string]SheetID // lower(name) -> id
	sheetIDs   map[SheetID]string // id -> name
	tables     map[string]*TableInfo
	bounds     map[SheetID]Pos // cached data bounds per sheet, for clamping
}

func NewContext() *Context {
	return &Context{
		sheetNames: make(map[string]SheetID),
		sheetIDs:   make(map[SheetID]string),
		tables:     make(map[string]*TableInfo),
		bounds:     make(map[SheetID]Pos),
	}
}

func (c *Context) AddSheet(id SheetID, name string) {
	c.sheetNames[strings.ToLower(name)] = id
	c.sheetIDs[id] = name
}

func (c *Context) RemoveSheet(id SheetID) {
	if name, ok := c.sheetIDs[id]; ok {
		delete(c.sheetNames, strings.ToLower(name))
		delete(c.sheetIDs, id)
		delete(c.bounds, id)
	}
}

func (c *Context) RenameSheet(id SheetID, newName string) {
	if old, ok := c.sheetIDs[id]; ok {
		delete(c.sheetNames, strings.ToLower(old))
	}
	c.sheetNames[strings.ToLower(newName)] = id
	c.sheetIDs[id] = newName
}

// SheetName returns the user-visible name for a sheet id.
func (c *Context) SheetName(id SheetID) (string, bool) {
	name, ok := c.sheetIDs[id]
	return name, ok
}

// SheetIDByName resolves a sheet name case-insensitively.
func (c *Context) SheetIDByName(name string) (SheetID, bool) {
	id, ok := c.sheetNames[strings.ToLower(name)]
	return id, ok
}

func (c *Context) AddTable(info TableInfo) {
	c.tables[strings.ToLower(info.Name)] = &info
}

func (c *Context) RemoveTable(name string) {
	delete(c.tables, strings.ToLower(name))
}

func (c *Context) RenameTable(oldName, newName string) {
	key := strings.ToLower(oldName)
	if info, ok := c.tables[key]; ok {
		delete(c.tables, key)
		info.Name = newName
		c.tables[strings.ToLower(newName)] = info
	}
}

func (c *Context) Table(name string) (*TableInfo, bool) {
	info, ok := c.tables[strings.ToLower(name)]
	return info, ok
}

// TableNames lists the registered table names (order unspecified).
func (c *Context) TableNames() []string {
	names := make([]string, 0, len(c.tables))
	for _, info := range c.tables {
		names = append(names, info.Name)
	}
	return names
}

// SetSheetBounds caches a sheet's data bounds for clamping unbounded
// references.
func (c *Context) SetSheetBounds(id SheetID, max Pos) {
	c.bounds[id] = max
}

func (c *Context) SheetBounds(id SheetID) (maxX, maxY int64) {
	max, ok := c.bounds[id]
	if !ok || max.X < 1 || max.Y < 1 {
		return 1, 1
	}
	return max.X, max.Y
}

// TableRect resolves a table reference to its data rectangle: the
// whole table body, a single column, or a column span. The header row
// is excluded from column references.
func (c *Context) TableRect(ref *TableRef) (Rect, bool) {
	info, ok := c.Table(ref.Table)
	if !ok {
		return Rect{}, false
	}
	top := info.Anchor.Y
	height := info.Height
	if info.HasHeader {
		top++
		height--
	}
	if height < 1 {
		height = 1
	}
	if !ref.HasCols {
		return NewRectSpan(Pos{X: info.Anchor.X, Y: top}, info.Width, height), true
	}
	first := tableColumnIndex(info, ref.StartCol)
	if first < 0 {
		return Rect{}, false
	}
	last := first
	if ref.OpenEnd {
		last = int64(len(info.Columns)) - 1
	} else if ref.EndCol != "" {
		last = tableColumnIndex(info, ref.EndCol)
		if last < 0 {
			return Rect{}, false
		}
	}
	if last < first {
		first, last = last, first
	}
	return NewRectSpan(Pos{X: info.Anchor.X + first, Y: top}, last-first+1, height), true
}

func tableColumnIndex(info *TableInfo, col string) int64 {
	for i, name := range info.Columns {
		if strings.EqualFold(name, col) {
			return int64(i)
		}
	}
	return -1
}

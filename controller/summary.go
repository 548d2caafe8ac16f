package controller

import (
	"tally/a1"
)

// thumbnailRect is the window rendered into document thumbnails; any
// change intersecting it sets the thumbnail-dirty flag for the first
// sheet.
var thumbnailRect = a1.Rect{Min: a1.Pos{X: 1, Y: 1}, Max: a1.Pos{X: 40, Y: 90}}

// TransactionSummary tells the renderer what changed in one
// transaction.
type TransactionSummary struct {
	Save                 bool                `json:"save"`
	GenerateThumbnail    bool                `json:"generate_thumbnail"`
	CodeCellsModified    map[a1.SheetID]bool `json:"code_cells_modified,omitempty"`
	CellSheetsModified   []a1.SheetRect      `json:"cell_sheets_modified,omitempty"`
	SheetListModified    bool                `json:"sheet_list_modified"`
	FillSheetsModified   map[a1.SheetID]bool `json:"fill_sheets_modified,omitempty"`
	BorderSheetsModified map[a1.SheetID]bool `json:"border_sheets_modified,omitempty"`
	Html                 map[a1.SheetID]bool `json:"html,omitempty"`
	Image                map[a1.SheetID]bool `json:"image,omitempty"`
	OffsetsModified      []a1.SheetID        `json:"offsets_modified,omitempty"`
	TransactionID        string              `json:"transaction_id,omitempty"`
}

func newSummary(id string) *TransactionSummary {
	return &TransactionSummary{
		CodeCellsModified:    make(map[a1.SheetID]bool),
		FillSheetsModified:   make(map[a1.SheetID]bool),
		BorderSheetsModified: make(map[a1.SheetID]bool),
		Html:                 make(map[a1.SheetID]bool),
		Image:                make(map[a1.SheetID]bool),
		TransactionID:        id,
	}
}

// addCellRect records a rectangle needing rerender, merging per-sheet
// rects that touch.
func (s *TransactionSummary) addCellRect(rect a1.SheetRect) {
	for i, have := range s.CellSheetsModified {
		if have.Sheet == rect.Sheet && have.Rect.Intersects(rect.Rect) {
			s.CellSheetsModified[i].Rect = have.Rect.Union(rect.Rect)
			return
		}
	}
	s.CellSheetsModified = append(s.CellSheetsModified, rect)
}

func (s *TransactionSummary) markThumbnail(firstSheet a1.SheetID, rect a1.SheetRect) {
	if rect.Sheet == firstSheet && rect.Rect.Intersects(thumbnailRect) {
		s.GenerateThumbnail = true
	}
}

func (s *TransactionSummary) addOffsetsModified(sheet a1.SheetID) {
	for _, have := range s.OffsetsModified {
		if have == sheet {
			return
		}
	}
	s.OffsetsModified = append(s.OffsetsModified, sheet)
}

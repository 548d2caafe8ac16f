package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"tally/a1"
	"tally/controller"
	"tally/grid"
	"tally/kernel"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local renderer only
	},
}

// Request is one client message. Type selects the action; the other
// fields are filled per type.
type Request struct {
	Type    string `json:"type"`
	SheetID string `json:"sheet_id,omitempty"`
	X       int64  `json:"x,omitempty"`
	Y       int64  `json:"y,omitempty"`
	Value   string `json:"value,omitempty"`
	// Selection and Range are A1 strings for fill requests.
	Selection string `json:"selection,omitempty"`
	Range     string `json:"range,omitempty"`
	Name      string `json:"name,omitempty"`
	Index     int64  `json:"index,omitempty"`
}

// CellPatch is one rendered cell sent to clients.
type CellPatch struct {
	X     int64  `json:"x"`
	Y     int64  `json:"y"`
	Value string `json:"value"`
}

// Response is pushed to every client after a transaction.
type Response struct {
	Type    string                         `json:"type"`
	Summary *controller.TransactionSummary `json:"summary,omitempty"`
	Sheets  []SheetInfo                    `json:"sheets,omitempty"`
	Cells   map[string][]CellPatch         `json:"cells,omitempty"` // sheet id -> patches
	Error   string                         `json:"error,omitempty"`
}

type SheetInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Server serves one document over websockets: operations in,
// summaries and cell patches out. It also owns the kernel client and
// the autosave store.
type Server struct {
	controller *controller.GridController
	kernel     *kernel.Client
	store      *Store
	docID      string
	clients    map[*websocket.Conn]bool
	mu         sync.Mutex
}

func New(c *controller.GridController, store *Store, docID string) *Server {
	return &Server{
		controller: c,
		store:      store,
		docID:      docID,
		clients:    make(map[*websocket.Conn]bool),
	}
}

// AttachKernel wires the async runtime and starts draining its
// results into the controller.
func (s *Server) AttachKernel(k *kernel.Client) {
	s.kernel = k
	s.controller.SetRuntime(k)
	go func() {
		for result := range k.Results() {
			s.mu.Lock()
			summary := s.controller.AfterCalculationAsync(result.Result)
			if !s.controller.TransactionInProgress() {
				s.autosave()
			}
			s.mu.Unlock()
			s.broadcastSummary(summary)
		}
	}()
}

func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade error: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	s.sendState(conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			log.Printf("bad request: %v", err)
			continue
		}
		s.handleRequest(conn, req)
	}
}

func (s *Server) handleRequest(conn *websocket.Conn, req Request) {
	s.mu.Lock()
	summary, err := s.dispatch(req)
	if err == nil && !s.controller.TransactionInProgress() {
		s.autosave()
	}
	s.mu.Unlock()

	if err != nil {
		s.send(conn, Response{Type: "error", Error: err.Error()})
		return
	}
	s.broadcastSummary(summary)
}

func (s *Server) dispatch(req Request) (summary *controller.TransactionSummary, err error) {
	defer func() {
		// Malformed client input that trips an engine invariant must
		// not take the server down with it.
		if r := recover(); r != nil {
			err = &requestError{message: "rejected request", detail: r}
		}
	}()

	c := s.controller
	g := c.Grid()
	sheetID := a1.SheetID(req.SheetID)
	if sheetID == "" {
		sheetID = g.FirstSheetID()
	}
	sp := a1.SheetPos{Sheet: sheetID, Pos: a1.Pos{X: req.X, Y: req.Y}}

	switch req.Type {
	case "set_cell":
		return c.SetCellText(sp, req.Value), nil
	case "undo":
		return c.Undo(""), nil
	case "redo":
		return c.Redo(""), nil
	case "create_sheet":
		return c.StartUserTransaction([]controller.Operation{
			controller.CreateSheet{Name: req.Name},
		}, ""), nil
	case "delete_sheet":
		return c.StartUserTransaction([]controller.Operation{
			controller.DeleteSheet{Sheet: sheetID},
		}, ""), nil
	case "rename_sheet":
		return c.StartUserTransaction([]controller.Operation{
			controller.RenameSheet{Sheet: sheetID, Name: req.Name},
		}, ""), nil
	case "reorder_sheet":
		return c.StartUserTransaction([]controller.Operation{
			controller.ReorderSheet{Sheet: sheetID, Index: int(req.Index)},
		}, ""), nil
	case "autocomplete":
		sel, perr := a1.ParseRange(req.Selection, sheetID, g.Ctx)
		if perr != nil {
			return nil, perr
		}
		target, perr := a1.ParseRange(req.Range, sheetID, g.Ctx)
		if perr != nil {
			return nil, perr
		}
		selRect, _ := sel.ToSheetRect(g.Ctx)
		targetRect, _ := target.ToSheetRect(g.Ctx)
		return c.StartUserTransaction([]controller.Operation{
			controller.Autocomplete{
				Sheet:     sheetID,
				Selection: selRect.Rect,
				Range:     targetRect.Rect,
			},
		}, ""), nil
	}
	return nil, &requestError{message: "unknown request type " + req.Type}
}

type requestError struct {
	message string
	detail  any
}

func (e *requestError) Error() string {
	if e.detail == nil {
		return e.message
	}
	return e.message
}

// sendState pushes the full document to one client.
func (s *Server) sendState(conn *websocket.Conn) {
	s.mu.Lock()
	resp := s.stateResponse()
	s.mu.Unlock()
	s.send(conn, resp)
}

func (s *Server) stateResponse() Response {
	g := s.controller.Grid()
	resp := Response{Type: "state", Cells: make(map[string][]CellPatch)}
	for _, sheet := range g.Sheets() {
		resp.Sheets = append(resp.Sheets, SheetInfo{ID: string(sheet.ID), Name: sheet.Name})
		bounds, ok := sheet.Bounds()
		if !ok {
			continue
		}
		var patches []CellPatch
		for y := bounds.Min.Y; y <= bounds.Max.Y; y++ {
			for x := bounds.Min.X; x <= bounds.Max.X; x++ {
				v := sheet.DisplayValue(a1.Pos{X: x, Y: y})
				if grid.IsBlank(v) {
					continue
				}
				patches = append(patches, CellPatch{X: x, Y: y, Value: v.Display()})
			}
		}
		resp.Cells[string(sheet.ID)] = patches
	}
	return resp
}

// broadcastSummary refreshes every client after a change. Patches are
// restricted to the summary's dirty rectangles.
func (s *Server) broadcastSummary(summary *controller.TransactionSummary) {
	s.mu.Lock()
	g := s.controller.Grid()
	resp := Response{Type: "update", Summary: summary, Cells: make(map[string][]CellPatch)}
	for _, dirty := range summary.CellSheetsModified {
		sheet, ok := g.Sheet(dirty.Sheet)
		if !ok {
			continue
		}
		patches := resp.Cells[string(dirty.Sheet)]
		for y := dirty.Rect.Min.Y; y <= dirty.Rect.Max.Y; y++ {
			for x := dirty.Rect.Min.X; x <= dirty.Rect.Max.X; x++ {
				v := sheet.DisplayValue(a1.Pos{X: x, Y: y})
				patches = append(patches, CellPatch{X: x, Y: y, Value: v.Display()})
			}
		}
		resp.Cells[string(dirty.Sheet)] = patches
	}
	if summary.SheetListModified {
		for _, sheet := range g.Sheets() {
			resp.Sheets = append(resp.Sheets, SheetInfo{ID: string(sheet.ID), Name: sheet.Name})
		}
	}
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		s.send(conn, resp)
	}
}

func (s *Server) send(conn *websocket.Conn, resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		log.Printf("marshal response: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("write to client: %v", err)
	}
}

// autosave persists the document after every committed transaction.
func (s *Server) autosave() {
	if s.store == nil {
		return
	}
	data, err := s.controller.Grid().Export()
	if err != nil {
		log.Printf("autosave export: %v", err)
		return
	}
	if err := s.store.Save(s.docID, data); err != nil {
		log.Printf("autosave write: %v", err)
	}
}

// ListenAndServe starts the websocket endpoint on addr.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWebSocket)
	log.Printf("grid server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

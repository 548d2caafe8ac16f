package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"tally/a1"
	"tally/controller"
)

// Repl is an interactive shell over one grid document.
type Repl struct {
	controller *controller.GridController
	sheet      a1.SheetID
	in         io.Reader
	out        io.Writer
}

func New(c *controller.GridController) *Repl {
	return &Repl{
		controller: c,
		sheet:      c.Grid().FirstSheetID(),
		in:         os.Stdin,
		out:        os.Stdout,
	}
}

// NewWithIO builds a repl on explicit streams, for tests.
func NewWithIO(c *controller.GridController, in io.Reader, out io.Writer) *Repl {
	r := New(c)
	r.in = in
	r.out = out
	return r
}

// Run reads commands until EOF or `quit`.
func (r *Repl) Run() error {
	fmt.Fprintln(r.out, "tally grid shell — type `help` for commands")

	if tty, ok := newTTYInput(r.in, r.out); ok {
		defer tty.restore()
		for {
			line, err := tty.readLine("> ")
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if !r.execute(line) {
				return nil
			}
		}
	}

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if !r.execute(scanner.Text()) {
			return nil
		}
	}
}

// execute runs one command line; false means quit.
func (r *Repl) execute(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	fields := strings.Fields(line)
	command := strings.ToLower(fields[0])
	args := fields[1:]

	switch command {
	case "quit", "exit":
		return false
	case "help":
		r.printHelp()
	case "set":
		r.cmdSet(args, line)
	case "show":
		r.cmdShow(args)
	case "undo":
		r.report(r.controller.Undo(""))
	case "redo":
		r.report(r.controller.Redo(""))
	case "fill":
		r.cmdFill(args)
	case "sheets":
		r.cmdSheets()
	case "sheet":
		r.cmdSheet(args)
	case "export":
		r.cmdExport(args)
	default:
		fmt.Fprintf(r.out, "unknown command: %s\n", command)
	}
	return true
}

func (r *Repl) printHelp() {
	fmt.Fprint(r.out, `Commands:
  set <cell> <value>      set a cell (prefix = for a formula)
  show [range]            print a range (default: used bounds)
  fill <sel> <range>      autocomplete sel into range
  undo / redo             walk the undo stack
  sheets                  list sheets
  sheet <name>            switch the active sheet
  export <file>           write the grid file
  quit                    leave
`)
}

func (r *Repl) cmdSet(args []string, line string) {
	if len(args) < 2 {
		fmt.Fprintln(r.out, "usage: set <cell> <value>")
		return
	}
	ref, err := a1.ParseRange(args[0], r.sheet, r.controller.Grid().Ctx)
	if err != nil {
		fmt.Fprintf(r.out, "bad cell: %v\n", err)
		return
	}
	rect, ok := ref.ToSheetRect(r.controller.Grid().Ctx)
	if !ok || rect.Rect.Width() != 1 || rect.Rect.Height() != 1 {
		fmt.Fprintln(r.out, "set needs a single cell")
		return
	}
	// Everything after the cell is the value, spaces preserved.
	value := strings.TrimSpace(line[strings.Index(line, args[0])+len(args[0]):])
	summary := r.controller.SetCellText(a1.SheetPos{Sheet: rect.Sheet, Pos: rect.Rect.Min}, value)
	r.report(summary)
}

func (r *Repl) cmdShow(args []string) {
	g := r.controller.Grid()
	sheet, ok := g.Sheet(r.sheet)
	if !ok {
		fmt.Fprintln(r.out, "no active sheet")
		return
	}
	var rect a1.Rect
	if len(args) > 0 {
		ref, err := a1.ParseRange(args[0], r.sheet, g.Ctx)
		if err != nil {
			fmt.Fprintf(r.out, "bad range: %v\n", err)
			return
		}
		sr, ok := ref.ToSheetRect(g.Ctx)
		if !ok {
			fmt.Fprintln(r.out, "bad range")
			return
		}
		rect = sr.Rect
	} else {
		bounds, ok := sheet.Bounds()
		if !ok {
			fmt.Fprintln(r.out, "(empty sheet)")
			return
		}
		rect = bounds
	}
	for y := rect.Min.Y; y <= rect.Max.Y; y++ {
		cells := make([]string, 0, rect.Width())
		for x := rect.Min.X; x <= rect.Max.X; x++ {
			v := sheet.DisplayValue(a1.Pos{X: x, Y: y})
			display := v.Display()
			if display == "" {
				display = "·"
			}
			cells = append(cells, fmt.Sprintf("%-12s", display))
		}
		fmt.Fprintf(r.out, "%4d  %s\n", y, strings.Join(cells, " "))
	}
}

func (r *Repl) cmdFill(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(r.out, "usage: fill <sel> <range>")
		return
	}
	g := r.controller.Grid()
	sel, err := a1.ParseRange(args[0], r.sheet, g.Ctx)
	if err != nil {
		fmt.Fprintf(r.out, "bad selection: %v\n", err)
		return
	}
	target, err := a1.ParseRange(args[1], r.sheet, g.Ctx)
	if err != nil {
		fmt.Fprintf(r.out, "bad range: %v\n", err)
		return
	}
	selRect, _ := sel.ToSheetRect(g.Ctx)
	targetRect, _ := target.ToSheetRect(g.Ctx)
	summary := r.controller.StartUserTransaction([]controller.Operation{
		controller.Autocomplete{Sheet: r.sheet, Selection: selRect.Rect, Range: targetRect.Rect},
	}, "")
	r.report(summary)
}

func (r *Repl) cmdSheets() {
	for _, sheet := range r.controller.Grid().Sheets() {
		marker := " "
		if sheet.ID == r.sheet {
			marker = "*"
		}
		fmt.Fprintf(r.out, "%s %s\n", marker, sheet.Name)
	}
}

func (r *Repl) cmdSheet(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "usage: sheet <name>")
		return
	}
	sheet, ok := r.controller.Grid().SheetByName(args[0])
	if !ok {
		fmt.Fprintf(r.out, "no sheet named %q\n", args[0])
		return
	}
	r.sheet = sheet.ID
}

func (r *Repl) cmdExport(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "usage: export <file>")
		return
	}
	data, err := r.controller.Grid().Export()
	if err != nil {
		fmt.Fprintf(r.out, "export: %v\n", err)
		return
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		fmt.Fprintf(r.out, "write: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "wrote %s\n", args[0])
}

func (r *Repl) report(summary *controller.TransactionSummary) {
	if summary == nil {
		return
	}
	if r.controller.TransactionInProgress() {
		fmt.Fprintln(r.out, "(waiting for code runtime)")
		return
	}
	for _, rect := range summary.CellSheetsModified {
		fmt.Fprintf(r.out, "updated %s\n", rect.Rect)
	}
}

package repl

import (
	"bytes"
	"strings"
	"testing"

	"tally/controller"
)

func runScript(t *testing.T, lines ...string) string {
	t.Helper()
	c := controller.NewGridController()
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer
	r := NewWithIO(c, in, &out)
	if err := r.Run(); err != nil {
		t.Fatalf("repl error: %v", err)
	}
	return out.String()
}

func TestReplSetAndShow(t *testing.T) {
	out := runScript(t,
		"set A1 10",
		"set A2 =A1 * 3",
		"show A1:A2",
		"quit",
	)
	if !strings.Contains(out, "30") {
		t.Fatalf("expected computed value in output:\n%s", out)
	}
}

func TestReplUndo(t *testing.T) {
	out := runScript(t,
		"set A1 hello",
		"undo",
		"show A1",
		"quit",
	)
	// After undo the cell is blank, rendered as the placeholder dot.
	if !strings.Contains(out, "·") {
		t.Fatalf("expected blank placeholder:\n%s", out)
	}
}

func TestReplFill(t *testing.T) {
	out := runScript(t,
		"set A1 1",
		"set A2 2",
		"fill A1:A2 A1:A5",
		"show A1:A5",
		"quit",
	)
	for _, want := range []string{"3", "4", "5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in output:\n%s", want, out)
		}
	}
}

func TestReplUnknownCommand(t *testing.T) {
	out := runScript(t, "frobnicate", "quit")
	if !strings.Contains(out, "unknown command") {
		t.Fatalf("expected complaint:\n%s", out)
	}
}

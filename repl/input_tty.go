package repl

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ttyInput reads edited lines from a raw-mode terminal with history.
// When stdin is not a terminal the repl falls back to a plain
// scanner.
type ttyInput struct {
	in         *os.File
	out        io.Writer
	state      *term.State
	history    []string
	maxHistory int
}

func newTTYInput(in io.Reader, out io.Writer) (*ttyInput, bool) {
	inFile, ok := in.(*os.File)
	if !ok {
		return nil, false
	}
	if !term.IsTerminal(int(inFile.Fd())) {
		return nil, false
	}
	state, err := term.MakeRaw(int(inFile.Fd()))
	if err != nil {
		return nil, false
	}
	return &ttyInput{
		in:         inFile,
		out:        out,
		state:      state,
		maxHistory: 200,
	}, true
}

func (ti *ttyInput) restore() {
	if ti.state != nil {
		term.Restore(int(ti.in.Fd()), ti.state)
	}
}

// readLine edits one line. io.EOF signals Ctrl-D on an empty line.
func (ti *ttyInput) readLine(prompt string) (string, error) {
	fmt.Fprint(ti.out, prompt)
	var line []byte
	historyIdx := len(ti.history)
	buf := make([]byte, 1)

	redraw := func() {
		fmt.Fprintf(ti.out, "\r\x1b[K%s%s", prompt, line)
	}

	for {
		if _, err := ti.in.Read(buf); err != nil {
			return "", err
		}
		ch := buf[0]
		switch ch {
		case '\r', '\n':
			fmt.Fprint(ti.out, "\r\n")
			text := string(line)
			if text != "" {
				ti.history = append(ti.history, text)
				if len(ti.history) > ti.maxHistory {
					ti.history = ti.history[1:]
				}
			}
			return text, nil
		case 3: // Ctrl-C
			fmt.Fprint(ti.out, "^C\r\n")
			line = line[:0]
			historyIdx = len(ti.history)
			fmt.Fprint(ti.out, prompt)
		case 4: // Ctrl-D
			if len(line) == 0 {
				fmt.Fprint(ti.out, "\r\n")
				return "", io.EOF
			}
		case 127, 8: // Backspace
			if len(line) > 0 {
				line = line[:len(line)-1]
				redraw()
			}
		case 27: // Escape sequence: arrows
			seq := make([]byte, 2)
			if _, err := io.ReadFull(ti.in, seq); err != nil {
				continue
			}
			if seq[0] != '[' {
				continue
			}
			switch seq[1] {
			case 'A': // Up
				if historyIdx > 0 {
					historyIdx--
					line = []byte(ti.history[historyIdx])
					redraw()
				}
			case 'B': // Down
				if historyIdx < len(ti.history) {
					historyIdx++
					if historyIdx == len(ti.history) {
						line = line[:0]
					} else {
						line = []byte(ti.history[historyIdx])
					}
					redraw()
				}
			}
		default:
			if ch >= 32 {
				line = append(line, ch)
				fmt.Fprintf(ti.out, "%c", ch)
			}
		}
	}
}

package datetime

import (
	"fmt"
	"strings"
	"time"
)

// formatToken is one element of a scanned strftime template: either a
// literal run or a %-spec.
type formatToken struct {
	literal string
	spec    byte
	noPad   bool // %-d style
}

func (t formatToken) isSpec() bool { return t.literal == "" }

func (t formatToken) isDateSpec() bool {
	switch t.spec {
	case 'Y', 'y', 'm', 'd', 'B', 'b', 'A', 'a', 'j', 'e':
		return t.isSpec()
	}
	return false
}

func (t formatToken) isTimeSpec() bool {
	switch t.spec {
	case 'H', 'I', 'M', 'S', 'p', 'P', 'f':
		return t.isSpec()
	}
	return false
}

// scanFormat splits a strftime template into tokens. Unknown specs are
// kept as literals so they survive a round trip.
func scanFormat(format string) []formatToken {
	var tokens []formatToken
	var lit []byte
	flush := func() {
		if len(lit) > 0 {
			tokens = append(tokens, formatToken{literal: string(lit)})
			lit = nil
		}
	}
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			lit = append(lit, format[i])
			continue
		}
		i++
		noPad := false
		if format[i] == '-' && i+1 < len(format) {
			noPad = true
			i++
		}
		ch := format[i]
		switch ch {
		case '%':
			lit = append(lit, '%')
		case '.':
			// %.3f fractional seconds; swallow the digits and the f.
			for i+1 < len(format) && format[i+1] >= '0' && format[i+1] <= '9' {
				i++
			}
			if i+1 < len(format) && format[i+1] == 'f' {
				i++
			}
			flush()
			tokens = append(tokens, formatToken{spec: 'f'})
		default:
			flush()
			tokens = append(tokens, formatToken{spec: ch, noPad: noPad})
		}
	}
	flush()
	return tokens
}

func formatSpec(t time.Time, spec byte, noPad bool) string {
	pad := func(n, width int) string {
		if noPad {
			return fmt.Sprintf("%d", n)
		}
		return fmt.Sprintf("%0*d", width, n)
	}
	switch spec {
	case 'Y':
		return fmt.Sprintf("%d", t.Year())
	case 'y':
		return pad(t.Year()%100, 2)
	case 'm':
		return pad(int(t.Month()), 2)
	case 'd':
		return pad(t.Day(), 2)
	case 'e':
		return fmt.Sprintf("%d", t.Day())
	case 'j':
		return pad(t.YearDay(), 3)
	case 'B':
		return t.Month().String()
	case 'b':
		return t.Month().String()[:3]
	case 'A':
		return t.Weekday().String()
	case 'a':
		return t.Weekday().String()[:3]
	case 'H':
		return pad(t.Hour(), 2)
	case 'I':
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		return pad(h, 2)
	case 'M':
		return pad(t.Minute(), 2)
	case 'S':
		return pad(t.Second(), 2)
	case 'p':
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case 'P':
		if t.Hour() < 12 {
			return "am"
		}
		return "pm"
	case 'f':
		return ""
	default:
		return "%" + string(spec)
	}
}

func formatTokens(t time.Time, tokens []formatToken) string {
	var out strings.Builder
	for _, tok := range tokens {
		if tok.isSpec() {
			out.WriteString(formatSpec(t, tok.spec, tok.noPad))
		} else {
			out.WriteString(tok.literal)
		}
	}
	return out.String()
}

// Strftime formats t with a strftime-style template.
func Strftime(t time.Time, format string) string {
	return formatTokens(t, scanFormat(format))
}

package datetime

import (
	"strings"
	"time"
)

const (
	DefaultDateFormat     = "%m/%d/%Y"
	DefaultTimeFormat     = "%-I:%M %p"
	DefaultDateTimeFormat = "%m/%d/%Y %-I:%M %p"
)

func findDateStart(tokens []formatToken) int {
	for i, tok := range tokens {
		if tok.isDateSpec() {
			return i
		}
	}
	return -1
}

func findTimeStart(tokens []formatToken) int {
	for i, tok := range tokens {
		if tok.isTimeSpec() {
			return i
		}
	}
	return -1
}

func trimLiteralEdges(tokens []formatToken) []formatToken {
	for len(tokens) > 0 && !tokens[0].isSpec() && strings.TrimSpace(tokens[0].literal) == "" {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		if !last.isSpec() && strings.TrimSpace(last.literal) == "" {
			tokens = tokens[:len(tokens)-1]
			continue
		}
		break
	}
	return tokens
}

// FormatDateTime formats a date-time with the template, or the default
// date-time format when the template is empty.
func FormatDateTime(t time.Time, format string) string {
	if format == "" {
		format = DefaultDateTimeFormat
	}
	return Strftime(t, format)
}

// FormatDate formats a date-only value. Time items in the template are
// stripped along with adjacent whitespace; a template with no date
// items at all falls back to the default date format.
func FormatDate(t time.Time, format string) string {
	if format == "" {
		format = DefaultDateFormat
	}
	tokens := scanFormat(format)
	dateStart := findDateStart(tokens)
	if dateStart < 0 {
		return Strftime(t, DefaultDateFormat)
	}
	timeStart := findTimeStart(tokens)
	if timeStart >= 0 {
		if dateStart < timeStart {
			tokens = tokens[:timeStart]
		} else {
			tokens = tokens[dateStart:]
			if end := findTimeStart(tokens); end >= 0 {
				tokens = tokens[:end]
			}
		}
		tokens = trimLiteralEdges(tokens)
	}
	return formatTokens(t, tokens)
}

// FormatTime formats a time-only value, stripping date items the same
// way FormatDate strips time items.
func FormatTime(t time.Time, format string) string {
	if format == "" {
		format = DefaultTimeFormat
	}
	tokens := scanFormat(format)
	timeStart := findTimeStart(tokens)
	if timeStart < 0 {
		return Strftime(t, DefaultTimeFormat)
	}
	dateStart := findDateStart(tokens)
	if dateStart >= 0 {
		if timeStart < dateStart {
			tokens = tokens[:dateStart]
		} else {
			tokens = tokens[timeStart:]
			if end := findDateStart(tokens); end >= 0 {
				tokens = tokens[:end]
			}
		}
		tokens = trimLiteralEdges(tokens)
	}
	return formatTokens(t, tokens)
}

package datetime

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// American selects M/D/Y over D/M/Y when a date is ambiguous.
const American = true

// CenturyCutoff splits 2-digit years: below it is 20xx, at or above it
// is 19xx. Parsing only, so safe to change.
const CenturyCutoff = 50

var dateSeparators = []byte{'/', '-', '.'}

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

func monthFromName(s string) (time.Month, bool) {
	key := strings.ToLower(s)
	if m, ok := monthNames[key]; ok {
		return m, true
	}
	if len(key) == 3 {
		for name, m := range monthNames {
			if strings.HasPrefix(name, key) {
				return m, true
			}
		}
	}
	return 0, false
}

// dateComponent classifies one piece of a date string: an unambiguous
// year (4 digits), month (named), day (ordinal suffix), or an
// ambiguous 1- or 2-digit number.
type dateComponent struct {
	year, month, day int
	hasYear          bool
	hasMonth         bool
	hasDay           bool
	ambiguous        bool
	leadingZero      bool
}

func parseDateComponent(s string) (dateComponent, bool) {
	var c dateComponent
	if m, ok := monthFromName(s); ok {
		c.month, c.hasMonth = int(m), true
		return c, true
	}
	for _, suffix := range []string{"st", "nd", "rd", "th"} {
		if rest, ok := strings.CutSuffix(s, suffix); ok {
			n, err := strconv.Atoi(rest)
			if err != nil {
				return c, false
			}
			c.day, c.hasDay = n, true
			return c, true
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return c, false
	}
	switch len(s) {
	case 1:
		c.month, c.hasMonth = n, true
		c.day, c.hasDay = n, true
		c.ambiguous = true
	case 2:
		if n < CenturyCutoff {
			c.year = n + 2000
		} else {
			c.year = n + 1900
		}
		c.hasYear = true
		c.month, c.hasMonth = n, true
		c.day, c.hasDay = n, true
		c.ambiguous = true
		c.leadingZero = s[0] == '0'
	case 4:
		c.year, c.hasYear = n, true
	default:
		return c, false
	}
	return c, true
}

type dateComponents struct {
	separator  byte
	components []dateComponent
}

func splitDateComponents(s string) (dateComponents, bool) {
	for _, sep := range dateSeparators {
		if strings.IndexByte(s, sep) >= 0 {
			return newDateComponents(sep, strings.Split(strings.TrimSpace(s), string(sep)))
		}
	}
	return newDateComponents(' ', strings.Fields(strings.ReplaceAll(s, ",", " ")))
}

func newDateComponents(sep byte, parts []string) (dateComponents, bool) {
	out := dateComponents{separator: sep}
	for _, part := range parts {
		c, ok := parseDateComponent(strings.TrimSpace(part))
		if !ok {
			return out, false
		}
		out.components = append(out.components, c)
	}
	return out, true
}

// tryFormat attempts to read the components using a template of `ymd`
// (number that could be year/month/day) and `YMD` (number that must
// be). Missing fields default to the current year, January, the 1st.
func (dc dateComponents) tryFormat(format string) (time.Time, bool) {
	if len(format) != len(dc.components) {
		return time.Time{}, false
	}
	year, month, day := 0, 0, 0
	for i := 0; i < len(format); i++ {
		c := dc.components[i]
		switch format[i] {
		case 'y':
			if !c.hasYear {
				return time.Time{}, false
			}
			year = c.year
		case 'm':
			if !c.hasMonth {
				return time.Time{}, false
			}
			month = c.month
		case 'd':
			if !c.hasDay {
				return time.Time{}, false
			}
			day = c.day
		case 'Y':
			if !c.hasYear || c.ambiguous {
				return time.Time{}, false
			}
			year = c.year
		case 'M':
			if !c.hasMonth || c.ambiguous {
				return time.Time{}, false
			}
			month = c.month
		case 'D':
			if !c.hasDay || c.ambiguous {
				return time.Time{}, false
			}
			day = c.day
		}
	}
	if year == 0 {
		year = time.Now().Year()
	}
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range days; reject those.
	if int(date.Month()) != month || date.Day() != day || date.Year() != year {
		return time.Time{}, false
	}
	return date, true
}

// toStrftimeFormat rebuilds a strftime format that preserves the
// user's separator, month style and leading-zero choice.
func (dc dateComponents) toStrftimeFormat(format string) string {
	sep := string(dc.separator)
	parts := make([]string, 0, len(format))
	for i := 0; i < len(format) && i < len(dc.components); i++ {
		c := dc.components[i]
		switch format[i] {
		case 'y', 'Y':
			if c.ambiguous {
				parts = append(parts, "%y")
			} else {
				parts = append(parts, "%Y")
			}
		case 'm', 'M':
			switch {
			case c.hasMonth && !c.ambiguous:
				parts = append(parts, "%b")
			case c.leadingZero:
				parts = append(parts, "%m")
			default:
				parts = append(parts, "%-m")
			}
		case 'd', 'D':
			if c.leadingZero {
				parts = append(parts, "%d")
			} else {
				parts = append(parts, "%-d")
			}
		}
	}
	return strings.Join(parts, sep)
}

var spacedDateFormats = []string{
	"MdY", // Dec 10 2024
	"Mdy", // Dec 10 24
	"dMY", // 10 Dec 2024
	"dMy", // 10 Dec 24
	"YMd", // 2024 Dec 10
	"yMd", // 24 Dec 10
	"dM",  // 10 Dec
	"Md",  // Dec 10
	"MY",  // Dec 2024
	"YM",  // 2024 Dec
}

func separatedDateFormats() []string {
	threeComponent := "mdy"
	twoComponent := "md"
	if !American {
		threeComponent = "dmy"
		twoComponent = "dm"
	}
	return []string{
		threeComponent,
		"dMy",
		"Mdy",
		"Ymd",
		twoComponent,
		"dM",
		"Md",
		"Ym",
		"mY",
	}
}

// ParseDateWithFormat parses a date string, returning the date and a
// strftime format string that reproduces the user's input style.
func ParseDateWithFormat(value string) (time.Time, string, bool) {
	dc, ok := splitDateComponents(value)
	if !ok {
		return time.Time{}, "", false
	}
	if len(dc.components) < 2 || len(dc.components) > 3 {
		return time.Time{}, "", false
	}
	if dc.separator == '.' && len(dc.components) == 2 {
		// Looks like a decimal number.
		return time.Time{}, "", false
	}
	formats := separatedDateFormats()
	if dc.separator == ' ' {
		formats = spacedDateFormats
	}
	for _, format := range formats {
		if date, ok := dc.tryFormat(format); ok {
			return date, dc.toStrftimeFormat(format), true
		}
	}
	return time.Time{}, "", false
}

// ParseDate parses a date string using the format list.
func ParseDate(value string) (time.Time, bool) {
	date, _, ok := ParseDateWithFormat(value)
	return date, ok
}

// timeLayouts pairs a Go parse layout with the strftime display format
// recovered for it.
var timeLayouts = []struct {
	layout string
	format string
}{
	{"15:04:05", "%-H:%M:%S"},
	{"3:04:05 PM", "%-I:%M:%S %p"},
	{"3:04:05PM", "%-I:%M:%S %p"},
	{"3:04 PM", "%-I:%M %p"},
	{"3:04PM", "%-I:%M %p"},
	{"15:04", "%-H:%M"},
	{"3:04:05", "%-I:%M:%S"},
	{"3:04", "%-I:%M"},
	{"15:04:05.000", "%-H:%M:%S"},
}

var bareHourRegex = regexp.MustCompile(`^(\d{1,2})\s*([AaPp][Mm])$`)

// ParseTimeWithFormat parses a time string, returning the time and a
// strftime format string for display.
func ParseTimeWithFormat(value string) (time.Time, string, bool) {
	trimmed := strings.TrimSpace(value)
	for _, entry := range timeLayouts {
		if t, err := time.Parse(entry.layout, strings.ToUpper(trimmed)); err == nil {
			return t, entry.format, true
		}
	}
	// The bare-hour shortcut: `4pm` or `4 pm`.
	if m := bareHourRegex.FindStringSubmatch(trimmed); m != nil {
		if t, err := time.Parse("3:04 PM", m[1]+":00 "+strings.ToUpper(m[2])); err == nil {
			return t, "%-I:%M %p", true
		}
	}
	return time.Time{}, "", false
}

// ParseTime parses a time string using the layout list.
func ParseTime(value string) (time.Time, bool) {
	t, _, ok := ParseTimeWithFormat(value)
	return t, ok
}

// ParseDateTime recognizes a combined date and time separated by
// whitespace, trying the date on the longest prefix first.
func ParseDateTime(value string) (time.Time, bool) {
	fields := strings.Fields(strings.TrimSpace(value))
	for split := len(fields) - 1; split >= 1; split-- {
		datePart := strings.Join(fields[:split], " ")
		timePart := strings.Join(fields[split:], " ")
		date, okDate := ParseDate(datePart)
		clock, okTime := ParseTime(timePart)
		if okDate && okTime {
			return time.Date(date.Year(), date.Month(), date.Day(),
				clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

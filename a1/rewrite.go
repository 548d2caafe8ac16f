package a1

import (
	"regexp"
	"strings"
)

// qCellsRegex locates the first argument of q.cells(...) calls in
// Python and Javascript sources. The three quote forms each get their
// own alternative because RE2 has no backreferences. This regex is
// part of the public contract of code-cell rewriting.
var qCellsRegex = regexp.MustCompile("\\bq\\.cells\\s*\\(\\s*(?:'([^']*)'|\"([^\"]*)\"|`([^`]*)`)")

// handlebarsRegex locates `{{ ref }}` placeholders in connection
// sources. Also part of the public contract.
var handlebarsRegex = regexp.MustCompile(`\{\{(.*?)\}\}`)

// RewriteQCells rewrites the reference argument of every q.cells()
// call. The callback receives the parsed range and returns its new
// textual form; a false return leaves the call untouched. Only the
// first argument is rewritten; the rest of the call is preserved.
func RewriteQCells(source string, defaultSheet SheetID, ctx *Context, fn func(SheetRange) (string, bool)) string {
	return qCellsRegex.ReplaceAllStringFunc(source, func(match string) string {
		sub := qCellsRegex.FindStringSubmatch(match)
		refStr := sub[1] + sub[2] + sub[3]
		parsed, err := ParseRange(refStr, defaultSheet, ctx)
		if err != nil {
			return match
		}
		out, ok := fn(parsed)
		if !ok {
			return match
		}
		return `q.cells("` + out + `"`
	})
}

// RewriteHandlebars rewrites `{{ ref }}` placeholders the same way.
func RewriteHandlebars(source string, defaultSheet SheetID, ctx *Context, fn func(SheetRange) (string, bool)) string {
	return handlebarsRegex.ReplaceAllStringFunc(source, func(match string) string {
		inner := strings.TrimSpace(match[2 : len(match)-2])
		parsed, err := ParseRange(inner, defaultSheet, ctx)
		if err != nil {
			return match
		}
		out, ok := fn(parsed)
		if !ok {
			return match
		}
		return "{{ " + out + " }}"
	})
}

package errors

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"mercator-hq/rsql/pkg/rsql/token"
)

// Excerpt renders the query line containing pos with a caret under the
// offending column. Multi-line queries show the previous line as well.
// It returns "" when query is empty or pos is invalid.
func Excerpt(query string, pos token.Position) string {
	if query == "" || !pos.IsValid() {
		return ""
	}

	lines := strings.Split(query, "\n")
	errorLine := pos.Line - 1
	if errorLine >= len(lines) {
		errorLine = len(lines) - 1
	}
	startLine := errorLine - 1
	if startLine < 0 {
		startLine = 0
	}

	var sb strings.Builder
	width := len(fmt.Sprintf("%d", errorLine+1))

	for i := startLine; i <= errorLine; i++ {
		sb.WriteString(fmt.Sprintf("  %*d | %s\n", width, i+1, lines[i]))
	}

	column := pos.Column
	if maxCol := utf8.RuneCountInString(lines[errorLine]) + 1; column > maxCol {
		column = maxCol
	}
	if column < 1 {
		column = 1
	}
	sb.WriteString(fmt.Sprintf("  %s | %s^\n", strings.Repeat(" ", width), strings.Repeat(" ", column-1)))

	return sb.String()
}

package sqlfilter

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
)

// ColumnMapper maps an RSQL selector to a SQL expression. Implementations
// must never return selector text that was not validated, the result is
// written into the query verbatim.
type ColumnMapper interface {
	Column(selector string) (string, error)
}

// ColumnMap is a whitelist of selectors and the columns they map to.
type ColumnMap map[string]string

// Column returns the quoted column for selector or an error naming the
// closest known selector.
func (m ColumnMap) Column(selector string) (string, error) {
	col, ok := m[selector]
	if !ok {
		known := make([]string, 0, len(m))
		for k := range m {
			known = append(known, k)
		}
		slices.Sort(known)
		return "", &rsqlerrors.Error{
			Type:       rsqlerrors.ErrorTypeSemantic,
			Message:    fmt.Sprintf("unknown selector %q", selector),
			Suggestion: rsqlerrors.SuggestSelector(selector, known),
		}
	}
	return QuoteIdentifier(col), nil
}

// ElementMapper is implemented by mappers whose selectors may address
// lists. Elements returns a table expression with key and value columns
// ranging over the elements of a list, or one row holding a scalar. ok is
// false for selectors that never hold lists.
type ElementMapper interface {
	Elements(selector string) (table string, ok bool)
}

var pathRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*(\.[A-Za-z_][A-Za-z0-9_-]*)*$`)

// JSONColumn maps dotted selectors into a JSON document column using
// SQLite's json_extract, e.g. author.name becomes
// json_extract("data", '$."author"."name"').
type JSONColumn struct {
	// Doc is the column holding the JSON document.
	Doc string

	// Fields maps selectors to real columns that take precedence over the
	// document, e.g. {"id": "id"}.
	Fields map[string]string
}

// Column implements ColumnMapper.
func (j JSONColumn) Column(selector string) (string, error) {
	if col, ok := j.Fields[selector]; ok {
		return QuoteIdentifier(col), nil
	}
	path, err := jsonPath(selector)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("json_extract(%s, '%s')", QuoteIdentifier(j.Doc), path), nil
}

// Elements implements ElementMapper for document fields.
func (j JSONColumn) Elements(selector string) (string, bool) {
	if _, ok := j.Fields[selector]; ok {
		return "", false
	}
	path, err := jsonPath(selector)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("json_each(%s, '%s')", QuoteIdentifier(j.Doc), path), true
}

// elementColumns maps selectors into the elements of a json_each table
// aliased elem.
type elementColumns struct{}

func (elementColumns) Column(selector string) (string, error) {
	path, err := jsonPath(selector)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("json_extract(elem.value, '%s')", path), nil
}

func (elementColumns) Elements(selector string) (string, bool) {
	path, err := jsonPath(selector)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("json_each(elem.value, '%s')", path), true
}

// jsonPath converts a dotted selector to a quoted JSON path.
func jsonPath(selector string) (string, error) {
	if !pathRegexp.MatchString(selector) {
		return "", &rsqlerrors.Error{
			Type:    rsqlerrors.ErrorTypeSemantic,
			Message: fmt.Sprintf("selector %q is not a valid document path", selector),
		}
	}

	var path strings.Builder
	path.WriteString("$")
	for _, part := range strings.Split(selector, ".") {
		path.WriteString(`."`)
		path.WriteString(part)
		path.WriteString(`"`)
	}
	return path.String(), nil
}

// QuoteIdentifier quotes name as a SQL identifier.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

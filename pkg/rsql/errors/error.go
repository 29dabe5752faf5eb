package errors

import (
	"fmt"
	"math"
	"strings"

	"mercator-hq/rsql/pkg/rsql/token"
)

// ErrorType categorizes the type of error encountered while building or parsing a query.
// ErrorType implements error so it can be used as an errors.Is target.
type ErrorType string

const (
	ErrorTypeConstruction ErrorType = "construction" // Invalid operator or arity definition
	ErrorTypeLexical      ErrorType = "lexical"      // Malformed token
	ErrorTypeSyntax       ErrorType = "syntax"       // Grammar violation
	ErrorTypeSemantic     ErrorType = "semantic"     // Unknown operator, invalid node
	ErrorTypeArity        ErrorType = "arity"        // Argument count outside operator arity
)

// Sentinels for errors.Is.
var (
	ErrConstruction error = ErrorTypeConstruction
	ErrLexical      error = ErrorTypeLexical
	ErrSyntax       error = ErrorTypeSyntax
	ErrSemantic     error = ErrorTypeSemantic
	ErrArity        error = ErrorTypeArity
)

func (t ErrorType) Error() string {
	return string(t) + " error"
}

// Unbounded marks an arity range without an upper limit.
const Unbounded = math.MaxInt

// ArityRange is the accepted argument count reported by an arity error.
type ArityRange struct {
	Min int `json:"min"`
	Max int `json:"max"` // Unbounded when there is no upper limit
}

func (r ArityRange) String() string {
	switch {
	case r.Max == Unbounded:
		return fmt.Sprintf("at least %d", r.Min)
	case r.Min == r.Max:
		return fmt.Sprintf("%d", r.Min)
	default:
		return fmt.Sprintf("%d to %d", r.Min, r.Max)
	}
}

// Error represents a query error with position, context, and suggestions.
type Error struct {
	Type       ErrorType      `json:"type"`
	Message    string         `json:"message"`
	Position   token.Position `json:"position"`
	Query      string         `json:"-"`                  // Query text the position refers to
	Operator   string         `json:"operator,omitempty"` // Primary symbol, for semantic and arity errors
	Expected   *ArityRange    `json:"expected,omitempty"`
	Actual     int            `json:"actual,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
}

// New creates an error of the given type at pos.
func New(errType ErrorType, pos token.Position, format string, args ...any) *Error {
	return &Error{
		Type:     errType,
		Message:  fmt.Sprintf(format, args...),
		Position: pos,
	}
}

// Construction creates an error for an invalid operator definition.
// Construction errors have no position, they are raised before any parsing.
func Construction(format string, args ...any) *Error {
	return &Error{
		Type:    ErrorTypeConstruction,
		Message: fmt.Sprintf(format, args...),
	}
}

// Arity creates an error for an argument count outside an operator's arity.
func Arity(operator string, expected ArityRange, actual int, pos token.Position) *Error {
	return &Error{
		Type:     ErrorTypeArity,
		Message:  fmt.Sprintf("operator %s expects %s argument(s), got %d", operator, expected, actual),
		Position: pos,
		Operator: operator,
		Expected: &expected,
		Actual:   actual,
	}
}

// WithQuery attaches the query text so Error can render an excerpt.
func (e *Error) WithQuery(query string) *Error {
	e.Query = query
	return e
}

// WithSuggestion attaches a suggested fix.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// Is reports whether target is this error's ErrorType. Arity errors are
// also semantic errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(ErrorType)
	if !ok {
		return false
	}
	return t == e.Type || (t == ErrorTypeSemantic && e.Type == ErrorTypeArity)
}

// Error implements the error interface.
// It returns a formatted error message with position and context.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s", string(e.Type), e.Message))

	if e.Position.IsValid() {
		sb.WriteString(fmt.Sprintf("\n  --> %s", e.Position))
	}

	if excerpt := Excerpt(e.Query, e.Position); excerpt != "" {
		sb.WriteString("\n  |\n")
		sb.WriteString(strings.TrimSuffix(excerpt, "\n"))
	}

	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\n  = suggestion: %s", e.Suggestion))
	}

	return sb.String()
}

// Short returns the message prefixed by the position, without excerpt or suggestion.
func (e *Error) Short() string {
	if !e.Position.IsValid() {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Position, e.Message)
}

// ErrorList collects errors from several queries, e.g. when linting a file.
type ErrorList struct {
	Errors []*Error
}

// NewErrorList creates a new empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{
		Errors: make([]*Error, 0),
	}
}

// Add appends an error to the list.
func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

// HasErrors returns true if the error list contains any errors.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of errors in the list.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

// Error implements the error interface.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d error(s):\n\n", el.Count()))

	for i, err := range el.Errors {
		sb.WriteString(fmt.Sprintf("Error %d:\n", i+1))
		sb.WriteString(err.Error())
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// ToError returns nil if the error list is empty, otherwise returns the error list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

// ByType returns all errors of the given type.
func (el *ErrorList) ByType(errType ErrorType) []*Error {
	var result []*Error
	for _, err := range el.Errors {
		if err.Type == errType {
			result = append(result, err)
		}
	}
	return result
}

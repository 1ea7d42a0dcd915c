package prismic

import (
	"fmt"
	"strconv"
	"strings"
)

// Predicate names understood by both content sources.
const (
	PredicateAt       = "at"
	PredicateDateYear = "date.year"
)

// Well-known predicate paths.
const (
	PathDocumentType      = "document.type"
	PathDocumentID        = "document.id"
	PathFirstPublication  = "document.first_publication_date"
	defaultSearchPageSize = 20
	maxSearchPageSize     = 100
)

// Predicate is one filter of a search query, for example
// [at(document.type, "collection")].
type Predicate struct {
	Name string
	Path string
	Args []any
}

// At matches documents whose path equals value.
func At(path, value string) Predicate {
	return Predicate{Name: PredicateAt, Path: path, Args: []any{value}}
}

// DateYear matches documents whose date path falls within year.
func DateYear(path string, year int) Predicate {
	return Predicate{Name: PredicateDateYear, Path: path, Args: []any{year}}
}

// UIDPath builds the custom type UID path, e.g. my.product.uid.
func UIDPath(docType string) string {
	return "my." + docType + ".uid"
}

// String renders the predicate in the API query syntax.
func (p Predicate) String() string {
	parts := make([]string, 0, len(p.Args)+1)
	parts = append(parts, p.Path)
	for _, arg := range p.Args {
		parts = append(parts, formatArg(arg))
	}
	return fmt.Sprintf("[%s(%s)]", p.Name, strings.Join(parts, ", "))
}

// StringArg returns the i-th argument as a string.
func (p Predicate) StringArg(i int) (string, bool) {
	if i < 0 || i >= len(p.Args) {
		return "", false
	}
	value, ok := p.Args[i].(string)
	return value, ok
}

// IntArg returns the i-th argument as an int.
func (p Predicate) IntArg(i int) (int, bool) {
	if i < 0 || i >= len(p.Args) {
		return 0, false
	}
	switch value := p.Args[i].(type) {
	case int:
		return value, true
	case int64:
		return int(value), true
	case string:
		parsed, err := strconv.Atoi(value)
		return parsed, err == nil
	default:
		return 0, false
	}
}

func formatArg(arg any) string {
	switch value := arg.(type) {
	case string:
		return strconv.Quote(value)
	case []string:
		quoted := make([]string, 0, len(value))
		for _, item := range value {
			quoted = append(quoted, strconv.Quote(item))
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	default:
		return fmt.Sprint(value)
	}
}

// Query describes one document search.
type Query struct {
	Predicates []Predicate
	FetchLinks []string
	Lang       string
	Ref        string
	PageSize   int
	Page       int
}

// Q renders all predicates as the q parameter value.
func (q Query) Q() string {
	if len(q.Predicates) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('[')
	for _, p := range q.Predicates {
		b.WriteString(p.String())
	}
	b.WriteByte(']')
	return b.String()
}

// Normalized fills paging defaults and clamps the page size.
func (q Query) Normalized() Query {
	if q.PageSize <= 0 {
		q.PageSize = defaultSearchPageSize
	}
	if q.PageSize > maxSearchPageSize {
		q.PageSize = maxSearchPageSize
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	q.Lang = strings.TrimSpace(q.Lang)
	return q
}

package api

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/stevemurr/school-console/collection"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Query selects and paginates records for List.
type Query struct {
	// Search is matched case-insensitively as a substring of the entity's
	// search fields.
	Search string
	// Filters require the named field to equal the value, ignoring case.
	// For array fields any element may match.
	Filters map[string]string
	// Page is 1-based.
	Page     int
	PageSize int
}

func (q Query) normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.Search = strings.ToLower(strings.TrimSpace(q.Search))
	return q
}

// Page is one page of List results.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

func (q Query) match(r collection.Record[json.RawMessage], searchFields []string) bool {
	for field, want := range q.Filters {
		ok := false
		for _, v := range textOf(fieldValue(r, field)) {
			if strings.EqualFold(v, want) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if q.Search == "" {
		return true
	}
	for _, field := range searchFields {
		for _, v := range textOf(fieldValue(r, field)) {
			if strings.Contains(strings.ToLower(v), q.Search) {
				return true
			}
		}
	}
	return false
}

func fieldValue(r collection.Record[json.RawMessage], field string) json.RawMessage {
	if field == "id" {
		b, _ := r.ID.MarshalJSON()
		return b
	}
	return r.Fields[field]
}

// textOf returns the text forms of a scalar field, or of each scalar element
// of an array field.
func textOf(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	if arr, ok := v.([]any); ok {
		var out []string
		for _, e := range arr {
			if s, ok := scalarText(e); ok {
				out = append(out, s)
			}
		}
		return out
	}
	if s, ok := scalarText(v); ok {
		return []string{s}
	}
	return nil
}

func scalarText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

func paginate[T any](items []T, q Query) Page[T] {
	p := Page[T]{
		Items:    []T{},
		Total:    len(items),
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	p.TotalPages = (p.Total + q.PageSize - 1) / q.PageSize
	// Compare pages before multiplying so huge page numbers cannot overflow.
	if q.Page > p.TotalPages {
		return p
	}
	start := (q.Page - 1) * q.PageSize
	end := min(start+q.PageSize, len(items))
	p.Items = items[start:end]
	return p
}

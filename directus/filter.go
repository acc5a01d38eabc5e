package directus

import (
	"encoding/json"
	"maps"
	"net/url"
	"strconv"
	"strings"
)

// Filter is a Directus filter object, e.g. {"user_id": {"_eq": "u1"}}
type Filter map[string]any

// Eq matches a field equal to value
func Eq(value any) map[string]any {
	return map[string]any{"_eq": value}
}

// NotNull matches a field that is set
func NotNull() map[string]any {
	return map[string]any{"_nnull": true}
}

// Field returns a copy of f with field constrained by rule
func (f Filter) Field(field string, rule map[string]any) Filter {
	out := make(Filter, len(f)+1)
	maps.Copy(out, f)
	out[field] = rule
	return out
}

// And combines filters with the _and operator. Empty filters are skipped.
func And(filters ...Filter) Filter {
	var parts []Filter
	for _, f := range filters {
		if len(f) > 0 {
			parts = append(parts, f)
		}
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	}
	return Filter{"_and": parts}
}

// Params holds the query parameters accepted by the items endpoints
type Params struct {
	Filter Filter
	Fields []string
	Sort   []string
	Search string
	Limit  int // 0 leaves the server default, -1 requests everything
}

// Values encodes the params as a query string
func (p Params) Values() (url.Values, error) {
	v := url.Values{}
	if len(p.Filter) > 0 {
		raw, err := json.Marshal(p.Filter)
		if err != nil {
			return nil, err
		}
		v.Set("filter", string(raw))
	}
	if len(p.Fields) > 0 {
		v.Set("fields", strings.Join(p.Fields, ","))
	}
	if len(p.Sort) > 0 {
		v.Set("sort", strings.Join(p.Sort, ","))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.Limit != 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	return v, nil
}

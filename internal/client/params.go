// ABOUTME: Query parameters shared by paginated list endpoints
// ABOUTME: Encodes page, size, sort and free-text filters

package client

import (
	"net/url"
	"strconv"
)

// ListParams selects one page of a sorted, filtered list
type ListParams struct {
	Page  int
	Size  int
	Sort  string // "field,direction"
	Query string
}

// Values encodes the params using the admin list names (query=)
func (p ListParams) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	if p.Size > 0 {
		v.Set("size", strconv.Itoa(p.Size))
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	if p.Query != "" {
		v.Set("query", p.Query)
	}
	return v
}

// searchValues encodes the params using the user search names (q=)
func (p ListParams) searchValues() url.Values {
	v := p.Values()
	v.Del("query")
	v.Set("q", p.Query)
	return v
}

func queryEscape(s string) string {
	return url.QueryEscape(s)
}

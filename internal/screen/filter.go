package screen

import (
	"net/url"
	"strings"
)

// Facet is one named filter dimension with a designated "unfiltered"
// sentinel value (usually "" or "all").
type Facet struct {
	Name    string
	Default string
}

// FilterState is the current search text and facet selections of one
// screen instance. An empty Search plus all-default facets means
// "unfiltered".
type FilterState struct {
	Search string            `json:"search"`
	Facets map[string]string `json:"facets,omitempty"`
}

// clone returns a deep copy so snapshots never alias controller state.
func (fs FilterState) clone() FilterState {
	out := FilterState{Search: fs.Search}
	if fs.Facets != nil {
		out.Facets = make(map[string]string, len(fs.Facets))
		for k, v := range fs.Facets {
			out.Facets[k] = v
		}
	}
	return out
}

// BuildQuery derives the outgoing request query from a filter state.
// A facet appears only when its value differs from the facet's sentinel;
// search text is passed through raw when non-empty. Two filter states
// with the same effective values always produce the same query.
func BuildQuery(fs FilterState, facets []Facet) url.Values {
	params := url.Values{}
	if fs.Search != "" {
		params.Set("search", fs.Search)
	}
	for _, f := range facets {
		v := fs.Facets[f.Name]
		if v == "" || v == f.Default {
			continue
		}
		params.Set(f.Name, v)
	}
	return params
}

// ContainsFold reports whether any field contains the search text,
// case-insensitively. Empty search matches everything. Refine hooks use
// it for client-side substring filtering.
func ContainsFold(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// defaultFilter builds the mount-time filter state: empty search, every
// facet at its sentinel.
func defaultFilter(facets []Facet) FilterState {
	fs := FilterState{Facets: make(map[string]string, len(facets))}
	for _, f := range facets {
		fs.Facets[f.Name] = f.Default
	}
	return fs
}

package screen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildQueryOmitsSentinels(t *testing.T) {
	facets := []Facet{
		{Name: "semester", Default: "all"},
		{Name: "department", Default: "all"},
	}
	fs := FilterState{
		Search: "",
		Facets: map[string]string{
			"semester":   "all",
			"department": "all",
		},
	}

	params := BuildQuery(fs, facets)
	assert.Empty(t, params, "unfiltered state must produce no query parameters")
}

func TestBuildQuerySendsActiveFacets(t *testing.T) {
	facets := []Facet{
		{Name: "semester", Default: "all"},
		{Name: "department", Default: "all"},
	}
	fs := FilterState{
		Search: "algo",
		Facets: map[string]string{
			"semester":   "Fall 2024",
			"department": "all",
		},
	}

	params := BuildQuery(fs, facets)
	assert.Equal(t, "Fall 2024", params.Get("semester"))
	assert.Equal(t, "algo", params.Get("search"))
	assert.False(t, params.Has("department"), "sentinel facet must be absent")
}

func TestBuildQueryEmptyFacetValueOmitted(t *testing.T) {
	facets := []Facet{{Name: "status", Default: "any"}}
	fs := FilterState{Facets: map[string]string{"status": ""}}

	params := BuildQuery(fs, facets)
	assert.False(t, params.Has("status"))
}

func TestDefaultFilterStartsAtSentinels(t *testing.T) {
	facets := []Facet{
		{Name: "semester", Default: "all"},
		{Name: "role", Default: "any"},
	}

	fs := defaultFilter(facets)
	assert.Equal(t, "", fs.Search)
	assert.Equal(t, "all", fs.Facets["semester"])
	assert.Equal(t, "any", fs.Facets["role"])
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("", "anything"))
	assert.True(t, ContainsFold("ada", "Ada Lovelace", "CS-101"))
	assert.True(t, ContainsFold("cs-1", "Ada Lovelace", "CS-101"))
	assert.False(t, ContainsFold("xyz", "Ada Lovelace", "CS-101"))
}

func TestFilterStateCloneIsIndependent(t *testing.T) {
	fs := FilterState{Search: "x", Facets: map[string]string{"semester": "all"}}
	cp := fs.clone()
	cp.Facets["semester"] = "Spring 2025"

	assert.Equal(t, "all", fs.Facets["semester"])
}

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/recruiting-cli/pkg/unipile"
)

func TestBroadenTextStripsAITerms(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single term", "golang mcp backend", "golang backend"},
		{"case insensitive", "Claude Code engineer", "engineer"},
		{"multi word term", "model context protocol expert", "expert"},
		{"pipes and slashes collapse", "golang|rust/python", "golang rust python"},
		{"repeated term", "agent to agent systems", "to systems"},
		{"whitespace squeezed", "  golang   backend  ", "golang backend"},
		{"untouched", "distributed systems", "distributed systems"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, broadenText(tt.in))
		})
	}
}

func TestNormalizeSearchDefaultModePassthrough(t *testing.T) {
	params := unipile.SearchParams{
		Keywords: "claude code golang",
		Skills:   []unipile.SearchFilter{{Text: "mcp"}},
	}
	assert.Equal(t, params, normalizeSearch(params, SourceModeDefault))
}

func TestNormalizeSearchBroadMode(t *testing.T) {
	out := normalizeSearch(unipile.SearchParams{
		Keywords:     "claude code golang",
		RoleKeywords: []unipile.SearchFilter{{Text: "agentic engineer"}},
		Skills: []unipile.SearchFilter{
			{Text: "mcp"},              // text empties, no ID: dropped
			{Text: "cursor", ID: "42"}, // text empties, ID survives
			{Text: "golang"},
		},
		Location: "Berlin",
	}, SourceModeBroad)

	assert.Equal(t, "golang", out.Keywords)
	assert.Equal(t, []unipile.SearchFilter{{Text: "engineer"}}, out.RoleKeywords)
	assert.Equal(t, []unipile.SearchFilter{{ID: "42"}, {Text: "golang"}}, out.Skills)
	assert.Equal(t, "Berlin", out.Location)
}

func TestEffectiveQuery(t *testing.T) {
	got := effectiveQuery(unipile.SearchParams{
		Keywords:     "golang backend",
		RoleKeywords: []unipile.SearchFilter{{Text: "staff engineer"}, {ID: "7"}},
		Location:     "Berlin",
	})
	assert.Equal(t, "keywords=golang backend roles=staff engineer,id:7 location=Berlin", got)
}

func TestEffectiveQueryEmpty(t *testing.T) {
	assert.Equal(t, "", effectiveQuery(unipile.SearchParams{}))
}

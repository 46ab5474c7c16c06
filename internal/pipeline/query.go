package pipeline

import (
	"strings"

	"github.com/sells-group/recruiting-cli/pkg/unipile"
)

// Source query modes.
const (
	SourceModeDefault = "default"
	SourceModeBroad   = "broad"
)

// AI-native terms stripped from search text in broad mode, widening the
// sourcing net beyond candidates who already advertise the tooling.
var broadStripTerms = []string{
	"claude code", "codex", "mcp", "model context protocol", "agentic",
	"ai-native", "autogen", "langgraph", "cursor", "windsurf", "agents", "agent",
}

// normalizeSearch returns the search params to send for the given mode. In
// broad mode the AI-native terms are stripped from keywords and filter text,
// pipes and slashes collapse to spaces, and text-empty filters without an ID
// are dropped.
func normalizeSearch(params unipile.SearchParams, mode string) unipile.SearchParams {
	if mode != SourceModeBroad {
		return params
	}
	out := params
	out.Keywords = broadenText(params.Keywords)
	out.RoleKeywords = broadenFilters(params.RoleKeywords)
	out.Skills = broadenFilters(params.Skills)
	out.Companies = broadenFilters(params.Companies)
	return out
}

func broadenFilters(filters []unipile.SearchFilter) []unipile.SearchFilter {
	var out []unipile.SearchFilter
	for _, f := range filters {
		f.Text = broadenText(f.Text)
		if f.Text == "" && f.ID == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func broadenText(text string) string {
	lower := strings.ToLower(text)
	for _, term := range broadStripTerms {
		for {
			i := strings.Index(lower, term)
			if i < 0 {
				break
			}
			text = text[:i] + text[i+len(term):]
			lower = lower[:i] + lower[i+len(term):]
		}
	}
	text = strings.NewReplacer("|", " ", "/", " ").Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// effectiveQuery renders the query summary surfaced in diagnostics.
func effectiveQuery(params unipile.SearchParams) string {
	var parts []string
	add := func(label, v string) {
		if v != "" {
			parts = append(parts, label+"="+v)
		}
	}
	add("keywords", params.Keywords)
	add("roles", filterText(params.RoleKeywords))
	add("skills", filterText(params.Skills))
	add("companies", filterText(params.Companies))
	add("location", params.Location)
	add("industry", params.Industry)
	return strings.Join(parts, " ")
}

func filterText(filters []unipile.SearchFilter) string {
	var texts []string
	for _, f := range filters {
		if f.Text != "" {
			texts = append(texts, f.Text)
		} else if f.ID != "" {
			texts = append(texts, "id:"+f.ID)
		}
	}
	return strings.Join(texts, ",")
}

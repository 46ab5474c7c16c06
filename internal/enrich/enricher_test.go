package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recruiting-cli/internal/model"
	"github.com/sells-group/recruiting-cli/pkg/webfetch"
	"github.com/sells-group/recruiting-cli/pkg/websearch"
)

type fakeSearch struct {
	mu      sync.Mutex
	calls   []websearch.Request
	results map[string][]websearch.Result // keyed by substring of the query
	err     error
}

func (f *fakeSearch) Execute(ctx context.Context, req websearch.Request) (*websearch.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for key, hits := range f.results {
		if strings.Contains(req.Query, key) {
			return &websearch.Response{Details: websearch.Details{Results: hits}}, nil
		}
	}
	return &websearch.Response{}, nil
}

type fakeFetch struct {
	mu      sync.Mutex
	calls   []string
	content map[string]string
	err     error
}

func (f *fakeFetch) Execute(ctx context.Context, req webfetch.Request) (*webfetch.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.URL)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &webfetch.Response{Details: webfetch.Details{Content: f.content[req.URL]}}, nil
}

func candidate() Candidate {
	return Candidate{ID: "c1", Name: "Jane Doe", Company: "Acme", Headline: "Staff Engineer"}
}

func TestExternalFootprintIdentityHints(t *testing.T) {
	search := &fakeSearch{results: map[string][]websearch.Result{
		"github": {
			{URL: "https://mirror.example.com/janedoe"},
			{URL: "https://github.com/@janedoe", Title: "janedoe"},
		},
		"x.com OR twitter.com": {
			{URL: "https://x.com/janedoe", Title: "Jane on X"},
		},
		"blog portfolio": {
			{URL: "https://linkedin.com/in/jane"},
			{URL: "https://jane.dev", Title: "Jane's blog"},
		},
	}}
	e := New(search, &fakeFetch{content: map[string]string{}}, WithoutCache())

	fp, err := e.ExternalFootprint(context.Background(), candidate(), ModeDefault)
	require.NoError(t, err)

	require.NotNil(t, fp.GitHub)
	assert.Equal(t, "janedoe", fp.GitHub.Handle)
	require.NotNil(t, fp.X)
	assert.Equal(t, "janedoe", fp.X.Handle)
	require.NotNil(t, fp.PersonalSite)
	assert.Equal(t, "https://jane.dev", fp.PersonalSite.URL)

	// LinkedIn and github hosts never become the personal site.
	assert.NotEqual(t, "https://linkedin.com/in/jane", fp.PersonalSite.URL)
}

func TestExternalFootprintEvidenceDedup(t *testing.T) {
	search := &fakeSearch{results: map[string][]websearch.Result{
		"github": {{URL: "https://github.com/janedoe"}},
		`("claude code"`: {
			{URL: "https://github.com/janedoe", Title: "dup"},
			{URL: "https://jane.dev/mcp-post", Title: "Building with MCP"},
		},
	}}
	e := New(search, &fakeFetch{content: map[string]string{}}, WithoutCache())

	fp, err := e.ExternalFootprint(context.Background(), candidate(), ModeStrict)
	require.NoError(t, err)

	urls := map[string]int{}
	for _, l := range fp.Evidence {
		urls[l.URL]++
	}
	assert.Equal(t, 1, urls["https://github.com/janedoe"])
	assert.Equal(t, 1, urls["https://jane.dev/mcp-post"])
	assert.Equal(t, len(fp.Evidence), fp.Discovered)
}

func TestExternalFootprintEvidenceKeepsHitMetadata(t *testing.T) {
	search := &fakeSearch{results: map[string][]websearch.Result{
		"github": {{URL: "https://github.com/janedoe", Title: "janedoe (Jane Doe)", Score: 0.9}},
	}}
	e := New(search, &fakeFetch{content: map[string]string{}}, WithoutCache())

	fp, err := e.ExternalFootprint(context.Background(), candidate(), ModeDefault)
	require.NoError(t, err)

	require.NotEmpty(t, fp.Evidence)
	ev := fp.Evidence[0]
	assert.Equal(t, "https://github.com/janedoe", ev.URL)
	assert.Equal(t, "janedoe (Jane Doe)", ev.Title)
	assert.Equal(t, 0.9, ev.Relevance)
	assert.Equal(t, "github", ev.Source)
}

func TestSearchKeyDistinguishesCounts(t *testing.T) {
	base := websearch.Request{Query: "jane doe github", SearchType: "deep"}

	five := base
	five.Count = 5
	fifteen := base
	fifteen.Count = 15

	assert.NotEqual(t, searchKey(five), searchKey(fifteen))
}

func TestExternalFootprintStrictModeRunsFourthSearch(t *testing.T) {
	search := &fakeSearch{results: map[string][]websearch.Result{}}
	e := New(search, &fakeFetch{content: map[string]string{}}, WithoutCache())

	_, err := e.ExternalFootprint(context.Background(), candidate(), ModeDefault)
	require.NoError(t, err)
	assert.Len(t, search.calls, 3)

	search.calls = nil
	_, err = e.ExternalFootprint(context.Background(), candidate(), ModeStrict)
	require.NoError(t, err)
	assert.Len(t, search.calls, 4)

	var strictCount int
	for _, c := range search.calls {
		if strings.Contains(c.Query, "claude code") {
			assert.Equal(t, 8, c.Count)
			strictCount++
		} else {
			assert.Equal(t, 5, c.Count)
		}
	}
	assert.Equal(t, 1, strictCount)
}

func TestExternalFootprintStrictFloor(t *testing.T) {
	search := &fakeSearch{results: map[string][]websearch.Result{
		`("claude code"`: {{URL: "https://jane.dev/post", Title: "Shipping a Claude Code workflow"}},
	}}
	fetch := &fakeFetch{content: map[string]string{"https://jane.dev/post": "nothing relevant here"}}
	e := New(search, fetch, WithoutCache())

	fp, err := e.ExternalFootprint(context.Background(), candidate(), ModeStrict)
	require.NoError(t, err)

	var ai *model.Signal
	for i := range fp.Signals {
		if fp.Signals[i].Key == model.SignalAINativeEvidence {
			ai = &fp.Signals[i]
		}
	}
	require.NotNil(t, ai)
	assert.Equal(t, 0.35, *ai.NumericValue)
}

func TestExternalFootprintKeywordSignals(t *testing.T) {
	search := &fakeSearch{results: map[string][]websearch.Result{
		"github": {{URL: "https://github.com/janedoe"}},
	}}
	fetch := &fakeFetch{content: map[string]string{
		"https://github.com/janedoe": "shipped a release to production with an mcp agent using autogen",
	}}
	e := New(search, fetch, WithoutCache())

	fp, err := e.ExternalFootprint(context.Background(), candidate(), ModeDefault)
	require.NoError(t, err)

	values := map[string]float64{}
	for _, s := range fp.Signals {
		values[s.Key] = *s.NumericValue
	}
	// mcp, agent, autogen -> 3 matches over a denominator of 3.
	assert.Equal(t, 1.0, values[model.SignalAINativeEvidence])
	// shipped, release, production (and "pr" inside it) over a denominator of 3.
	assert.Equal(t, 1.0, values[model.SignalBuilderActivity])
}

func TestExternalFootprintFetchBudget(t *testing.T) {
	many := make([]websearch.Result, 0, 8)
	for _, u := range []string{
		"https://a.dev/1", "https://a.dev/2", "https://a.dev/3",
		"https://a.dev/4", "https://a.dev/5", "https://a.dev/6",
	} {
		many = append(many, websearch.Result{URL: u})
	}
	search := &fakeSearch{results: map[string][]websearch.Result{`("claude code"`: many}}
	fetch := &fakeFetch{content: map[string]string{}}
	e := New(search, fetch, WithoutCache())

	_, err := e.ExternalFootprint(context.Background(), candidate(), ModeStrict)
	require.NoError(t, err)
	assert.Len(t, fetch.calls, 5)
}

func TestExternalFootprintSearchErrorPropagates(t *testing.T) {
	search := &fakeSearch{err: errors.New("503 unavailable")}
	e := New(search, &fakeFetch{}, WithoutCache())

	_, err := e.ExternalFootprint(context.Background(), candidate(), ModeDefault)
	assert.Error(t, err)
}

func TestExternalFootprintFetchErrorTolerated(t *testing.T) {
	search := &fakeSearch{results: map[string][]websearch.Result{
		"github": {{URL: "https://github.com/janedoe"}},
	}}
	e := New(search, &fakeFetch{err: errors.New("timeout")}, WithoutCache())

	fp, err := e.ExternalFootprint(context.Background(), candidate(), ModeDefault)
	require.NoError(t, err)
	assert.NotEmpty(t, fp.Evidence)
}

func TestSearchCacheSkipsSecondCall(t *testing.T) {
	search := &fakeSearch{results: map[string][]websearch.Result{}}
	e := New(search, &fakeFetch{content: map[string]string{}})

	_, err := e.ExternalFootprint(context.Background(), candidate(), ModeDefault)
	require.NoError(t, err)
	first := len(search.calls)

	_, err = e.ExternalFootprint(context.Background(), candidate(), ModeDefault)
	require.NoError(t, err)
	assert.Equal(t, first, len(search.calls))
}

package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recruiting-cli/internal/enrich"
	"github.com/sells-group/recruiting-cli/internal/pipeline"
	"github.com/sells-group/recruiting-cli/internal/store"
	"github.com/sells-group/recruiting-cli/pkg/unipile"
	"github.com/sells-group/recruiting-cli/pkg/webfetch"
	"github.com/sells-group/recruiting-cli/pkg/websearch"
)

// env bundles the wired pipeline for a command invocation.
type env struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

func (e *env) Close() {
	_ = e.Store.Close()
}

// initPipeline opens the store, resolves the LinkedIn account, and wires the
// collaborator clients into the orchestrator.
func initPipeline(ctx context.Context, accountOverride string) (*env, error) {
	st, err := store.NewSQLite(cfg.Recruiting.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	settings := unipile.AccountSettings{
		AccountID: cfg.Unipile.AccountID,
		APIKey:    cfg.Unipile.APIKey,
		Enabled:   cfg.Unipile.Enabled,
	}
	if accountOverride != "" {
		settings.AccountID = accountOverride
	}
	account := unipile.ResolveAccount(settings)

	var linkedin unipile.Client
	if key := unipile.APIKey(settings); key != "" {
		linkedin = unipile.NewClient(key, settings.AccountID,
			unipile.WithBaseURL(cfg.Unipile.BaseURL),
			unipile.WithRateLimit(cfg.Unipile.RateLimit),
		)
	}

	enricher := enrich.New(
		websearch.NewClient(cfg.Search.Key, websearch.WithBaseURL(cfg.Search.BaseURL)),
		webfetch.NewClient(cfg.Fetch.Key, webfetch.WithBaseURL(cfg.Fetch.BaseURL)),
	)

	return &env{
		Store:    st,
		Pipeline: pipeline.New(st, linkedin, enricher, account, cfg.Recruiting),
	}, nil
}

// emit prints v as JSON: indented by default, compact with --json for
// machine consumption.
func emit(v any, compact bool) error {
	enc := json.NewEncoder(os.Stdout)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// Package app assembles the pipeline from a Config. Both the HTTP server and the CLI
// start here so they share one wiring.
package app

import (
	"context"
	"fmt"
	"log"

	"fre_viewer/pkg/core/agent"
	"fre_viewer/pkg/core/catalog"
	"fre_viewer/pkg/core/config"
	"fre_viewer/pkg/core/ingest"
	"fre_viewer/pkg/core/pdftext"
	"fre_viewer/pkg/core/pipeline"
	"fre_viewer/pkg/core/portal"
	"fre_viewer/pkg/core/prompt"
	"fre_viewer/pkg/core/store"
	"fre_viewer/pkg/core/summary"
)

// App is a wired pipeline plus the collaborators the outer surfaces need.
type App struct {
	Config   config.Config
	Pipeline *pipeline.Orchestrator
	Agents   *agent.Manager
	Cache    *catalog.Cache
	History  *store.HistoryRepo // nil without a database
}

// New wires every stage. The database is optional: when DatabaseURL is empty or
// unreachable, history is disabled and summaries are cached on disk.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	client := ingest.NewClient(cfg.ClientOptions()...)

	builder, err := portal.NewBuilder(cfg.Portal.Sections)
	if err != nil {
		return nil, fmt.Errorf("portal sections: %w", err)
	}

	cache := catalog.NewCache(catalog.NewLoader(client, cfg.LoaderOptions()))
	fetcher := portal.NewFetcher(client, cfg.Portal.ContentFieldID)

	if err := prompt.LoadFromDirectory(cfg.Summary.PromptsDir); err != nil {
		log.Printf("[App] Prompt library not loaded, using built-ins: %v", err)
	}
	agents := agent.NewManager(cfg.Summary.LLM)

	a := &App{Config: cfg, Agents: agents, Cache: cache}
	opts := []pipeline.Option{
		pipeline.WithSummarizer(newSummarizer(cfg.Summary, agents)),
		pipeline.WithTextExtractor(func(data []byte) (string, error) {
			return pdftext.Extract(data, cfg.Summary.MaxChars)
		}),
	}

	if cfg.DatabaseURL != "" {
		if err := store.InitDB(ctx, cfg.DatabaseURL); err != nil {
			log.Printf("[App] Database disabled: %v", err)
		}
	}
	if pool := store.GetPool(); pool != nil {
		history := store.NewHistoryRepo(pool)
		summaries := store.NewSummaryCache(pool, "")
		if err := history.EnsureSchema(ctx); err != nil {
			log.Printf("[App] History disabled: %v", err)
		} else {
			a.History = history
			opts = append(opts, pipeline.WithHistory(history))
		}
		if err := summaries.EnsureSchema(ctx); err != nil {
			log.Printf("[App] Summary cache table unavailable: %v", err)
		} else {
			opts = append(opts, pipeline.WithSummaryStore(summaries))
		}
	} else if cfg.Summary.CacheDir != "" && cfg.Summary.Backend == config.BackendLLM {
		opts = append(opts, pipeline.WithSummaryStore(store.NewSummaryCache(nil, cfg.Summary.CacheDir)))
	}

	a.Pipeline = pipeline.NewOrchestrator(cache, builder, fetcher, opts...)
	return a, nil
}

// Close releases the database pool, if any.
func (a *App) Close() {
	store.Close()
}

func newSummarizer(cfg config.SummaryConfig, agents *agent.Manager) summary.Summarizer {
	switch cfg.Backend {
	case config.BackendLLM:
		return summary.NewLLMSummarizer(agents, prompt.Get(), cfg.MaxChars)
	case config.BackendExtractive:
		return &summary.ExtractiveSummarizer{Sentences: cfg.Sentences}
	}
	return summary.Unavailable{}
}

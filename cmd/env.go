package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/serp-brief/internal/entity"
	"github.com/sells-group/serp-brief/internal/pipeline"
	"github.com/sells-group/serp-brief/internal/store"
	"github.com/sells-group/serp-brief/internal/text"
	anthropicpkg "github.com/sells-group/serp-brief/pkg/anthropic"
)

// briefEnv holds the initialized store and pipeline shared by the analyze,
// serve, and runs commands.
type briefEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *briefEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "serp-brief.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline validates config, opens the store, loads the lexicon, and
// wires the extraction backend. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*briefEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	lex, err := text.LoadLexicon(cfg.Lexicon.Path)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load lexicon")
	}

	var extractor entity.Extractor
	if cfg.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		extractor = entity.NewClaude(client, cfg.Anthropic.Model, cfg.Analysis.EntityConfidenceThreshold, cfg.Anthropic.RateLimit)
		zap.L().Info("claude entity extraction enabled", zap.String("model", cfg.Anthropic.Model))
	} else {
		extractor = entity.NewHeuristic(cfg.Analysis.EntityConfidenceThreshold, lex)
		zap.L().Debug("SERPBRIEF_ANTHROPIC_KEY not set, using heuristic entity extraction")
	}

	stop := text.NewStopwords(lex.Stopwords...)
	p := pipeline.New(cfg.Analysis, extractor, stop)

	return &briefEnv{Store: st, Pipeline: p}, nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/serp-brief/internal/model"
	"github.com/sells-group/serp-brief/internal/pipeline"
	"github.com/sells-group/serp-brief/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for analysis requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(ctx, env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the API routes. The analysis itself runs detached from
// the request: POST /api/analyze returns 202 with the run id and the caller
// polls GET /api/runs/{id}.
func newRouter(runCtx context.Context, env *briefEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/analyze", func(w http.ResponseWriter, req *http.Request) {
		var areq pipeline.Request
		if err := json.NewDecoder(req.Body).Decode(&areq); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if areq.Keyword == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "keyword is required"})
			return
		}
		if len(areq.Documents) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "documents are required"})
			return
		}

		run, err := env.Store.CreateRun(req.Context(), areq.Keyword)
		if err != nil {
			zap.L().Error("create run failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create run"})
			return
		}

		go executeRun(runCtx, env, run.ID, areq)

		writeJSON(w, http.StatusAccepted, map[string]string{
			"run_id":  run.ID,
			"status":  string(model.RunStatusQueued),
			"keyword": areq.Keyword,
		})
	})

	r.Get("/api/runs", func(w http.ResponseWriter, req *http.Request) {
		filter := store.RunFilter{
			Status:  model.RunStatus(req.URL.Query().Get("status")),
			Keyword: req.URL.Query().Get("keyword"),
		}
		runs, err := env.Store.ListRuns(req.Context(), filter)
		if err != nil {
			zap.L().Error("list runs failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
			return
		}
		if runs == nil {
			runs = []model.Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Get("/api/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		run, err := env.Store.GetRun(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	return r
}

// executeRun drives one analysis in the background and records its outcome.
func executeRun(ctx context.Context, env *briefEnv, runID string, req pipeline.Request) {
	log := zap.L().With(zap.String("run_id", runID), zap.String("keyword", req.Keyword))

	if err := env.Store.UpdateRunStatus(ctx, runID, model.RunStatusAnalyzing); err != nil {
		log.Warn("failed to mark run analyzing", zap.Error(err))
	}

	brief, err := env.Pipeline.Run(ctx, req)
	if err != nil {
		log.Error("analysis failed", zap.Error(err))
		if ferr := env.Store.FailRun(ctx, runID, err.Error()); ferr != nil {
			log.Warn("failed to record run failure", zap.Error(ferr))
		}
		return
	}

	if err := env.Store.CompleteRun(ctx, runID, brief); err != nil {
		log.Error("failed to persist brief", zap.Error(err))
		return
	}
	log.Info("analysis complete",
		zap.Int("documents", brief.Documents),
		zap.Int("warnings", len(brief.Warnings)),
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

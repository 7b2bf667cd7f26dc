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

	"github.com/finvista/advisor-cli/internal/model"
	"github.com/finvista/advisor-cli/internal/risk"
	"github.com/finvista/advisor-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for risk scoring and run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		offline, _ := cmd.Flags().GetBool("offline")
		classifier, err := initClassifier(offline)
		if err != nil {
			return err
		}
		questions, err := loadQuestions()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		env := &serverEnv{
			store: st,
			calc:  risk.NewCalculator(classifier, questions, cfg.Risk.Concurrency),
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			if err := shutdownServer(srv, 10*time.Second); err != nil {
				zap.L().Error("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	serveCmd.Flags().Bool("offline", false, "use a uniform stub classifier instead of the hosted model")

	rootCmd.AddCommand(serveCmd)
}

// shutdownServer drains in-flight requests under a fresh deadline. The signal
// context is already canceled by the time shutdown starts, so it cannot be
// reused here.
func shutdownServer(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

type serverEnv struct {
	store store.Store
	calc  *risk.Calculator
}

func newRouter(env *serverEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/api/risk-score", env.handleRiskScore)
	r.Get("/api/runs", env.handleListRuns)
	r.Get("/api/runs/{id}", env.handleGetRun)

	return r
}

func (env *serverEnv) handleRiskScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers map[string]string `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Answers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "answers are required"})
		return
	}

	result, err := env.calc.Score(r.Context(), req.Answers)
	if err != nil {
		if eris.Is(err, risk.ErrNoScore) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "no question could be scored"})
			return
		}
		zap.L().Error("risk-score request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "scoring failed"})
		return
	}

	var runID string
	if run, err := env.store.CreateRun(r.Context(), model.RunKindRiskScore); err != nil {
		zap.L().Warn("risk-score: create run failed", zap.Error(err))
	} else {
		runID = run.ID
		if err := env.store.CompleteRun(r.Context(), run.ID, &model.RunResult{RiskScore: result}); err != nil {
			zap.L().Warn("risk-score: complete run failed", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id": runID,
		"result": result,
	})
}

func (env *serverEnv) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		Kind:   model.RunKind(r.URL.Query().Get("kind")),
		Status: model.RunStatus(r.URL.Query().Get("status")),
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		fmt.Sscanf(limit, "%d", &filter.Limit)
	}

	runs, err := env.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("list runs failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (env *serverEnv) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := env.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

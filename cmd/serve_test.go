package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvista/advisor-cli/internal/classify"
	"github.com/finvista/advisor-cli/internal/model"
	"github.com/finvista/advisor-cli/internal/risk"
	"github.com/finvista/advisor-cli/internal/store"
)

func testEnv(t *testing.T, classifier classify.Classifier) *serverEnv {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "advisor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	questions := []model.Question{
		{
			ID:   "age",
			Text: "How old are you?",
			Classes: []model.AnswerClass{
				{Label: "young", Weight: 4},
				{Label: "old", Weight: 1},
			},
		},
	}

	return &serverEnv{
		store: st,
		calc:  risk.NewCalculator(classifier, questions, 1),
	}
}

func alwaysYoung() classify.Classifier {
	return classify.Func(func(context.Context, string, []string) (model.Distribution, error) {
		return model.Distribution{"young": 1, "old": 0}, nil
	})
}

func TestServe_Health(t *testing.T) {
	router := newRouter(testEnv(t, alwaysYoung()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestServe_RiskScore(t *testing.T) {
	env := testEnv(t, alwaysYoung())
	router := newRouter(env)

	body := `{"answers":{"age":"I'm 25"}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/risk-score", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		RunID  string            `json:"run_id"`
		Result *model.RiskResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	require.NotNil(t, resp.Result)
	// Full confidence on weight 4 of max 4.
	assert.InDelta(t, 1.0, resp.Result.Score, 1e-9)

	// The run is retrievable afterwards.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+resp.RunID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"complete"`)
}

func TestServe_RiskScore_BadRequests(t *testing.T) {
	router := newRouter(testEnv(t, alwaysYoung()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/risk-score", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/risk-score", strings.NewReader(`{"answers":{}}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_RiskScore_NoScorableAnswers(t *testing.T) {
	router := newRouter(testEnv(t, alwaysYoung()))

	// Only whitespace answers: every question is skipped as unanswered.
	body := `{"answers":{"age":"   "}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/risk-score", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServe_ListRuns(t *testing.T) {
	env := testEnv(t, alwaysYoung())
	router := newRouter(env)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	body := `{"answers":{"age":"30"}}`
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/risk-score", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs?kind=risk_score", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var runs []model.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunKindRiskScore, runs[0].Kind)
}

func TestShutdownServer_DrainsInFlightRequests(t *testing.T) {
	started := make(chan struct{})
	done := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/slow", func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		close(done)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: mux}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/slow")
		if err == nil {
			resp.Body.Close()
		}
	}()
	<-started

	// Shutdown runs under its own deadline and waits for the handler.
	require.NoError(t, shutdownServer(srv, 5*time.Second))

	select {
	case <-done:
	default:
		t.Fatal("shutdown returned before the in-flight request completed")
	}
	assert.ErrorIs(t, <-serveErr, http.ErrServerClosed)
}

func TestServe_GetRun_NotFound(t *testing.T) {
	router := newRouter(testEnv(t, alwaysYoung()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

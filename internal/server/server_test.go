package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/marketing-agent/internal/agent"
	"github.com/jonathan/marketing-agent/internal/db"
	"github.com/jonathan/marketing-agent/internal/llm/llmtest"
	"github.com/jonathan/marketing-agent/internal/optimizer"
	"github.com/jonathan/marketing-agent/internal/server/ratelimit"
	"github.com/jonathan/marketing-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const highScoreEval = "SCORE: 9\nSTRENGTHS: Clear\nIMPROVEMENTS: NONE\nNEEDS_OPTIMIZATION: NO"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noRateLimit() *ratelimit.Config {
	return &ratelimit.Config{Enabled: false}
}

func newTestAgent(t *testing.T, client *llmtest.Client, store *optimizer.ThresholdStore) *agent.Agent {
	t.Helper()
	return agent.New(client, store, agent.WithLogger(discardLogger()))
}

func newTestServer(t *testing.T, gen Generator, tasks TaskStore) (*Server, *optimizer.ThresholdStore) {
	t.Helper()
	store, err := optimizer.NewThresholdStore(types.DefaultThresholds())
	require.NoError(t, err)
	s := New(Config{
		Addr:       ":0",
		Agent:      gen,
		Thresholds: store,
		Tasks:      tasks,
		Logger:     discardLogger(),
		RateLimit:  noRateLimit(),
	})
	return s, store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// memoryTasks is an in-memory TaskStore.
type memoryTasks struct {
	mu    sync.Mutex
	tasks []db.Task
	err   error
}

func (m *memoryTasks) SaveTask(_ context.Context, topic string, result *types.GenerationResult) error {
	if m.err != nil {
		return m.err
	}
	task, err := db.NewTask(topic, result)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, *task)
	return nil
}

func (m *memoryTasks) GetTask(_ context.Context, id uuid.UUID) (*db.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			task := m.tasks[i]
			return &task, nil
		}
	}
	return nil, nil
}

func (m *memoryTasks) ListTasks(_ context.Context, limit, offset int) ([]db.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.tasks) {
		return nil, nil
	}
	end := min(offset+limit, len(m.tasks))
	return append([]db.Task(nil), m.tasks[offset:end]...), nil
}

func (m *memoryTasks) DeleteTask(_ context.Context, id uuid.UUID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// panicGenerator blows up on every call.
type panicGenerator struct{}

func (panicGenerator) Generate(context.Context, types.GenerationRequest) (*types.GenerationResult, error) {
	panic("boom")
}

func (panicGenerator) Evaluate(context.Context, types.EvaluateRequest) (types.Evaluation, error) {
	panic("boom")
}

func (panicGenerator) Model() string { return "panic-model" }

func TestHealth(t *testing.T) {
	client := llmtest.New()
	s, store := newTestServer(t, nil, nil)
	s2, _ := newTestServer(t, newTestAgent(t, client, store), nil)

	tests := []struct {
		name        string
		server      *Server
		status      string
		initialized bool
		model       string
	}{
		{"degraded without agent", s, "degraded", false, ""},
		{"healthy with agent", s2, "healthy", true, "fake-model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, tt.server.Handler(), http.MethodGet, "/health", "")
			require.Equal(t, http.StatusOK, rec.Code)

			resp := decode[HealthResponse](t, rec)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, ContentServiceName, resp.Service)
			assert.Equal(t, "gemini", resp.LLMProvider)
			assert.Equal(t, tt.initialized, resp.AgentInitialized)
			assert.Equal(t, tt.model, resp.Model)
			assert.Equal(t, Version, resp.Version)
		})
	}
}

func TestGenerate_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		missing []string
	}{
		{"all missing", `{}`, []string{"contentType", "brandVoice", "topic"}},
		{"topic only", `{"contentType":"social_post","brandVoice":"professional"}`, []string{"topic"}},
		{"blank brand voice", `{"contentType":"email","brandVoice":"  ","topic":"launch"}`, []string{"brandVoice"}},
		{"two missing", `{"topic":"launch"}`, []string{"contentType", "brandVoice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llmtest.New()
			s, store := newTestServer(t, nil, nil)
			s.agent = newTestAgent(t, client, store)

			rec := do(t, s.Handler(), http.MethodPost, "/generate", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := decode[errorBody](t, rec)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, "missing_fields", body.Error)
			assert.ElementsMatch(t, tt.missing, body.MissingFields)
			assert.Empty(t, client.Calls())
		})
	}
}

func TestGenerate_InvalidJSON(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	for _, body := range []string{"{not json", "", `["a"]`} {
		rec := do(t, s.Handler(), http.MethodPost, "/generate", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.Equal(t, "invalid_request", decode[errorBody](t, rec).Error)
	}
}

func TestGenerate_AgentUnavailable(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/generate",
		`{"contentType":"social_post","brandVoice":"professional","topic":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decode[errorBody](t, rec)
	assert.Equal(t, "service_unavailable", body.Error)
	assert.Equal(t, "content agent not initialized", body.Message)
}

func TestGenerate_HighScoreSkipsOptimization(t *testing.T) {
	client := llmtest.New("Launch day. #startup", highScoreEval)
	tasks := &memoryTasks{}
	s, store := newTestServer(t, nil, tasks)
	s.agent = newTestAgent(t, client, store)

	rec := do(t, s.Handler(), http.MethodPost, "/generate",
		`{"contentType":"social_post","brandVoice":"professional","topic":"x","platform":"twitter"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decode[types.GenerationResult](t, rec)
	_, err := uuid.Parse(result.TaskID)
	assert.NoError(t, err)
	assert.Equal(t, "Launch day. #startup", result.Content)
	assert.False(t, result.OptimizationPerformed)
	assert.Equal(t, 9.0, result.Evaluation.Score)
	assert.Len(t, client.Calls(), 2)

	require.Len(t, tasks.tasks, 1)
	assert.Equal(t, "x", tasks.tasks[0].Topic)
	assert.Equal(t, result.TaskID, tasks.tasks[0].ID.String())
}

func TestGenerate_TaskStoreFailureStillReturnsResult(t *testing.T) {
	client := llmtest.New("Launch day.", highScoreEval)
	s, store := newTestServer(t, nil, &memoryTasks{err: errors.New("db down")})
	s.agent = newTestAgent(t, client, store)

	rec := do(t, s.Handler(), http.MethodPost, "/generate",
		`{"contentType":"social_post","brandVoice":"professional","topic":"x"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerate_ModelFailure(t *testing.T) {
	client := llmtest.NewScript(llmtest.Response{Err: errors.New("quota exceeded")})
	s, store := newTestServer(t, nil, nil)
	s.agent = newTestAgent(t, client, store)

	rec := do(t, s.Handler(), http.MethodPost, "/generate",
		`{"contentType":"social_post","brandVoice":"professional","topic":"x"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode[errorBody](t, rec)
	assert.Equal(t, "generation_failed", body.Error)
	assert.Contains(t, body.Message, "quota exceeded")
}

func TestEvaluate(t *testing.T) {
	client := llmtest.New(highScoreEval)
	s, store := newTestServer(t, nil, nil)
	s.agent = newTestAgent(t, client, store)

	rec := do(t, s.Handler(), http.MethodPost, "/evaluate", `{"content":"Buy now","platform":"twitter"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ev := decode[types.Evaluation](t, rec)
	assert.Equal(t, 9.0, ev.Score)
	assert.Contains(t, client.Calls()[0].Prompt, "Buy now")
}

func TestNonFiniteModelScore(t *testing.T) {
	const nanEval = "SCORE: NaN\nCRITERIA_SCORES: clarity=nan\nSTRENGTHS: Clear\nIMPROVEMENTS: NONE\nNEEDS_OPTIMIZATION: NO"

	t.Run("evaluate", func(t *testing.T) {
		client := llmtest.New(nanEval)
		s, store := newTestServer(t, nil, nil)
		s.agent = newTestAgent(t, client, store)

		rec := do(t, s.Handler(), http.MethodPost, "/evaluate", `{"content":"Buy now"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, rec.Body.String())

		ev := decode[types.Evaluation](t, rec)
		assert.Equal(t, 7.0, ev.Score)
		assert.Empty(t, ev.CriteriaScores)
	})

	t.Run("generate", func(t *testing.T) {
		client := llmtest.New("Launch day.", nanEval)
		s, store := newTestServer(t, nil, nil)
		s.agent = newTestAgent(t, client, store)

		rec := do(t, s.Handler(), http.MethodPost, "/generate",
			`{"contentType":"social_post","brandVoice":"professional","topic":"x"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		result := decode[types.GenerationResult](t, rec)
		assert.Equal(t, 7.0, result.Evaluation.Score)
		assert.Equal(t, "Launch day.", result.Content)
	})
}

func TestJSONResponse_UnencodableValue(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	rec := httptest.NewRecorder()

	s.jsonResponse(rec, http.StatusOK, map[string]float64{"score": math.NaN()})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decode[errorBody](t, rec).Error)
}

func TestEvaluate_Errors(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/evaluate", `{"content":" "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"content"}, decode[errorBody](t, rec).MissingFields)

	rec = do(t, s.Handler(), http.MethodPost, "/evaluate", `{"content":"hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStream(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	for _, path := range []string{"/stream/abc", "/generate/stream/abc"} {
		rec := do(t, s.Handler(), http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)

		status := decode[types.StreamStatus](t, rec)
		assert.Equal(t, types.StreamStatus{
			TaskID:   "abc",
			Status:   "completed",
			Progress: 100,
			Message:  "Content generation completed",
		}, status)
	}
}

func TestStream_SSE(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/stream/abc", nil)
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	progress := strings.Index(body, "event: progress\n")
	complete := strings.Index(body, "event: complete\n")
	require.GreaterOrEqual(t, progress, 0)
	require.Greater(t, complete, progress)
	assert.Contains(t, body, `"taskId":"abc"`)
	assert.Contains(t, body, `"progress":100`)
}

func TestConfig(t *testing.T) {
	s, store := newTestServer(t, nil, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.DefaultThresholds(), decode[types.Thresholds](t, rec))

	rec = do(t, s.Handler(), http.MethodPost, "/config", `{"fullOptimizationThreshold":6}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, types.Thresholds{Full: 6, Targeted: 8.5}, decode[types.Thresholds](t, rec))
	assert.Equal(t, types.Thresholds{Full: 6, Targeted: 8.5}, store.Get())
}

func TestConfig_InvalidUpdates(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"not json", `{`, "invalid_request"},
		{"empty object", `{}`, "validation_error"},
		{"out of range", `{"targetedOptimizationThreshold":11}`, "validation_error"},
		{"unknown field", `{"threshold":5}`, "validation_error"},
		{"wrong type", `{"fullOptimizationThreshold":"high"}`, "validation_error"},
		{"low above high", `{"fullOptimizationThreshold":9}`, "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store := newTestServer(t, nil, nil)

			rec := do(t, s.Handler(), http.MethodPost, "/config", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[errorBody](t, rec).Error)
			assert.Equal(t, types.DefaultThresholds(), store.Get())
		})
	}
}

func TestTasks(t *testing.T) {
	client := llmtest.New("First post.", highScoreEval, "Second post.", highScoreEval)
	tasks := &memoryTasks{}
	s, store := newTestServer(t, nil, tasks)
	s.agent = newTestAgent(t, client, store)

	for _, topic := range []string{"one", "two"} {
		rec := do(t, s.Handler(), http.MethodPost, "/generate",
			`{"contentType":"social_post","brandVoice":"casual","topic":"`+topic+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, s.Handler(), http.MethodGet, "/tasks?limit=1&offset=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[TaskListResponse](t, rec)
	assert.Equal(t, 1, list.Limit)
	assert.Equal(t, 1, list.Offset)
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, "two", list.Tasks[0].Topic)

	id := tasks.tasks[0].ID.String()
	rec = do(t, s.Handler(), http.MethodGet, "/tasks/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "one", decode[db.Task](t, rec).Topic)

	rec = do(t, s.Handler(), http.MethodGet, "/tasks/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s.Handler(), http.MethodGet, "/tasks/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTask(t *testing.T) {
	client := llmtest.New("A post.", highScoreEval)
	tasks := &memoryTasks{}
	s, store := newTestServer(t, nil, tasks)
	s.agent = newTestAgent(t, client, store)

	rec := do(t, s.Handler(), http.MethodPost, "/generate",
		`{"contentType":"social_post","brandVoice":"casual","topic":"gone soon"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, tasks.tasks, 1)
	id := tasks.tasks[0].ID.String()

	rec = do(t, s.Handler(), http.MethodDelete, "/tasks/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, tasks.tasks)

	rec = do(t, s.Handler(), http.MethodGet, "/tasks/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s.Handler(), http.MethodDelete, "/tasks/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rec).Error)

	rec = do(t, s.Handler(), http.MethodDelete, "/tasks/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTask_StoreFailure(t *testing.T) {
	s, _ := newTestServer(t, nil, &memoryTasks{err: errors.New("connection refused")})

	rec := do(t, s.Handler(), http.MethodDelete, "/tasks/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTasks_NoStore(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s.Handler(), http.MethodGet, "/tasks/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s.Handler(), http.MethodDelete, "/tasks/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode[errorBody](t, rec)
	assert.Equal(t, "not_found", body.Error)
	assert.Equal(t, "The requested endpoint does not exist", body.Message)
}

func TestPanicRecovery(t *testing.T) {
	s, _ := newTestServer(t, panicGenerator{}, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/generate",
		`{"contentType":"social_post","brandVoice":"professional","topic":"x"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decode[errorBody](t, rec).Error)
}

func TestCORSAndRequestID(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	rec := do(t, s.Handler(), http.MethodOptions, "/generate", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	store, err := optimizer.NewThresholdStore(types.DefaultThresholds())
	require.NoError(t, err)
	s := New(Config{
		Thresholds: store,
		Logger:     discardLogger(),
		RateLimit: &ratelimit.Config{
			Enabled:       true,
			DefaultLimit:  1000,
			DefaultWindow: time.Minute,
			EndpointConfigs: []ratelimit.EndpointConfig{
				{Path: "/evaluate", Method: "POST", Limit: 1, Window: time.Minute, Burst: 1},
			},
		},
	})
	defer s.rateLimiter.Stop()

	rec := do(t, s.Handler(), http.MethodPost, "/evaluate", `{"content":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = do(t, s.Handler(), http.MethodPost, "/evaluate", `{"content":"hi"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decode[errorBody](t, rec).Error)

	// Other endpoints are unaffected.
	rec = do(t, s.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	s.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestErrorResponse_SchemaSummary(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/config", `{"fullOptimizationThreshold":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg := decode[errorBody](t, rec).Message
	assert.Contains(t, msg, "fullOptimizationThreshold")
	assert.NotContains(t, msg, "\n")
}

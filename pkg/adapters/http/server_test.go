package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEngine keeps sessions in memory and answers turns with canned results.
type MockEngine struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session

	SubmitFunc func(sessionID, text string, o domain.TurnOptions) (domain.TurnResult, error)
	ResumeFunc func(sessionID string, approved bool, reason string) (domain.TurnResult, error)
}

func newMockEngine() *MockEngine {
	return &MockEngine{sessions: make(map[string]*domain.Session)}
}

func (m *MockEngine) SubmitTurn(ctx context.Context, sessionID, text string, opts ...domain.TurnOption) (domain.TurnResult, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(sessionID, text, domain.ApplyTurnOptions(opts...))
	}
	res := domain.ReplyResult("primary_assistant", "echo: "+text)
	res.SessionID = sessionID
	return res, nil
}

func (m *MockEngine) ResumeTurn(ctx context.Context, sessionID string, approved bool, reason string) (domain.TurnResult, error) {
	if m.ResumeFunc != nil {
		return m.ResumeFunc(sessionID, approved, reason)
	}
	return domain.TurnResult{}, domain.ErrNoPendingApproval
}

func (m *MockEngine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return s.Snapshot(), nil
}

func (m *MockEngine) Reset(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MockEngine) Start(ctx context.Context, sessionID, userID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		s = domain.NewSession(sessionID)
		if userID != "" {
			s.Context[domain.ContextUserID] = userID
		}
		m.sessions[sessionID] = s
	}
	return s.Snapshot(), nil
}

func (m *MockEngine) Descriptors() []domain.Descriptor {
	return []domain.Descriptor{
		{Name: "primary_assistant", SafeTools: []string{"search_flights"}},
		{Name: "book_hotel", EntryTool: "ToBookHotel", SensitiveTools: []string{"book_hotel"}},
	}
}

func newTestHandler(t *testing.T, eng Engine, opts ...Option) http.Handler {
	t.Helper()
	h, err := NewHandler(eng, opts...)
	require.NoError(t, err)
	return h
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestLoadSpec(t *testing.T) {
	doc, err := LoadSpec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Switchboard Turn API", doc.Info.Title)
	assert.NotNil(t, doc.Paths.Find("/sessions/{sessionId}/turns"))
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestHandler(t, newMockEngine())

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])

	w = do(t, h, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[map[string]string](t, w)
	assert.Equal(t, "switchboard-http", info["app"])
	assert.Equal(t, "1.0.0", info["api_version"])

	w = do(t, h, http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

func TestListControllers(t *testing.T) {
	h := newTestHandler(t, newMockEngine())
	w := do(t, h, http.MethodGet, "/controllers", "")
	require.Equal(t, http.StatusOK, w.Code)

	descs := decode[[]domain.Descriptor](t, w)
	require.Len(t, descs, 2)
	assert.Equal(t, "ToBookHotel", descs[1].EntryTool)
}

func TestSessionLifecycle(t *testing.T) {
	eng := newMockEngine()
	h := newTestHandler(t, eng)

	w := do(t, h, http.MethodPost, "/sessions", `{"session_id":"sess-1","user_id":"0000 000001"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Session](t, w)
	assert.Equal(t, "sess-1", created.ID)
	assert.Equal(t, "0000 000001", created.UserID())

	w = do(t, h, http.MethodGet, "/sessions/sess-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusActive, decode[domain.Session](t, w).Status)

	w = do(t, h, http.MethodDelete, "/sessions/sess-1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/sessions/sess-1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "session not found")
}

func TestCreateSession_GeneratesID(t *testing.T) {
	h := newTestHandler(t, newMockEngine())
	w := do(t, h, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, decode[domain.Session](t, w).ID)
}

func TestSubmitTurn(t *testing.T) {
	eng := newMockEngine()
	var got domain.TurnOptions
	eng.SubmitFunc = func(sessionID, text string, o domain.TurnOptions) (domain.TurnResult, error) {
		got = o
		res := domain.ReplyResult("primary_assistant", "Hello, "+text)
		res.SessionID = sessionID
		return res, nil
	}
	h := newTestHandler(t, eng)

	w := do(t, h, http.MethodPost, "/sessions/sess-1/turns", `{"text":"hi","user_id":"0000 000001"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[domain.TurnResult](t, w)
	assert.Equal(t, domain.OutcomeReply, res.Outcome)
	assert.Equal(t, "Hello, hi", res.Reply)
	assert.Equal(t, "sess-1", res.SessionID)
	assert.Equal(t, "0000 000001", got.UserID)
}

func TestSubmitTurn_FatalIsOK(t *testing.T) {
	eng := newMockEngine()
	eng.SubmitFunc = func(sessionID, text string, o domain.TurnOptions) (domain.TurnResult, error) {
		return domain.FatalResult("primary_assistant", domain.NewTurnError(domain.KindLoop, domain.ErrStepLimitExceeded)), nil
	}
	h := newTestHandler(t, eng)

	w := do(t, h, http.MethodPost, "/sessions/sess-1/turns", `{"text":"loop"}`)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[domain.TurnResult](t, w)
	assert.Equal(t, domain.OutcomeFatal, res.Outcome)
	assert.Contains(t, res.Error, "loop_overrun")
}

func TestSubmitTurn_Rejections(t *testing.T) {
	eng := newMockEngine()
	eng.SubmitFunc = func(sessionID, text string, o domain.TurnOptions) (domain.TurnResult, error) {
		return domain.TurnResult{}, domain.ErrApprovalPending
	}
	h := newTestHandler(t, eng)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"missing text", "/sessions/sess-1/turns", `{}`, http.StatusBadRequest},
		{"empty text", "/sessions/sess-1/turns", `{"text":""}`, http.StatusBadRequest},
		{"unknown field", "/sessions/sess-1/turns", `{"text":"hi","extra":1}`, http.StatusBadRequest},
		{"bad session id", "/sessions/bad%20id/turns", `{"text":"hi"}`, http.StatusBadRequest},
		{"awaiting approval", "/sessions/sess-1/turns", `{"text":"hi"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestResumeTurn(t *testing.T) {
	eng := newMockEngine()
	var gotApproved bool
	var gotReason string
	eng.ResumeFunc = func(sessionID string, approved bool, reason string) (domain.TurnResult, error) {
		if sessionID == "unknown" {
			return domain.TurnResult{}, domain.ErrSessionNotFound
		}
		gotApproved, gotReason = approved, reason
		return domain.ReplyResult("book_hotel", "Okay, not booked."), nil
	}
	h := newTestHandler(t, eng)

	w := do(t, h, http.MethodPost, "/sessions/sess-1/resume", `{"approved":false,"reason":"too expensive"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, gotApproved)
	assert.Equal(t, "too expensive", gotReason)

	w = do(t, h, http.MethodPost, "/sessions/unknown/resume", `{"approved":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/sessions/sess-1/resume", `{"reason":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "approved is required")
}

func TestResumeTurn_NothingPending(t *testing.T) {
	h := newTestHandler(t, newMockEngine())
	w := do(t, h, http.MethodPost, "/sessions/sess-1/resume", `{"approved":true}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "switchboard_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	h := newTestHandler(t, newMockEngine(), WithGatherer(reg))
	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "switchboard_test_total 1")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, newMockEngine())
	w := do(t, h, http.MethodOptions, "/sessions/sess-1/turns", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents_Session(t *testing.T) {
	eng := newMockEngine()
	handler, err := NewHandler(eng)
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/sess-1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	readData := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok {
				return data
			}
		}
	}
	assert.Equal(t, "connected", readData())

	turn, err := http.Post(srv.URL+"/sessions/sess-1/turns", "application/json", strings.NewReader(`{"text":"hi"}`))
	require.NoError(t, err)
	turn.Body.Close()
	require.Equal(t, http.StatusOK, turn.StatusCode)

	var res domain.TurnResult
	require.NoError(t, json.Unmarshal([]byte(readData()), &res))
	assert.Equal(t, "echo: hi", res.Reply)
	assert.Equal(t, "sess-1", res.SessionID)
}

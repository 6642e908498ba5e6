package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novenantes/internal/biometric"
	"novenantes/internal/biometric/capture"
	"novenantes/internal/biometric/service"
	"novenantes/internal/biometric/store"
	"novenantes/internal/platform/middleware"
)

type stubValidator struct{}

func (stubValidator) ValidateSession(context.Context, string) (*middleware.SessionClaims, error) {
	return &middleware.SessionClaims{UserID: 1, SessionID: "sess", Role: "admin"}, nil
}

type stubMatcher struct {
	template biometric.Template
	verdict  biometric.Verdict
	err      error
}

func (m *stubMatcher) Enroll(context.Context, biometric.Sample) (biometric.Template, error) {
	return m.template, m.err
}

func (m *stubMatcher) Identify(context.Context, biometric.Sample, []biometric.Candidate) (biometric.Verdict, error) {
	return m.verdict, m.err
}

type fixture struct {
	router  chi.Router
	device  *capture.SimulatedDevice
	session *capture.Session
	store   *store.InMemory
	matcher *stubMatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	device := capture.NewSimulatedDevice()
	session := capture.NewSession(device, capture.Options{})
	st := store.NewInMemory()
	matcher := &stubMatcher{}
	orch := service.New(session, st, matcher, logger)

	r := chi.NewRouter()
	New(orch, session, st, stubValidator{}, logger).Register(r)
	return &fixture{router: r, device: device, session: session, store: st, matcher: matcher}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "token"})
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// captureSample drives the session to SampleAvailable.
func (f *fixture) captureSample(t *testing.T) {
	t.Helper()
	f.device.QueueScan(biometric.Sample{Image: []byte("img"), Quality: 75})
	res := f.do(t, http.MethodPost, "/api/biometric/session/connect", nil)
	require.Equal(t, http.StatusOK, res.Code)
	res = f.do(t, http.MethodPost, "/api/biometric/session/capture", nil)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestHandler_RequiresSession(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/biometric/identify", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_SessionLifecycle(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodGet, "/api/biometric/session", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var state map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&state))
	assert.Equal(t, string(capture.StateIdle), state["capture_state"])

	res = f.do(t, http.MethodPost, "/api/biometric/session/connect", nil)
	require.Equal(t, http.StatusOK, res.Code)

	f.device.QueueScan(biometric.Sample{Image: []byte("img"), Quality: 60})
	res = f.do(t, http.MethodPost, "/api/biometric/session/capture", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var cap map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&cap))
	assert.Equal(t, float64(60), cap["quality"])

	res = f.do(t, http.MethodPost, "/api/biometric/session/clear", nil)
	assert.Equal(t, http.StatusNoContent, res.Code)

	res = f.do(t, http.MethodPost, "/api/biometric/session/disconnect", nil)
	assert.Equal(t, http.StatusNoContent, res.Code)
}

func TestHandler_ConnectFailure(t *testing.T) {
	f := newFixture(t)
	f.device.FailOpen(errors.New("no reader"))

	res := f.do(t, http.MethodPost, "/api/biometric/session/connect", nil)
	assert.Equal(t, http.StatusBadGateway, res.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "service_unavailable", body["error"])
}

func TestHandler_Enroll(t *testing.T) {
	t.Run("registers a first template", func(t *testing.T) {
		f := newFixture(t)
		f.store.AddMember(7)
		f.matcher.template = "tpl-7"
		f.captureSample(t)

		res := f.do(t, http.MethodPost, "/api/biometric/enroll", map[string]any{"fraterno_id": 7})
		require.Equal(t, http.StatusOK, res.Code)

		var status biometric.Status
		require.NoError(t, json.NewDecoder(res.Body).Decode(&status))
		assert.Equal(t, biometric.StatusRegistered, status.Kind)
		assert.Equal(t, int64(7), status.MemberID)
	})

	t.Run("missing member id is a validation error", func(t *testing.T) {
		f := newFixture(t)
		res := f.do(t, http.MethodPost, "/api/biometric/enroll", map[string]any{})
		assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	})

	t.Run("without a captured sample is a bad request", func(t *testing.T) {
		f := newFixture(t)
		f.store.AddMember(7)
		res := f.do(t, http.MethodPost, "/api/biometric/enroll", map[string]any{"fraterno_id": 7})
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("unknown member is not found", func(t *testing.T) {
		f := newFixture(t)
		f.captureSample(t)
		res := f.do(t, http.MethodPost, "/api/biometric/enroll", map[string]any{"fraterno_id": 99})
		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("extraction failure is a validation error", func(t *testing.T) {
		f := newFixture(t)
		f.store.AddMember(7)
		f.matcher.err = biometric.ErrExtractionFailed
		f.captureSample(t)

		res := f.do(t, http.MethodPost, "/api/biometric/enroll", map[string]any{"fraterno_id": 7})
		assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	})
}

func TestHandler_Identify(t *testing.T) {
	t.Run("match returns identified status", func(t *testing.T) {
		f := newFixture(t)
		f.store.AddMember(3)
		require.NoError(t, f.store.Upsert(context.Background(), 3, "tpl-3"))
		f.matcher.verdict = biometric.Verdict{Matched: true, MemberID: 3, Score: 95}
		f.captureSample(t)

		res := f.do(t, http.MethodPost, "/api/biometric/identify", nil)
		require.Equal(t, http.StatusOK, res.Code)

		var status biometric.Status
		require.NoError(t, json.NewDecoder(res.Body).Decode(&status))
		assert.Equal(t, biometric.StatusIdentified, status.Kind)
		assert.Equal(t, int64(3), status.MemberID)
		assert.Equal(t, float64(95), status.Score)
	})

	t.Run("no match returns not identified with 200", func(t *testing.T) {
		f := newFixture(t)
		f.store.AddMember(3)
		require.NoError(t, f.store.Upsert(context.Background(), 3, "tpl-3"))
		f.captureSample(t)

		res := f.do(t, http.MethodPost, "/api/biometric/identify", nil)
		require.Equal(t, http.StatusOK, res.Code)

		var status biometric.Status
		require.NoError(t, json.NewDecoder(res.Body).Decode(&status))
		assert.Equal(t, biometric.StatusNotIdentified, status.Kind)
	})

	t.Run("matcher outage is a 502, never a miss", func(t *testing.T) {
		f := newFixture(t)
		f.store.AddMember(3)
		require.NoError(t, f.store.Upsert(context.Background(), 3, "tpl-3"))
		f.matcher.err = biometric.ErrServiceUnavailable
		f.captureSample(t)

		res := f.do(t, http.MethodPost, "/api/biometric/identify", nil)
		assert.Equal(t, http.StatusBadGateway, res.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
		assert.Equal(t, "service_unavailable", body["error"])
	})
}

func TestHandler_Templates(t *testing.T) {
	f := newFixture(t)
	f.store.AddMember(1)
	f.store.AddMember(2)
	require.NoError(t, f.store.Upsert(context.Background(), 1, "tpl-1"))

	res := f.do(t, http.MethodGet, "/api/biometric/templates", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, float64(1), list[0]["member_id"])

	res = f.do(t, http.MethodDelete, "/api/biometric/templates/1", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var status biometric.Status
	require.NoError(t, json.NewDecoder(res.Body).Decode(&status))
	assert.Equal(t, biometric.StatusRemoved, status.Kind)

	res = f.do(t, http.MethodDelete, "/api/biometric/templates/abc", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

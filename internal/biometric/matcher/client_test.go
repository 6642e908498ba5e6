package matcher

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novenantes/internal/biometric"
	"novenantes/internal/platform/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.MatcherConfig{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, slog.New(slog.DiscardHandler))
}

func sampleFixture() biometric.Sample {
	return biometric.Sample{Image: []byte("raw-image"), Format: biometric.SampleFormatPNG}
}

func TestClient_Enroll(t *testing.T) {
	t.Run("success returns the template", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/enroll", r.URL.Path)

			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, sampleFixture().Base64(), req["fingerprint"])

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"success": true, "template": "b64-template", "quality": 72,
			})
		}))

		tpl, err := client.Enroll(context.Background(), sampleFixture())
		require.NoError(t, err)
		assert.Equal(t, biometric.Template("b64-template"), tpl)
	})

	t.Run("quality rejection maps to extraction failed", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"success": false, "error": "too few minutiae",
			})
		}))

		_, err := client.Enroll(context.Background(), sampleFixture())
		require.ErrorIs(t, err, biometric.ErrExtractionFailed)
		assert.Contains(t, err.Error(), "too few minutiae")
	})

	t.Run("http error maps to service unavailable", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))

		_, err := client.Enroll(context.Background(), sampleFixture())
		require.ErrorIs(t, err, biometric.ErrServiceUnavailable)
	})

	t.Run("unreachable service maps to service unavailable", func(t *testing.T) {
		client := New(config.MatcherConfig{
			BaseURL: "http://127.0.0.1:1",
			Timeout: 200 * time.Millisecond,
		}, slog.New(slog.DiscardHandler))

		_, err := client.Enroll(context.Background(), sampleFixture())
		require.ErrorIs(t, err, biometric.ErrServiceUnavailable)
	})
}

func TestClient_Identify(t *testing.T) {
	candidates := []biometric.Candidate{
		{MemberID: 1, Template: "tpl-1"},
		{MemberID: 2, Template: "tpl-2"},
	}

	t.Run("match returns verdict with legacy member field", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/verify", r.URL.Path)

			var req struct {
				Fingerprint string `json:"fingerprint"`
				Templates   []struct {
					ID       int64  `json:"id"`
					Template string `json:"template"`
				} `json:"templates"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Templates, 2)
			assert.Equal(t, int64(1), req.Templates[0].ID)

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"success": true, "matched": true, "fraternoId": 2, "score": 88.25,
			})
		}))

		verdict, err := client.Identify(context.Background(), sampleFixture(), candidates)
		require.NoError(t, err)
		assert.True(t, verdict.Matched)
		assert.Equal(t, int64(2), verdict.MemberID)
		assert.Equal(t, 88.25, verdict.Score)
	})

	t.Run("no match returns empty verdict without error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"success": true, "matched": false,
			})
		}))

		verdict, err := client.Identify(context.Background(), sampleFixture(), candidates)
		require.NoError(t, err)
		assert.False(t, verdict.Matched)
	})

	t.Run("service-level failure is unavailable, not a miss", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"success": false, "error": "engine crashed",
			})
		}))

		_, err := client.Identify(context.Background(), sampleFixture(), candidates)
		require.ErrorIs(t, err, biometric.ErrServiceUnavailable)
	})

	t.Run("transport failure is unavailable, not a miss", func(t *testing.T) {
		client := New(config.MatcherConfig{
			BaseURL: "http://127.0.0.1:1",
			Timeout: 200 * time.Millisecond,
		}, slog.New(slog.DiscardHandler))

		_, err := client.Identify(context.Background(), sampleFixture(), candidates)
		require.ErrorIs(t, err, biometric.ErrServiceUnavailable)
	})
}

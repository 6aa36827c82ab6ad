package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VictorW-repo/astral-assessment/internal/workflow"
)

type fakeEnqueuer struct {
	leads []workflow.Lead
	err   error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, lead workflow.Lead) error {
	if f.err != nil {
		return f.err
	}
	f.leads = append(f.leads, lead)
	return nil
}

type fakeIDGen struct{ id string }

func (f fakeIDGen) NewV4ID() (string, error) { return f.id, nil }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestServer(enq *fakeEnqueuer, signingKey string) *Server {
	return NewServer(
		enq,
		fakeIDGen{id: "11111111-2222-4333-8444-555555555555"},
		fixedClock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)},
		signingKey,
		zap.NewNop(),
	)
}

func postRegister(t *testing.T, s *Server, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeEnqueuer{}, "")
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "path %s", path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeEnqueuer{}, "")
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_")
}

func TestRegisterAccepted(t *testing.T) {
	t.Parallel()

	enq := &fakeEnqueuer{}
	s := newTestServer(enq, "")
	body, _ := json.Marshal(map[string]string{
		"first_name":      "Jane",
		"last_name":       "Doe",
		"company_website": "acme.com",
	})
	rec := postRegister(t, s, body, nil)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp registerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "accepted", resp.Status)
	require.Equal(t, "11111111-2222-4333-8444-555555555555", resp.RequestID)
	require.False(t, resp.Timestamp.IsZero())

	require.Len(t, enq.leads, 1)
	require.Equal(t, "acme.com", enq.leads[0].CompanyWebsite)
	require.Equal(t, resp.RequestID, enq.leads[0].RequestID)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeEnqueuer{}, "")
	body, _ := json.Marshal(map[string]string{"linkedin": ""})
	rec := postRegister(t, s, body, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Details, 3, "every missing field should be reported")
}

func TestRegisterLinkedInOnlyIsAccepted(t *testing.T) {
	t.Parallel()

	enq := &fakeEnqueuer{}
	s := newTestServer(enq, "")
	body, _ := json.Marshal(map[string]string{
		"first_name": "Jane",
		"last_name":  "Doe",
		"linkedin":   "https://linkedin.com/in/janedoe",
	})
	rec := postRegister(t, s, body, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, enq.leads, 1)
}

func TestRegisterRejectsBadJSON(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeEnqueuer{}, "")
	rec := postRegister(t, s, []byte("{not json"), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterQueueUnavailable(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeEnqueuer{err: errors.New("queue closed")}, "")
	body, _ := json.Marshal(map[string]string{
		"first_name":      "Jane",
		"last_name":       "Doe",
		"company_website": "acme.com",
	})
	rec := postRegister(t, s, body, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRegisterSignatureEnforced(t *testing.T) {
	t.Parallel()

	const key = "hook-secret"
	enq := &fakeEnqueuer{}
	s := newTestServer(enq, key)
	body, _ := json.Marshal(map[string]string{
		"first_name":      "Jane",
		"last_name":       "Doe",
		"company_website": "acme.com",
	})

	rec := postRegister(t, s, body, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postRegister(t, s, body, map[string]string{"X-Webhook-Signature": "s=deadbeef"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	sig := "s=" + hex.EncodeToString(mac.Sum(nil))
	rec = postRegister(t, s, body, map[string]string{"X-Webhook-Signature": sig})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, enq.leads, 1)
}

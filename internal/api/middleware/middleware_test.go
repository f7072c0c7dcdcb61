package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	var capturedID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	RequestID(handler).ServeHTTP(w, req)

	assert.NotEmpty(t, capturedID)
	assert.Equal(t, capturedID, w.Header().Get("X-Request-ID"))
}

func TestRequestID_PropagatesExisting(t *testing.T) {
	var capturedID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	w := httptest.NewRecorder()

	RequestID(handler).ServeHTTP(w, req)

	assert.Equal(t, "req-abc", capturedID)
	assert.Equal(t, "req-abc", w.Header().Get("X-Request-ID"))
}

func TestClientID_ExtractsHeader(t *testing.T) {
	var capturedID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetClientID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Client-ID", "client-42")
	w := httptest.NewRecorder()

	ClientID(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "client-42", capturedID)
}

func TestClientID_MissingHeaderIsAllowed(t *testing.T) {
	var capturedID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetClientID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	ClientID(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", capturedID)
}

func TestGetClientID_ValidContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), ClientIDKey, "client-123")
	assert.Equal(t, "client-123", GetClientID(ctx))
}

func TestGetClientID_MissingContext(t *testing.T) {
	assert.Equal(t, "", GetClientID(context.Background()))
}

func TestMaxBodyBytes_RejectsOversizedContentLength(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 100)))
	req.ContentLength = 100
	w := httptest.NewRecorder()

	MaxBodyBytes(10)(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "request body too large")
}

func TestMaxBodyBytes_AllowsSmallBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok"))
	w := httptest.NewRecorder()

	MaxBodyBytes(10)(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMaxBodyBytes_ZeroLimitDisablesCheck(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 100)))
	req.ContentLength = 100
	w := httptest.NewRecorder()

	MaxBodyBytes(0)(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccessLog_RecordsRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("done"))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/search", nil)
	req.Header.Set("X-Client-ID", "client-7")
	w := httptest.NewRecorder()

	AccessLog(logger)(handler).ServeHTTP(w, req)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/api/search", fields["path"])
	assert.Equal(t, int64(http.StatusCreated), fields["status"])
	assert.Equal(t, int64(4), fields["bytes"])
	assert.Equal(t, "client-7", fields["client_id"])
}

func TestAccessLog_DefaultsStatusToOK(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("implicit 200"))
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	AccessLog(logger)(handler).ServeHTTP(w, req)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(http.StatusOK), logs.All()[0].ContextMap()["status"])
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		expected string
	}{
		{
			"x-forwarded-for first hop",
			func(r *http.Request) { r.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2") },
			"10.0.0.1",
		},
		{
			"x-real-ip",
			func(r *http.Request) { r.Header.Set("X-Real-IP", "10.0.0.9") },
			"10.0.0.9",
		},
		{
			"remote addr host",
			func(r *http.Request) { r.RemoteAddr = "192.168.1.5:4321" },
			"192.168.1.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			assert.Equal(t, tt.expected, clientIP(req))
		})
	}
}

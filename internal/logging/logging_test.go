package logging

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLevel(t *testing.T) {
	var buf bytes.Buffer

	log := New("warn", &buf)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())
	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")

	assert.Equal(t, zerolog.InfoLevel, New("", &buf).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("loud", &buf).GetLevel())
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	h := middleware.RequestID(RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/sms", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := buf.String()
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"bytes":15`)
	assert.Contains(t, out, `"path":"/sms"`)
	assert.Contains(t, out, `"request_id":"`)
}

func panicking(w http.ResponseWriter, r *http.Request) {
	panic("boom")
}

func TestRequestLoggerRecoveredPanic(t *testing.T) {
	tests := []struct {
		name  string
		chain func(zerolog.Logger) http.Handler
	}{
		{"recoverer inside", func(log zerolog.Logger) http.Handler {
			return RequestLogger(log)(middleware.Recoverer(http.HandlerFunc(panicking)))
		}},
		{"recoverer outside", func(log zerolog.Logger) http.Handler {
			return middleware.Recoverer(RequestLogger(log)(http.HandlerFunc(panicking)))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			rec := httptest.NewRecorder()
			tt.chain(zerolog.New(&buf)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Contains(t, buf.String(), `"status":500`)
		})
	}
}

func TestRequestLoggerImplicitOK(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(zerolog.New(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, buf.String(), `"status":200`)
}

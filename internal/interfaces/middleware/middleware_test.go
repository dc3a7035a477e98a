package middleware

import (
	"bytes"
	"encoding/json"
	"go-local-duplicates/internal/interfaces/presenters"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	SendJSONSuccess(w, map[string]string{"id": RequestID(r.Context())}, "ok")
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next(w, r)
			}
		}
	}

	h := Chain(okHandler, mark("first"), mark("second"))
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRequestIDMiddleware(t *testing.T) {
	h := RequestIDMiddleware(okHandler)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	var resp presenters.SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, generated, resp.Data.(map[string]interface{})["id"])

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caller-id")
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, "caller-id", rec.Header().Get(RequestIDHeader))
}

func TestErrorHandlerMiddleware_RecoversPanic(t *testing.T) {
	h := ErrorHandlerMiddleware(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp presenters.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INTERNAL_ERROR", resp.Code)
}

func TestValidationMiddleware(t *testing.T) {
	h := ValidationMiddleware(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"http://localhost:3000"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	CORSMiddleware([]string{"*"})(okHandler)(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(2)(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Other clients have their own budget
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	for _, mw := range []Middleware{LoggingMiddleware, DetailedLoggingMiddleware, APILoggingMiddleware} {
		rec := httptest.NewRecorder()
		mw(func(w http.ResponseWriter, r *http.Request) {
			SendJSONError(w, ErrNotFound, http.StatusNotFound)
		})(rec, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"a":1}`)))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		var resp presenters.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "NOT_FOUND", resp.Code)
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestAPILoggingMiddleware_RecordsRequest(t *testing.T) {
	buf := captureLog(t)

	h := RequestIDMiddleware(APILoggingMiddleware(func(w http.ResponseWriter, r *http.Request) {
		SendJSONError(w, ErrNotFound, http.StatusNotFound)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/duplicates/groups?operationId=op-7", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	h(httptest.NewRecorder(), req)

	out := buf.String()
	start := strings.Index(out, "{")
	require.GreaterOrEqual(t, start, 0, out)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out[start:])), &entry))
	assert.Equal(t, "op-7", entry["operation_id"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.EqualValues(t, http.StatusNotFound, entry["status_code"])
	assert.Equal(t, "NOT_FOUND", entry["error_code"])
	assert.Equal(t, "/api/duplicates/groups", entry["path"])
	assert.NotContains(t, entry, "slow")
}

func TestLoggingMiddleware_Line(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		query   string
		want    []string
		notWant []string
	}{
		{"success", http.StatusOK, "", []string{"✅ GET /x → 200"}, []string{"op=", "에러 응답"}},
		{"with operation", http.StatusAccepted, "?operationId=op-3", []string{"op=op-3"}, nil},
		{"client error", http.StatusBadRequest, "", []string{"⚠️ GET /x → 400", "에러 응답"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)
			LoggingMiddleware(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"x"}`))
			})(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil))

			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestStatusRecorder_KeepsOnlyHead(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	big := strings.Repeat("a", 3*maxLoggedBody)
	n, err := rec.Write([]byte(big))
	require.NoError(t, err)
	_, _ = rec.Write([]byte("tail"))

	assert.Equal(t, len(big), n)
	assert.Equal(t, len(big)+4, rec.size)
	assert.Equal(t, maxLoggedBody+1, rec.head.Len())
	assert.Equal(t, maxLoggedBody+3, len(truncate(rec.head.String())))
}

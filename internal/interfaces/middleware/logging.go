package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go-local-duplicates/internal/interfaces/presenters"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	// maxLoggedBody bounds how much of a body is kept for the log
	maxLoggedBody = 1000

	// slowRequest flags synchronous scans and previews that held a connection
	slowRequest = 2 * time.Second
)

// requestLog is one finished request as the logging middlewares see it
type requestLog struct {
	Timestamp    string `json:"timestamp"`
	RequestID    string `json:"request_id,omitempty"`
	Method       string `json:"method"`
	Path         string `json:"path"`
	OperationID  string `json:"operation_id,omitempty"`
	RemoteAddr   string `json:"remote_addr"`
	Status       int    `json:"status_code"`
	DurationMS   int64  `json:"duration_ms"`
	ResponseSize int    `json:"response_size"`
	Slow         bool   `json:"slow,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	body string
}

// statusRecorder keeps the status, the byte count and the head of the body
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
	head   bytes.Buffer
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func (sr *statusRecorder) Write(data []byte) (int, error) {
	if room := maxLoggedBody + 1 - sr.head.Len(); room > 0 {
		if room > len(data) {
			room = len(data)
		}
		sr.head.Write(data[:room])
	}
	n, err := sr.ResponseWriter.Write(data)
	sr.size += n
	return n, err
}

// serve runs next and describes the request it handled
func serve(next http.HandlerFunc, w http.ResponseWriter, r *http.Request) requestLog {
	started := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	next(rec, r)
	elapsed := time.Since(started)

	entry := requestLog{
		Timestamp:    started.Format(time.RFC3339),
		RequestID:    RequestID(r.Context()),
		Method:       r.Method,
		Path:         r.URL.Path,
		OperationID:  r.URL.Query().Get("operationId"),
		RemoteAddr:   getClientIP(r),
		Status:       rec.status,
		DurationMS:   elapsed.Milliseconds(),
		ResponseSize: rec.size,
		Slow:         elapsed >= slowRequest,
		body:         truncate(rec.head.String()),
	}

	if entry.Status >= 400 {
		var errorResp presenters.ErrorResponse
		if json.Unmarshal(rec.head.Bytes(), &errorResp) == nil {
			entry.ErrorCode = errorResp.Code
			entry.ErrorMessage = errorResp.Error
		}
	}
	return entry
}

// line renders the one-line text form
func (e requestLog) line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s → %d (%dms, %d bytes)",
		getStatusEmoji(e.Status), e.Method, e.Path, e.Status, e.DurationMS, e.ResponseSize)
	if e.OperationID != "" {
		fmt.Fprintf(&b, " op=%s", e.OperationID)
	}
	if e.Slow {
		b.WriteString(" 🐢")
	}
	return b.String()
}

// LoggingMiddleware logs one line per request, plus the error body on failure
func LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := serve(next, w, r)
		log.Print(entry.line())
		if entry.Status >= 400 && entry.body != "" {
			log.Printf("❌ 에러 응답 %s %s: %s", entry.Method, entry.Path, entry.body)
		}
	}
}

// DetailedLoggingMiddleware also logs request bodies and small responses
func DetailedLoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodDelete) {
			requestBody, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(requestBody))
			if len(requestBody) > 0 {
				log.Printf("📤 %s %s 요청 본문: %s", r.Method, r.URL.Path, truncate(string(requestBody)))
			}
		}

		entry := serve(next, w, r)
		log.Printf("%s [%s] %s", entry.line(), entry.RequestID, r.UserAgent())
		if entry.body != "" && (entry.Status >= 400 || entry.ResponseSize < 500) {
			log.Printf("📥 응답 본문: %s", entry.body)
		}
	}
}

// APILoggingMiddleware logs one JSON document per request
func APILoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := serve(next, w, r)
		if data, err := json.Marshal(entry); err == nil {
			log.Printf("📊 API: %s", data)
		}
	}
}

func getStatusEmoji(statusCode int) string {
	switch {
	case statusCode >= 500:
		return "❌"
	case statusCode >= 400:
		return "⚠️"
	case statusCode >= 300:
		return "🔄"
	case statusCode >= 200:
		return "✅"
	default:
		return "📋"
	}
}

func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	return s[:maxLoggedBody] + "..."
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"go-local-duplicates/internal/interfaces/presenters"
	"log"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Middleware decorates a handler function
type Middleware func(http.HandlerFunc) http.HandlerFunc

// Chain applies middlewares so that the first one listed runs first
func Chain(h http.HandlerFunc, mws ...Middleware) http.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type requestIDKey struct{}

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware assigns every request an id, reusing the caller's when present
func RequestIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	}
}

// RequestID returns the id assigned by RequestIDMiddleware
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ErrorHandlerMiddleware provides centralized error handling and recovery
func ErrorHandlerMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		errorHandler := &ErrorResponseWriter{
			ResponseWriter: w,
			Request:        r,
		}

		defer func() {
			if err := recover(); err != nil {
				log.Printf("❌ 패닉 복구 %s %s [%s]: %v", r.Method, r.URL.Path, RequestID(r.Context()), err)
				log.Printf("Stack trace: %s", debug.Stack())

				if errorHandler.StatusCode == 0 {
					sendErrorResponse(w, "Internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
				}
			}
		}()

		next(errorHandler, r)
	}
}

// ValidationMiddleware validates common request parameters
func ValidationMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			contentType := r.Header.Get("Content-Type")
			if i := strings.Index(contentType, ";"); i >= 0 {
				contentType = strings.TrimSpace(contentType[:i])
			}
			if contentType != "" && contentType != "application/json" && contentType != "application/x-www-form-urlencoded" {
				sendErrorResponse(w, "Unsupported Content-Type", "INVALID_CONTENT_TYPE", http.StatusUnsupportedMediaType)
				return
			}
		}

		const maxRequestSize = 1 << 20
		if r.ContentLength > maxRequestSize {
			sendErrorResponse(w, "Request too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

		next(w, r)
	}
}

// CORSMiddleware handles Cross-Origin Resource Sharing for the given origins.
// "*" allows every origin.
func CORSMiddleware(allowedOrigins []string) Middleware {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next(w, r)
		}
	}
}

// SecurityHeadersMiddleware adds security-related headers
func SecurityHeadersMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next(w, r)
	}
}

// RateLimitMiddleware allows requestsPerMinute requests per client in a sliding minute
func RateLimitMiddleware(requestsPerMinute int) Middleware {
	var mu sync.Mutex
	clients := make(map[string][]time.Time)

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)
			now := time.Now()

			mu.Lock()
			recent := clients[clientIP][:0]
			for _, t := range clients[clientIP] {
				if now.Sub(t) < time.Minute {
					recent = append(recent, t)
				}
			}
			limited := len(recent) >= requestsPerMinute
			if !limited {
				recent = append(recent, now)
			}
			clients[clientIP] = recent
			mu.Unlock()

			if limited {
				log.Printf("⚠️ 요청 한도 초과: %s", clientIP)
				sendErrorResponse(w, "Rate limit exceeded", "RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests)
				return
			}

			next(w, r)
		}
	}
}

// ErrorResponseWriter wraps http.ResponseWriter to remember the status code
type ErrorResponseWriter struct {
	http.ResponseWriter
	Request    *http.Request
	StatusCode int
}

func (w *ErrorResponseWriter) WriteHeader(statusCode int) {
	w.StatusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *ErrorResponseWriter) Write(data []byte) (int, error) {
	if w.StatusCode == 0 {
		w.StatusCode = http.StatusOK
	}
	return w.ResponseWriter.Write(data)
}

// Helper functions

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := presenters.CreateErrorResponse(
		&CustomError{Message: message, Code: code},
		code,
	)

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		log.Printf("❌ 에러 응답 인코딩 실패: %v", err)
	}
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// CustomError implements error interface for custom errors
type CustomError struct {
	Message string
	Code    string
	Status  int
}

func (e *CustomError) Error() string {
	return e.Message
}

// Predefined error types
var (
	ErrInvalidRequest   = &CustomError{Message: "Invalid request", Code: "INVALID_REQUEST", Status: http.StatusBadRequest}
	ErrInternalServer   = &CustomError{Message: "Internal server error", Code: "INTERNAL_ERROR", Status: http.StatusInternalServerError}
	ErrNotFound         = &CustomError{Message: "Resource not found", Code: "NOT_FOUND", Status: http.StatusNotFound}
	ErrMethodNotAllowed = &CustomError{Message: "Method not allowed", Code: "METHOD_NOT_ALLOWED", Status: http.StatusMethodNotAllowed}
	ErrConflict         = &CustomError{Message: "Operation already running", Code: "CONFLICT", Status: http.StatusConflict}
)

// SendJSONError sends a JSON error response with appropriate status code
func SendJSONError(w http.ResponseWriter, err error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	code := "UNKNOWN_ERROR"
	var customErr *CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
	}

	errorResp := presenters.CreateErrorResponse(err, code)
	if jsonErr := json.NewEncoder(w).Encode(errorResp); jsonErr != nil {
		log.Printf("❌ 에러 응답 인코딩 실패: %v", jsonErr)
	}
}

// SendJSONSuccess sends a JSON success response
func SendJSONSuccess(w http.ResponseWriter, data interface{}, message string) {
	SendJSON(w, http.StatusOK, presenters.CreateSuccessResponse(message, data))
}

// SendJSON writes v with the given status
func SendJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ 응답 인코딩 실패: %v", err)
	}
}

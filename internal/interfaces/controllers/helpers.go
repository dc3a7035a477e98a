package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/interfaces/middleware"
	"go-local-duplicates/internal/usecases"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	shortTimeout = 10 * time.Second
	longTimeout  = 30 * time.Second
)

// allowMethod writes 405 and returns false unless r uses one of methods
func allowMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, method := range methods {
		if r.Method == method {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	middleware.SendJSONError(w, middleware.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
	return false
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &middleware.CustomError{Message: "Invalid request body: " + err.Error(), Code: "INVALID_REQUEST", Status: http.StatusBadRequest}
	}
	return nil
}

// queryInt reads an integer query parameter, def when absent
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &middleware.CustomError{Message: fmt.Sprintf("Invalid %s: %q", name, raw), Code: "INVALID_REQUEST", Status: http.StatusBadRequest}
	}
	return n, nil
}

// requireQueryInt is queryInt for a mandatory parameter
func requireQueryInt(r *http.Request, name string) (int, error) {
	if r.URL.Query().Get(name) == "" {
		return 0, &middleware.CustomError{Message: name + " is required", Code: "INVALID_REQUEST", Status: http.StatusBadRequest}
	}
	return queryInt(r, name, 0)
}

// statusFor maps use case errors onto HTTP status codes
func statusFor(err error) int {
	var (
		customErr *middleware.CustomError
		fatalErr  *entities.FatalConfigError
	)
	switch {
	case errors.As(err, &customErr) && customErr.Status != 0:
		return customErr.Status
	case errors.As(err, &fatalErr), errors.Is(err, usecases.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, usecases.ErrNotFound), errors.Is(err, usecases.ErrOperationNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	middleware.SendJSONError(w, err, statusFor(err))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	middleware.SendJSON(w, http.StatusOK, v)
}

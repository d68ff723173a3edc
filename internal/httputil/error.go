package httputil

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/cupmaker/internal/bracket"
	"github.com/AdamBeresnev/cupmaker/internal/service"
	"github.com/AdamBeresnev/cupmaker/internal/store"
)

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	http.Error(w, msg, http.StatusNotFound)
}

// StatusFor maps domain and storage errors onto HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, bracket.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, bracket.ErrInvalidInput), errors.Is(err, bracket.ErrInvalidResult):
		return http.StatusBadRequest
	case errors.Is(err, bracket.ErrPreconditionFailed), errors.Is(err, store.ErrStaleTournament),
		errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// Error answers an API call with a JSON error body. Server side failures are
// logged in full and reported to the client without detail.
func Error(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(msg, "error", err, "method", r.Method, "path", r.URL.Path)
		WriteJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}

	slog.Warn(msg, "status", status, "error", err, "method", r.Method, "path", r.URL.Path)
	WriteJSON(w, status, map[string]string{"error": err.Error()})
}

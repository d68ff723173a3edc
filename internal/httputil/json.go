package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/cupmaker/internal/bracket"
)

const maxBodySize = 1 << 20

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// DecodeJSON reads a single JSON object into dst and rejects unknown fields.
// Failures wrap bracket.ErrInvalidInput so they come back as 400.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", bracket.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", bracket.ErrInvalidInput, err)
	}
	return nil
}

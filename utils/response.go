package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

type M map[string]interface{}

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, M{"message": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithErr maps a service error onto a status code. Errors that carry no
// status are logged and surface as 500; the raw text is only exposed when
// debug is set.
func RespondWithErr(w http.ResponseWriter, logger *zap.Logger, err error, debug bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		RespondWithError(w, he.Status, he.Message)
		return
	}
	logger.Error("request failed", zap.Error(err))
	body := M{"message": "Internal server error"}
	if debug {
		body["error"] = err.Error()
	}
	RespondWithJSON(w, http.StatusInternalServerError, body)
}

// DecodeJSON decodes a request body strictly into dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return BadRequestf("Invalid request body: %v", err)
	}
	return nil
}

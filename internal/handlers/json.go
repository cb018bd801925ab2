package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"arucolog/internal/logger"
)

var errMissingStream = errors.New("missing stream parameter")

func writeJSON(w http.ResponseWriter, data interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// streamIDParam reads the numeric ?stream= query parameter.
func streamIDParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("stream")
	if raw == "" {
		return 0, errMissingStream
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid stream parameter")
	}
	return id, nil
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

package handlers

import (
	"net/http"
	"time"

	"arucolog/internal/dto"
	"arucolog/internal/logger"
	"arucolog/internal/model"
	"arucolog/internal/repository"
)

// GetStreamsHandler lists processed streams, newest recording first.
// Optional filters: run, source, status, after (YYYY-MM-DD HH:MM:SS) and limit.
func GetStreamsHandler(streamRepo repository.StreamRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filters := &dto.StreamFilters{
			RunID:  q.Get("run"),
			Source: q.Get("source"),
			Status: q.Get("status"),
			Limit:  atoiDefault(q.Get("limit"), 0),
		}

		if after := q.Get("after"); after != "" {
			t, err := time.ParseInLocation(time.DateTime, after, time.Local)
			if err != nil {
				http.Error(w, "Invalid after parameter", http.StatusBadRequest)
				return
			}
			filters.StartAfter = t
		}

		streams, err := streamRepo.GetAll(filters)
		if err != nil {
			logger.Error("Failed to list streams: %v", err)
			http.Error(w, "Unable to list streams", http.StatusInternalServerError)
			return
		}
		if streams == nil {
			streams = []model.Stream{}
		}

		writeJSON(w, streams, logger)
	}
}

// DeleteStreamHandler removes a stream together with its records.
func DeleteStreamHandler(streamRepo repository.StreamRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := streamIDParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		stream, err := streamRepo.GetByID(id)
		if err != nil {
			logger.Error("Failed to load stream %d: %v", id, err)
			http.Error(w, "Unable to load stream", http.StatusInternalServerError)
			return
		}
		if stream == nil {
			http.NotFound(w, r)
			return
		}

		if err := streamRepo.Delete(id); err != nil {
			logger.Error("Failed to delete stream %d: %v", id, err)
			http.Error(w, "Unable to delete stream", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted stream %d (%s)", id, stream.SourcePath)
		w.WriteHeader(http.StatusNoContent)
	}
}

package handlers

import (
	"net/http"

	"arucolog/internal/logger"
	"arucolog/internal/model"
	"arucolog/internal/repository"
)

// GetRecordsHandler returns the per-second records of one stream in timestamp order.
func GetRecordsHandler(streamRepo repository.StreamRepository, recordRepo repository.RecordRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stream, ok := lookupStream(w, r, streamRepo, logger)
		if !ok {
			return
		}

		records, err := recordRepo.GetByStreamID(stream.ID)
		if err != nil {
			logger.Error("Failed to load records of stream %d: %v", stream.ID, err)
			http.Error(w, "Unable to load records", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []model.SecondRecord{}
		}

		writeJSON(w, records, logger)
	}
}

// lookupStream resolves ?stream= and writes the error response when it fails.
func lookupStream(w http.ResponseWriter, r *http.Request, streamRepo repository.StreamRepository, logger *logger.Logger) (*model.Stream, bool) {
	id, err := streamIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	stream, err := streamRepo.GetByID(id)
	if err != nil {
		logger.Error("Failed to load stream %d: %v", id, err)
		http.Error(w, "Unable to load stream", http.StatusInternalServerError)
		return nil, false
	}
	if stream == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return stream, true
}

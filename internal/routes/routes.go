package routes

import (
	"net/http"

	"arucolog/internal/config"
	"arucolog/internal/handlers"
	"arucolog/internal/logger"
	"arucolog/internal/middleware"
	"arucolog/internal/repository"
	"arucolog/internal/service/websocket"
)

// Dependencies are the services the HTTP API is built on. Hub may be nil, in
// which case /api/live is not served.
type Dependencies struct {
	Config  *config.Config
	Logger  *logger.Logger
	Streams repository.StreamRepository
	Records repository.RecordRepository
	Hub     *websocket.HubService
}

// SetupRoutes registers the API and log endpoints and wraps the mux with the
// token middleware.
func SetupRoutes(deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	if deps.Streams != nil && deps.Records != nil {
		mux.HandleFunc("GET /api/streams", handlers.GetStreamsHandler(deps.Streams, deps.Logger))
		mux.HandleFunc("DELETE /api/streams", handlers.DeleteStreamHandler(deps.Streams, deps.Logger))
		mux.HandleFunc("GET /api/streams/chart", handlers.StreamChartHandler(deps.Streams, deps.Records, deps.Logger))
		mux.HandleFunc("GET /api/records", handlers.GetRecordsHandler(deps.Streams, deps.Records, deps.Logger))
	}

	if deps.Hub != nil {
		mux.HandleFunc("GET /api/live", handlers.LiveWebsocketHandler(deps.Hub, deps.Logger))
	}

	// Log endpoints
	for _, l := range []struct{ path, file string }{
		{"/logs/info", logger.InfoFile},
		{"/logs/warning", logger.WarningFile},
		{"/logs/error", logger.ErrorFile},
	} {
		mux.HandleFunc("GET "+l.path, handlers.ShowLogsHandler(deps.Logger, l.file))
		mux.HandleFunc("POST "+l.path+"/clear", handlers.ClearLogsHandler(deps.Logger, l.file))
	}

	return middleware.AuthMiddleware(deps.Config.APIToken, mux)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"arucolog/internal/logger"
	ws "arucolog/internal/service/websocket"
)

const viewerWriteWait = 5 * time.Second

// viewerReadWait is how long a viewer may stay silent, pongs included.
var viewerReadWait = 60 * time.Second

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveWebsocketHandler registers the caller as a live feed viewer. The viewer
// is pinged well within viewerReadWait; messages it sends are discarded.
func LiveWebsocketHandler(hub *ws.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		readWait := viewerReadWait
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(readWait))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(readWait))
			return nil
		})
		defer connection.Close()

		hub.Register(connection)
		defer hub.Unregister(connection)

		done := make(chan struct{})
		defer close(done)
		go pingViewer(connection, readWait*9/10, done)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				break
			}
			connection.SetReadDeadline(time.Now().Add(readWait))
		}
	}
}

// pingViewer sends a ping every period until done is closed or a write fails.
// WriteControl may run concurrently with the hub's writes.
func pingViewer(connection *websocket.Conn, period time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := connection.WriteControl(websocket.PingMessage, nil, time.Now().Add(viewerWriteWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

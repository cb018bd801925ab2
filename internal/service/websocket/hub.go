package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"arucolog/internal/aggregator"
	"arucolog/internal/dto"
	"arucolog/internal/logger"
	"arucolog/internal/service/pipeline"
)

const (
	broadcastBuffer = 256
	writeWait       = 5 * time.Second
)

// HubService fans live messages out to connected viewers. Broadcasting never
// blocks the caller: when the queue is full the message is dropped.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	quit       chan struct{}
	stopOnce   sync.Once
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		quit:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves register, unregister and broadcast requests until Stop.
func (h *HubService) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", count)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()

		case <-h.quit:
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Stop ends Run and disconnects every viewer.
func (h *HubService) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Broadcast queues message for every viewer and reports whether it was queued.
func (h *HubService) Broadcast(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		h.logger.Warning("Live feed queue full - dropping message")
		return false
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Open implements pipeline.Sink.
func (h *HubService) Open(stream pipeline.Stream) error {
	return h.send(dto.LiveMessage{
		Type:      dto.LiveStreamStarted,
		RunID:     stream.RunID,
		Source:    stream.Path,
		Timestamp: stream.Start.Format(time.DateTime),
	})
}

// Write implements pipeline.Sink.
func (h *HubService) Write(stream pipeline.Stream, record aggregator.SecondRecord) error {
	return h.send(dto.LiveMessage{
		Type:      dto.LiveRecord,
		RunID:     stream.RunID,
		Source:    stream.Path,
		Timestamp: record.Timestamp.Format(time.DateTime),
		Kind:      record.Label.Kind.String(),
		Label:     record.Label.String(),
		Names:     record.Label.Texts(),
		MarkerIDs: record.Label.IDs(),
	})
}

// Close implements pipeline.Sink.
func (h *HubService) Close(stream pipeline.Stream, outcome pipeline.Outcome) error {
	return h.send(dto.LiveMessage{
		Type:    dto.LiveStreamEnded,
		RunID:   stream.RunID,
		Source:  stream.Path,
		Status:  outcome.Status,
		Records: outcome.Records,
	})
}

func (h *HubService) send(msg dto.LiveMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.Broadcast(payload)
	return nil
}

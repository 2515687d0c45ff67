package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/skncr-ai/scanner/internal/storage"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleEvents streams snapshots of one pipeline over a websocket, starting with the current one
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request, entry *storage.Entry) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "pipeline_id", entry.ID, "err", err)
		return
	}
	defer conn.Close()

	events := make(chan any, 32)
	unsubscribe := entry.Pipeline.Watch(func(snapshot any) {
		select {
		case events <- snapshot:
		default:
			slog.Warn("Dropping snapshot for slow event client", "pipeline_id", entry.ID)
		}
	})
	defer unsubscribe()

	// the read loop only exists to process pongs and notice the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Info("Event stream opened", "pipeline_id", entry.ID)
	defer slog.Info("Event stream closed", "pipeline_id", entry.ID)

	if err := h.writeEvent(conn, entry.Pipeline.View()); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snapshot := <-events:
			if err := h.writeEvent(conn, snapshot); err != nil {
				slog.Debug("Event write failed", "pipeline_id", entry.ID, "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *Handler) writeEvent(conn *websocket.Conn, snapshot any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(snapshot)
}

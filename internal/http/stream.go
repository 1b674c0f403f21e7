package http

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/FindNest-Estate/NestFind-sub001/internal/audit"
)

// StreamHandler pushes audit entries for a transaction over a websocket as
// they are appended. Reporting and dispute tooling use this instead of
// polling the audit list; the durable record stays in the store.
type StreamHandler struct {
	Feed     *audit.Feed
	Upgrader websocket.Upgrader
}

func NewStreamHandler(feed *audit.Feed) *StreamHandler {
	return &StreamHandler{
		Feed: feed,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) StreamAudit(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "txId")
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := h.Feed.Subscribe(txID)
	defer h.Feed.Unsubscribe(txID, sub)

	// Drain client frames so close messages are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case entry, ok := <-sub:
			if !ok {
				return
			}
			if err := conn.WriteJSON(toAuditResponse(entry)); err != nil {
				log.Printf("audit stream write failed (tx=%s): %v", txID, err)
				return
			}
		}
	}
}

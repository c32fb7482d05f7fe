package sla

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Feed broadcasts run reports to connected WebSocket subscribers so the
// management dashboard can show live results without polling.
type Feed struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{conns: make(map[*websocket.Conn]bool)}
}

// Publish sends the report to every subscriber, dropping broken connections.
func (f *Feed) Publish(report RunReport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.conns {
		if err := conn.WriteJSON(report); err != nil {
			log.Printf("sla: feed write: %v", err)
			conn.Close()
			delete(f.conns, conn)
		}
	}
}

// handleWebSocket upgrades the connection and keeps it registered until
// the client disconnects. Inbound messages are discarded.
func (f *Feed) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("sla: feed upgrade: %v", err)
		return
	}

	f.mu.Lock()
	f.conns[conn] = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.conns, conn)
		f.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("sla: feed read: %v", err)
			}
			return
		}
	}
}

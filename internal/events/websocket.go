package events

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// WebSocketHandler offers the same subscriber feed as TCPServer to
// clients that can only open an HTTP connection, such as browsers. The
// "types" query parameter is a comma-separated list of event types to
// receive; omitted means every type.
type WebSocketHandler struct {
	dispatcher *Dispatcher
}

func NewWebSocketHandler(d *Dispatcher) *WebSocketHandler {
	return &WebSocketHandler{dispatcher: d}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id, ch := h.dispatcher.Subscribe(parseTypes(r.URL.Query().Get("types")))
	defer h.dispatcher.Unsubscribe(id)

	for e := range ch {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(e); err != nil {
			return
		}
	}
}

func parseTypes(raw string) []Type {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	types := make([]Type, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			types = append(types, Type(p))
		}
	}
	return types
}

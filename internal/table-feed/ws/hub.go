package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/radieske/baccarat-platform-poc/pkg/contracts/events"
)

// Hub gerencia as conexões WebSocket da mesa e o broadcast das
// atualizações de rodada (fase, contagem regressiva, resultado).
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	conns    map[*websocket.Conn]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		conns:    make(map[*websocket.Conn]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// A conexão entra no conjunto de broadcast até desconectar; pings são
// respondidos com pong
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if msg.Type == "ping" {
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
		}
	}

	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// Broadcast envia uma atualização de rodada para todos os clientes conectados
func (h *Hub) Broadcast(update events.RoundUpdate) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	b, _ := json.Marshal(update)
	for _, c := range conns {
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

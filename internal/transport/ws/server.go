package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"couriergrid.ai/internal/protocol"
)

// Hub fans simulation frames out to websocket observers. Observers are
// read-only: they complete a HELLO/WELCOME handshake and then receive
// every broadcast frame. A slow observer drops frames, never the sim.
type Hub struct {
	log *log.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	welcome protocol.WelcomeMsg
	subs    map[chan []byte]struct{}
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		subs: make(map[chan []byte]struct{}),
	}
}

// SetWelcome installs the WELCOME sent to each observer on handshake.
func (h *Hub) SetWelcome(w protocol.WelcomeMsg) {
	h.mu.Lock()
	h.welcome = w
	h.mu.Unlock()
}

// Broadcast marshals v once and queues it to every observer.
func (h *Hub) Broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	h.mu.Lock()
	for out := range h.subs {
		select {
		case out <- b:
		default:
		}
	}
	h.mu.Unlock()
}

// Observers reports the current subscriber count.
func (h *Hub) Observers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if !h.handshake(conn) {
			return
		}

		out := make(chan []byte, 64)
		h.mu.Lock()
		h.subs[out] = struct{}{}
		welcome := h.welcome
		h.mu.Unlock()
		defer func() {
			h.mu.Lock()
			delete(h.subs, out)
			h.mu.Unlock()
		}()

		wb, err := json.Marshal(welcome)
		if err != nil {
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, wb); err != nil {
			return
		}

		done := make(chan struct{})

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-done:
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				}
			}
		}()

		// Reader loop: observers send nothing after HELLO, the read
		// only notices disconnects and keeps the deadline fresh.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				close(done)
				return
			}
		}
	}
}

func (h *Hub) handshake(conn *websocket.Conn) bool {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		h.reject(conn, protocol.ErrProtoBadRequest, "expected HELLO")
		return false
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		h.reject(conn, protocol.ErrProtoBadRequest, "malformed HELLO")
		return false
	}
	if hello.ProtocolVersion != protocol.Version {
		h.reject(conn, protocol.ErrProtoBadRequest, "bad protocol_version")
		return false
	}
	if h.log != nil {
		name := hello.ObserverName
		if name == "" {
			name = "observer"
		}
		h.log.Printf("observer connected: %s", name)
	}
	return true
}

// reject sends an ERROR frame and closes the connection.
func (h *Hub) reject(conn *websocket.Conn, code, reason string) {
	b, err := json.Marshal(protocol.ErrorMsg{Type: protocol.TypeError, Code: code, Message: reason})
	if err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = conn.WriteMessage(websocket.TextMessage, b)
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second))
}

package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/dovenav/dove/config"
	"github.com/dovenav/dove/pkg/backdrop"
	"github.com/dovenav/dove/util/log"
)

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":  "running",
		"version": config.AppVersion,
		"clients": s.connected.Value(),
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleMetrics delegates to the mounted metrics handler, if any.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metricsHandler == nil {
		http.NotFound(w, r)
		return
	}
	s.metricsHandler.ServeHTTP(w, r)
}

// handleLayer serves staged image bytes by ID. IDs are unique per image so
// responses are immutable and cacheable.
func (s *Server) handleLayer(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/layer/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	s.stateMu.Lock()
	img, ok := s.content[id]
	s.stateMu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", img.contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := w.Write(img.data); err != nil {
		log.Debugf("Layer write aborted: %v", err)
	}
}

// handleWebSocket upgrades the connection and pumps client messages until
// the peer goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()
	s.connected.Increment()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		s.connected.Decrement()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.handleClientMessage(conn, data)
	}
}

// handleClientMessage dispatches one inbound frame. Malformed or unknown
// messages are logged and dropped; the connection stays up.
func (s *Server) handleClientMessage(conn *websocket.Conn, data []byte) {
	var msg inboundMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Malformed client message: %v", err)
		return
	}

	switch msg.Type {
	case msgTypeHello:
		s.handleHello(conn, msg)
	case msgTypeFadeDone:
		s.confirmFade(msg.Seq)
	case msgTypeNext:
		if s.control != nil {
			s.control.RequestSwap()
		}
	case msgTypeConfigure:
		s.handleConfigure(msg)
	case msgTypePause:
		if s.control != nil && msg.Paused != nil {
			s.control.SetPaused(*msg.Paused)
		}
	default:
		log.Debugf("Unknown client message type %q", msg.Type)
	}
}

// handleHello applies the client's environment and replays the current
// backdrop state so the page can paint without waiting for the next swap.
func (s *Server) handleHello(conn *websocket.Conn, msg inboundMsg) {
	if s.control != nil {
		if vp := msg.Viewport; vp != nil {
			s.control.SetViewport(vp.Width, vp.Height)
		}
		if msg.DeviceClass != "" {
			s.control.SetDeviceClass(backdrop.ParseDeviceClass(msg.DeviceClass))
		}
	}
	s.sendTo(conn, s.stateSnapshot())
}

func (s *Server) handleConfigure(msg inboundMsg) {
	if s.control == nil {
		return
	}
	if msg.IntervalSeconds != nil {
		applied := s.control.SetInterval(*msg.IntervalSeconds)
		log.Debugf("Client set rotation interval to %ds", applied)
	}
	if msg.BlurPX != nil {
		applied := s.control.SetBlur(*msg.BlurPX)
		log.Debugf("Client set blur to %dpx", applied)
	}
}

// Package api bridges the backdrop engine to browser clients. It serves the
// websocket control channel, publishes staged layer images over HTTP, and
// exposes health and metrics endpoints. The two layer surfaces it hands out
// are the engine's front and back buffers; fades run in the client's
// compositor and are confirmed back over the socket.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dovenav/dove/pkg/backdrop"
	"github.com/dovenav/dove/util"
	"github.com/dovenav/dove/util/log"
)

const (
	layerCount = 2

	// Fade confirmations older than this many sequence numbers are
	// forgotten; the engine's own timeout covers the lost ones.
	maxPendingFades = 8
)

// Control is the engine surface the client protocol drives. Setters that
// clamp report the value actually applied.
type Control interface {
	RequestSwap()
	SetInterval(seconds int) int
	SetBlur(pixels int) int
	SetViewport(width, height int)
	SetDeviceClass(device backdrop.DeviceClass)
	SetPaused(paused bool)
	IsPaused() bool
}

type layerInfo struct {
	imageID string
	url     string
	source  string
	visible bool
}

type imageContent struct {
	data        []byte
	contentType string
}

// Server is the HTTP and websocket endpoint for backdrop clients.
type Server struct {
	addr       string
	mux        *http.ServeMux
	httpServer *http.Server
	listener   net.Listener
	upgrader   websocket.Upgrader

	control        Control
	metricsHandler http.Handler

	// WebSocket management
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	connected *util.SafeCounter

	// Layer and theme state, kept for replay to late joiners
	stateMu      sync.Mutex
	layers       [layerCount]layerInfo
	content      map[string]imageContent
	pending      map[uint64]chan struct{}
	seq          uint64
	tone         backdrop.ToneClass
	blurPX       int
	fadeDuration time.Duration
}

// closedChan is handed to the engine when no client is around to confirm a
// fade, so swaps complete without waiting out the fade timeout.
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// NewServer creates a backdrop API server that will listen on addr once
// started.
func NewServer(addr string) *Server {
	s := &Server{
		addr: addr,
		mux:  http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:      make(map[*websocket.Conn]bool),
		connected:    util.NewSafeCounter(),
		content:      make(map[string]imageContent),
		pending:      make(map[uint64]chan struct{}),
		fadeDuration: backdrop.DefaultTuningConfig().FadeDuration(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/healthz", s.enableCORS(s.handleHealth))
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/layer/", s.enableCORS(s.handleLayer))
	s.mux.HandleFunc("/metrics", s.handleMetrics)
}

// SetControl wires the engine in. Must be called before Start; client
// commands arriving without a control are dropped.
func (s *Server) SetControl(c Control) {
	s.control = c
}

// SetMetricsHandler mounts a metrics endpoint, typically promhttp over the
// registry the engine records into.
func (s *Server) SetMetricsHandler(h http.Handler) {
	s.metricsHandler = h
}

// SetFadeDuration overrides the fade duration advertised to clients.
func (s *Server) SetFadeDuration(d time.Duration) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.fadeDuration = d
}

// Layers returns the front and back surfaces for the engine's double
// buffer. Layer 0 starts visible.
func (s *Server) Layers() (front, back backdrop.Surface) {
	return &LayerSurface{id: 0, server: s}, &LayerSurface{id: 1, server: s}
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start binds the listen address and serves in the background. The bind
// happens synchronously so port conflicts surface as a startup error.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind API server on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: s.mux}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("API server error: %v", err)
		}
	}()

	log.Printf("API server listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, useful when starting on port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop closes all websocket clients and shuts the HTTP server down.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// stageImage stores the image bytes for one layer and announces the new
// content URL. The layer's previous image is evicted so at most one staged
// image per layer is retained.
func (s *Server) stageImage(ctx context.Context, id int, res *backdrop.LoadResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id < 0 || id >= layerCount {
		return fmt.Errorf("no such backdrop layer: %d", id)
	}
	if res == nil || len(res.Bytes) == 0 {
		return fmt.Errorf("refusing to stage empty image on layer %d", id)
	}

	s.stateMu.Lock()
	if old := s.layers[id].imageID; old != "" {
		delete(s.content, old)
	}
	s.content[res.ID] = imageContent{data: res.Bytes, contentType: res.ContentType}
	s.layers[id] = layerInfo{
		imageID: res.ID,
		url:     "/layer/" + res.ID,
		source:  res.SourceURL,
		visible: s.layers[id].visible,
	}
	msg := layerImageMsg{
		Type:   msgTypeLayerImage,
		Layer:  id,
		URL:    s.layers[id].url,
		Source: res.SourceURL,
	}
	s.stateMu.Unlock()

	s.broadcast(msg)
	return nil
}

// fadeLayer broadcasts a visibility change and returns a channel closed once
// a client confirms the fade sequence. Without clients the channel comes
// back already closed.
func (s *Server) fadeLayer(id int, visible bool) <-chan struct{} {
	if id < 0 || id >= layerCount {
		return closedChan
	}

	s.clientsMu.Lock()
	connected := len(s.clients) > 0
	s.clientsMu.Unlock()

	s.stateMu.Lock()
	s.seq++
	seq := s.seq
	s.layers[id].visible = visible
	var done chan struct{}
	if connected {
		done = make(chan struct{})
		s.pending[seq] = done
		for old := range s.pending {
			if old+maxPendingFades <= seq {
				delete(s.pending, old)
			}
		}
	}
	msg := layerVisibleMsg{
		Type:       msgTypeLayerVisible,
		Layer:      id,
		Visible:    visible,
		Seq:        seq,
		DurationMS: int(s.fadeDuration / time.Millisecond),
	}
	s.stateMu.Unlock()

	s.broadcast(msg)

	if !connected {
		return closedChan
	}
	return done
}

// confirmFade resolves a pending fade sequence. Duplicate or pruned
// confirmations are ignored.
func (s *Server) confirmFade(seq uint64) {
	s.stateMu.Lock()
	done, ok := s.pending[seq]
	if ok {
		delete(s.pending, seq)
	}
	s.stateMu.Unlock()

	if ok {
		close(done)
	}
}

// ApplyTone implements backdrop.ThemeSink. The tone rides to clients on the
// theme message together with the current blur.
func (s *Server) ApplyTone(tone backdrop.ToneClass) {
	s.stateMu.Lock()
	s.tone = tone
	msg := s.themeMsgLocked()
	s.stateMu.Unlock()

	s.broadcast(msg)
}

// ApplyBlur implements backdrop.ThemeSink.
func (s *Server) ApplyBlur(pixels int) {
	s.stateMu.Lock()
	s.blurPX = pixels
	msg := s.themeMsgLocked()
	s.stateMu.Unlock()

	s.broadcast(msg)
}

func (s *Server) themeMsgLocked() themeMsg {
	return themeMsg{
		Type:   msgTypeTheme,
		Tone:   s.tone.String(),
		BlurPX: s.blurPX,
	}
}

// stateSnapshot assembles the replay message for a fresh connection.
func (s *Server) stateSnapshot() stateMsg {
	paused := false
	if s.control != nil {
		paused = s.control.IsPaused()
	}

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	layers := make([]layerState, 0, layerCount)
	for id, layer := range s.layers {
		layers = append(layers, layerState{
			Layer:   id,
			URL:     layer.url,
			Source:  layer.source,
			Visible: layer.visible,
		})
	}
	return stateMsg{
		Type:           msgTypeState,
		Layers:         layers,
		Tone:           s.tone.String(),
		BlurPX:         s.blurPX,
		Paused:         paused,
		FadeDurationMS: int(s.fadeDuration / time.Millisecond),
	}
}

// broadcast sends one message to every connected client, dropping clients
// whose write fails.
func (s *Server) broadcast(msg any) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for client := range s.clients {
		if err := client.WriteJSON(msg); err != nil {
			log.Printf("Failed to send to client: %v", err)
			client.Close()
			delete(s.clients, client)
		}
	}
}

// sendTo delivers one message to a single client. Writes share the client
// lock with broadcast so frames never interleave.
func (s *Server) sendTo(conn *websocket.Conn, msg any) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if !s.clients[conn] {
		return
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Failed to send to client: %v", err)
		conn.Close()
		delete(s.clients, conn)
	}
}

// enableCORS adds CORS headers to the handler.
func (s *Server) enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Allow pages served from another local port to reach us
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

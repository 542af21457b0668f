// Package web serves the game to browsers: an embedded single-page client
// and one websocket per player, each driving its own engine in real time.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/piano-fire/internal/config"
	"github.com/vovakirdan/piano-fire/internal/storage"
)

//go:embed static/index.html
var static embed.FS

// Modes served over the websocket. Rush speeds up with the score.
const (
	ModeClassic = "classic"
	ModeRush    = "rush"
)

const maxPlayerName = 32

// ServerConfig holds configuration for the web server.
type ServerConfig struct {
	// Address is the host:port to listen on (e.g., ":8080").
	Address string

	// ConfigPath is an optional tiles.yaml; empty uses the normal search order.
	ConfigPath string

	// Difficulty is applied on top of the loaded config.
	Difficulty config.DifficultyPreset

	// Tiles replaces config loading when set.
	Tiles *config.TilesConfig
}

// DefaultServerConfig returns a config with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address: ":8080",
	}
}

// Server is the HTTP and websocket frontend.
type Server struct {
	config     ServerConfig
	tiles      config.TilesConfig
	store      *storage.Store
	logger     *log.Logger
	upgrader   websocket.Upgrader
	httpServer *http.Server

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewServer creates a web server. store may be nil, in which case scores are
// not recorded.
func NewServer(cfg ServerConfig, store *storage.Store, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "pianofire-web",
		})
	}

	var tilesCfg config.TilesConfig
	if cfg.Tiles != nil {
		tilesCfg = *cfg.Tiles
	} else {
		loaded, err := config.LoadTiles(cfg.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("cannot load tile config: %w", err)
		}
		tilesCfg = loaded
	}
	config.ApplyTilesPreset(&tilesCfg, cfg.Difficulty)
	if err := tilesCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tile config: %w", err)
	}

	s := &Server{
		config: cfg,
		tiles:  tilesCfg,
		store:  store,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*Client]struct{}),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP routes: the client page, the score API and the
// websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/scores", s.handleScores)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "client unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	//nolint:errcheck // Client went away
	w.Write(page)
}

// handleScores returns the best rounds of a mode as JSON.
func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	mode, ok := parseMode(r.URL.Query().Get("mode"))
	if !ok {
		http.Error(w, "unknown mode", http.StatusBadRequest)
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			http.Error(w, "limit must be between 1 and 100", http.StatusBadRequest)
			return
		}
		limit = n
	}

	scores := []storage.ScoreEntry{}
	if s.store != nil {
		top, err := s.store.TopScores(mode, limit)
		if err != nil {
			s.logger.Error("failed to load scores", "mode", mode, "error", err)
			http.Error(w, "scores unavailable", http.StatusInternalServerError)
			return
		}
		scores = append(scores, top...)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(scores); err != nil {
		s.logger.Warn("failed to write scores", "error", err)
	}
}

// handleWS upgrades the request and runs the player's session until the
// connection drops.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, ok := parseMode(q.Get("mode"))
	if !ok {
		http.Error(w, "unknown mode", http.StatusBadRequest)
		return
	}
	player := playerName(q.Get("player"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := newClient(s, conn, mode, player)
	s.register(c)
	go c.writePump()
	c.greet()
	c.readPump()
}

func (s *Server) register(c *Client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	s.logger.Info("player connected", "player", c.player, "mode", c.mode, "clients", n)
}

func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	delete(s.clients, c)
	n := len(s.clients)
	s.mu.Unlock()
	s.logger.Info("player disconnected", "player", c.player, "clients", n)
}

// parseMode maps an empty mode to classic.
func parseMode(mode string) (string, bool) {
	switch mode {
	case "", ModeClassic:
		return ModeClassic, true
	case ModeRush:
		return ModeRush, true
	}
	return "", false
}

func playerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.AnonymousPlayer
	}
	if r := []rune(name); len(r) > maxPlayerName {
		name = string(r[:maxPlayerName])
	}
	return name
}

// ListenAndServe starts the HTTP server and blocks until SIGINT or SIGTERM.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting web server", "address", s.config.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-done:
	case err := <-errCh:
		s.logger.Error("server error", "error", err)
		return err
	}

	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown stops accepting requests and drops every open websocket.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)

	// Hijacked connections are not tracked by http.Server
	s.mu.Lock()
	for c := range s.clients {
		//nolint:errcheck // Read pump cleans up
		c.conn.Close()
	}
	s.mu.Unlock()
	return err
}

// Addr returns the server's listen address string.
func (s *Server) Addr() string {
	return s.config.Address
}

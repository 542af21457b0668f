package web

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/piano-fire/internal/config"
	"github.com/vovakirdan/piano-fire/internal/tiles"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
	// Outgoing messages buffered per client.
	sendBuffer = 64
)

// clientMessage is a command from the browser.
type clientMessage struct {
	Type   string       `json:"type"` // "start", "tap", "lane" or "mute"
	TileID tiles.TileID `json:"tile_id"`
	Column int          `json:"column"`
}

// fieldInfo tells the browser how to place tiles.
type fieldInfo struct {
	Columns       int     `json:"columns"`
	SpawnPosition float64 `json:"spawn_position"`
	HitWindow     float64 `json:"hit_window"`
	TileHeight    float64 `json:"tile_height"`
}

type helloMessage struct {
	Type      string      `json:"type"`
	Mode      string      `json:"mode"`
	Player    string      `json:"player"`
	HighScore int         `json:"high_score"`
	Field     fieldInfo   `json:"field"`
	State     tiles.State `json:"state"`
}

type stateMessage struct {
	Type  string      `json:"type"`
	State tiles.State `json:"state"`
	Muted bool        `json:"muted"`
}

type audioMessage struct {
	Type string `json:"type"`
	Play bool   `json:"play"`
}

type savedMessage struct {
	Type      string `json:"type"`
	Score     int    `json:"score"`
	HighScore int    `json:"high_score"`
}

// Client is one browser connection with its own engine.
type Client struct {
	server *Server
	conn   *websocket.Conn
	send   chan []byte
	engine *tiles.Engine
	mode   string
	player string

	mu          sync.Mutex
	lastVersion uint64
	saved       bool // Whether the current round's score has been handled
	closed      bool
}

func newClient(s *Server, conn *websocket.Conn, mode, player string) *Client {
	c := &Client{
		server: s,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		mode:   mode,
		player: player,
	}

	opts := []tiles.Option{
		tiles.WithRand(rand.New(rand.NewSource(time.Now().UnixNano()))),
		tiles.WithAudio(browserAudio{c}),
		tiles.WithLogger(s.logger.With("player", player)),
		tiles.WithOnChange(c.onChange),
	}
	if mode == ModeRush {
		difficulty := config.NewDifficultyManager(s.tiles.Difficulty)
		opts = append(opts, tiles.WithPace(difficulty.Pace(s.tiles.Field.FallStep)))
	}
	c.engine = tiles.New(s.tiles.Engine(), opts...)
	return c
}

// greet sends the field geometry and the idle state.
func (c *Client) greet() {
	cfg := c.engine.Config()
	hello := helloMessage{
		Type:   "hello",
		Mode:   c.mode,
		Player: c.player,
		Field: fieldInfo{
			Columns:       tiles.Columns,
			SpawnPosition: cfg.Field.SpawnPosition,
			HitWindow:     cfg.Field.HitWindow,
			TileHeight:    cfg.Field.TileHeight,
		},
		State: c.engine.Snapshot(),
	}
	if c.server.store != nil {
		if high, err := c.server.store.HighScore(c.mode); err == nil {
			hello.HighScore = high
		}
	}
	c.queue(hello)
}

// readPump applies browser commands until the connection closes.
func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	//nolint:errcheck // Deadline errors surface on the next read
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Warn("websocket read failed", "player", c.player, "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.server.logger.Warn("malformed client message", "player", c.player, "error", err)
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg clientMessage) {
	switch msg.Type {
	case "start":
		c.engine.Start()
	case "tap":
		c.engine.Tap(msg.TileID)
	case "lane":
		c.engine.TapLane(msg.Column)
	case "mute":
		c.engine.ToggleMute()
	default:
		c.server.logger.Warn("unknown client message", "player", c.player, "type", msg.Type)
	}
}

// writePump sends queued messages and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		//nolint:errcheck // Closing a dead connection
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			//nolint:errcheck // Write fails below if the deadline is unusable
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				//nolint:errcheck // Peer may already be gone
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			//nolint:errcheck // Write fails below if the deadline is unusable
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// onChange forwards engine snapshots, dropping ones older than the last sent,
// and records the score once per finished round.
func (c *Client) onChange(s tiles.State) {
	muted := c.engine.Muted()

	c.mu.Lock()
	if s.Version <= c.lastVersion {
		c.mu.Unlock()
		return
	}
	c.lastVersion = s.Version

	if s.Playing {
		c.saved = false
	}
	save := s.GameOver && !c.saved
	if save {
		c.saved = true
	}

	if data, err := json.Marshal(stateMessage{Type: "state", State: s, Muted: muted}); err == nil {
		c.enqueueLocked(data)
	}
	c.mu.Unlock()

	if save {
		c.saveScore(s.Score)
	}
}

func (c *Client) saveScore(score int) {
	store := c.server.store
	if store == nil || score <= 0 {
		return
	}
	if _, err := store.SaveScore(c.mode, c.player, score); err != nil {
		c.server.logger.Error("failed to save score", "player", c.player, "score", score, "error", err)
		return
	}
	c.server.logger.Info("round saved", "player", c.player, "mode", c.mode, "score", score)

	high, err := store.HighScore(c.mode)
	if err != nil {
		high = score
	}
	c.queue(savedMessage{Type: "saved", Score: score, HighScore: high})
}

// queue marshals v and hands it to the write pump.
func (c *Client) queue(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.server.logger.Error("failed to encode message", "error", err)
		return
	}
	c.mu.Lock()
	c.enqueueLocked(data)
	c.mu.Unlock()
}

// enqueueLocked never blocks: the engine may be holding its lock.
func (c *Client) enqueueLocked(data []byte) {
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.server.logger.Warn("dropping message for slow client", "player", c.player)
	}
}

func (c *Client) close() {
	c.engine.Close()
	c.server.unregister(c)

	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

// browserAudio forwards music commands to the page, which plays the melody
// itself. The browser may refuse to start audio; play continues silently.
type browserAudio struct {
	c *Client
}

func (a browserAudio) Play() error {
	a.c.queue(audioMessage{Type: "audio", Play: true})
	return nil
}

func (a browserAudio) Pause() {
	a.c.queue(audioMessage{Type: "audio", Play: false})
}

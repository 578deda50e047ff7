/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Seednode/doodle/games/doodle"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
	sendBuffer     = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	id      doodle.ConnID
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

type inbound struct {
	client *Client
	event  doodle.Event
	err    error
}

// Hub owns the game. Every call into it happens on the run goroutine.
type Hub struct {
	cfg  *Config
	log  zerolog.Logger
	game *doodle.Game

	clients map[doodle.ConnID]*Client
	slow    []*Client

	register chan *Client
	unreg    chan *Client
	events   chan inbound
	deferred chan func(time.Time)
	done     <-chan struct{}
}

func newHub(ctx context.Context, cfg *Config, bank *doodle.Bank, logger zerolog.Logger) (*Hub, error) {
	h := &Hub{
		cfg:      cfg,
		log:      logger,
		clients:  make(map[doodle.ConnID]*Client),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		events:   make(chan inbound),
		deferred: make(chan func(time.Time)),
		done:     ctx.Done(),
	}

	game, err := doodle.New(cfg.settings(), bank, h, h,
		doodle.WithLogger(logger.With().Str("area", "GAMES").Logger()),
	)
	if err != nil {
		return nil, err
	}
	h.game = game

	return h, nil
}

func (h *Hub) run() {
	ticks := time.NewTicker(h.cfg.tickRate)
	defer ticks.Stop()

	presence := time.NewTicker(h.cfg.presenceRate)
	defer presence.Stop()

	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case c := <-h.register:
			h.clients[c.id] = c
			h.log.Debug().Msgf("GAMES: Connection %s opened (%d open)", c.id, len(h.clients))

		case c := <-h.unreg:
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.send)
			}
			h.game.Disconnect(c.id)
			h.log.Debug().Msgf("GAMES: Connection %s closed (%d open)", c.id, len(h.clients))

		case in := <-h.events:
			if _, ok := h.clients[in.client.id]; !ok {
				break
			}
			if in.err != nil {
				h.game.Reject(in.client.id, in.err)
			} else {
				h.game.Handle(in.client.id, in.event, time.Now())
			}

		case fn := <-h.deferred:
			fn(time.Now())

		case now := <-ticks.C:
			h.game.Tick(now)

		case now := <-presence.C:
			h.game.PresenceTick(now)
		}

		h.dropSlow()
	}
}

// Send implements doodle.Sender.
func (h *Hub) Send(to doodle.ConnID, msg doodle.Message) {
	c, ok := h.clients[to]
	if !ok {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Str("type", msg.Type).Msg("GAMES: Unable to encode message")
		return
	}

	h.enqueue(c, data)
}

// Broadcast implements doodle.Sender.
func (h *Hub) Broadcast(msg doodle.Message, except doodle.ConnID) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Str("type", msg.Type).Msg("GAMES: Unable to encode message")
		return
	}

	for id, c := range h.clients {
		if id == except {
			continue
		}
		h.enqueue(c, data)
	}
}

func (h *Hub) enqueue(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.slow = append(h.slow, c)
	}
}

// dropSlow disconnects clients whose send buffer filled up. The read pump
// notices the closed socket and unregisters them.
func (h *Hub) dropSlow() {
	for _, c := range h.slow {
		if _, ok := h.clients[c.id]; !ok {
			continue
		}
		delete(h.clients, c.id)
		close(c.send)
		h.log.Warn().Msgf("GAMES: Dropped slow connection %s", c.id)
	}
	h.slow = h.slow[:0]
}

// After implements doodle.Scheduler.
func (h *Hub) After(d time.Duration, fn func(now time.Time)) {
	time.AfterFunc(d, func() {
		select {
		case h.deferred <- fn:
		case <-h.done:
		}
	})
}

func (h *Hub) closeAll() {
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
}

func serveWS(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Debug().Err(err).Msgf("SERVE: Websocket upgrade failed for %s", realIP(r))
			return
		}

		client := &Client{
			id:      doodle.ConnID(uuid.NewString()),
			conn:    conn,
			send:    make(chan []byte, sendBuffer),
			limiter: rate.NewLimiter(rate.Limit(cfg.messageRate), cfg.messageBurst),
		}

		select {
		case h.register <- client:
		case <-h.done:
			_ = conn.Close()
			return
		}

		h.log.Debug().Msgf("SERVE: Websocket for %s from %s", client.id, realIP(r))

		go client.writePump()
		client.readPump(h)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		ev, err := doodle.Decode(data)

		// Heartbeats bypass the limiter so a burst of strokes cannot get a
		// player swept as offline.
		if _, beat := ev.(doodle.Heartbeat); !beat && !c.limiter.Allow() {
			h.log.Debug().Msgf("GAMES: Rate limited connection %s", c.id)
			continue
		}

		select {
		case h.events <- inbound{client: c, event: ev, err: err}:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

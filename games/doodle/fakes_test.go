/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package doodle

import (
	"math/rand/v2"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sent struct {
	to        ConnID
	broadcast bool
	except    ConnID
	msg       Message
}

type recorder struct {
	log []sent
}

func (r *recorder) Send(to ConnID, msg Message) {
	r.log = append(r.log, sent{to: to, msg: msg})
}

func (r *recorder) Broadcast(msg Message, except ConnID) {
	r.log = append(r.log, sent{broadcast: true, except: except, msg: msg})
}

// direct returns the messages of type typ sent to conn alone.
func (r *recorder) direct(conn ConnID, typ string) []Message {
	var out []Message
	for _, s := range r.log {
		if !s.broadcast && s.to == conn && s.msg.Type == typ {
			out = append(out, s.msg)
		}
	}
	return out
}

func (r *recorder) broadcasts(typ string) []sent {
	var out []sent
	for _, s := range r.log {
		if s.broadcast && s.msg.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.log = nil
}

type pending struct {
	d  time.Duration
	fn func(now time.Time)
}

type manualTimers struct {
	queue []pending
}

func (m *manualTimers) After(d time.Duration, fn func(now time.Time)) {
	m.queue = append(m.queue, pending{d: d, fn: fn})
}

// fire runs every callback queued so far, in order, and returns how many ran.
func (m *manualTimers) fire(now time.Time) int {
	queue := m.queue
	m.queue = nil
	for _, p := range queue {
		p.fn(now)
	}
	return len(queue)
}

var startTime = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func testBank(t *testing.T) *Bank {
	t.Helper()

	bank, err := NewBank([]WordEntry{
		{Word: "Кот", Variants: []string{"кот", "кошка", "cat"}},
		{Word: "Дом", Variants: []string{"дом", "house"}},
		{Word: "Собака", Variants: []string{"собака", "пес", "dog"}},
	}, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	return bank
}

func testSettings() Settings {
	s := DefaultSettings()
	s.HostPassword = "hunter2"
	s.MaxRounds = 2
	s.RoundTime = 5
	s.ChooseTime = 4
	s.Countdown = 2

	return s
}

type harness struct {
	t      *testing.T
	game   *Game
	out    *recorder
	timers *manualTimers
	now    time.Time
}

func newHarness(t *testing.T, settings Settings) *harness {
	t.Helper()

	out := &recorder{}
	timers := &manualTimers{}

	ids := 0
	g, err := New(settings, testBank(t), out, timers,
		WithRand(rand.New(rand.NewPCG(3, 4))),
		WithIDs(func() string {
			ids++
			return "msg-" + strconv.Itoa(ids)
		}),
	)
	require.NoError(t, err)

	return &harness{t: t, game: g, out: out, timers: timers, now: startTime}
}

func (h *harness) handle(conn ConnID, ev Event) {
	h.game.Handle(conn, ev, h.now)
}

func (h *harness) join(conn ConnID, userID, name string) {
	h.t.Helper()

	h.handle(conn, Handshake{HandshakeRequest{UserID: userID, Name: name}})
	require.Len(h.t, h.out.direct(conn, TypeHandshakeOK), 1, "handshake for %s", userID)
}

func (h *harness) loginHost(conn ConnID) {
	h.t.Helper()

	h.handle(conn, HostLogin{Password: "hunter2"})
	require.Equal(h.t, conn, h.game.Host())
}

// artistConn returns the connection of the current artist.
func (h *harness) artistConn() ConnID {
	h.t.Helper()

	p := h.game.Roster().Get(h.game.Artist())
	require.NotNil(h.t, p)

	return p.Conn
}

// guesserConn returns the connection of some online player who is not the
// artist.
func (h *harness) guesserConn() ConnID {
	h.t.Helper()

	for _, p := range h.game.Roster().Online() {
		if p.UserID != h.game.Artist() {
			return p.Conn
		}
	}
	h.t.Fatal("no guesser online")

	return ""
}

func (h *harness) tick() {
	h.game.Tick(h.now)
}

// heartbeatAll keeps every bound player alive at the current time.
func (h *harness) heartbeatAll() {
	for _, p := range h.game.Roster().All() {
		if p.Conn != "" {
			h.handle(p.Conn, Heartbeat{})
		}
	}
}

// toDrawing starts a game and walks it to the drawing phase with word chosen.
func (h *harness) toDrawing(word string) {
	h.t.Helper()

	if h.game.Status() == StatusWaiting {
		h.handle("host", HostStart{})
	}
	require.Equal(h.t, PhaseRoulette, h.game.Phase())

	require.Equal(h.t, 1, h.timers.fire(h.now))
	require.Equal(h.t, PhaseChoosing, h.game.Phase())

	h.handle(h.artistConn(), SelectWord{Word: word})
	require.Equal(h.t, PhaseCountdown, h.game.Phase())

	for h.game.Phase() == PhaseCountdown {
		h.tick()
	}
	require.Equal(h.t, PhaseDrawing, h.game.Phase())
}

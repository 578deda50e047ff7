/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package doodle

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sender delivers messages to connected clients. Broadcast skips except,
// which may be empty.
type Sender interface {
	Send(to ConnID, msg Message)
	Broadcast(msg Message, except ConnID)
}

// Scheduler runs fn once after d has elapsed, on the same goroutine that
// drives the Game.
type Scheduler interface {
	After(d time.Duration, fn func(now time.Time))
}

type Settings struct {
	HostPassword     string
	MaxRounds        int
	RoundTime        int
	ChooseTime       int
	Countdown        int
	WordChoices      int
	GuessPoints      int
	ChatHistory      int
	RouletteDelay    time.Duration
	ResultDelay      time.Duration
	HeartbeatTimeout time.Duration
	ReconnectWindow  time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		MaxRounds:        10,
		RoundTime:        90,
		ChooseTime:       30,
		Countdown:        3,
		WordChoices:      3,
		GuessPoints:      100,
		ChatHistory:      100,
		RouletteDelay:    6 * time.Second,
		ResultDelay:      5 * time.Second,
		HeartbeatTimeout: 5 * time.Second,
		ReconnectWindow:  2 * time.Second,
	}
}

// Validate reports settings that would make the game misbehave at runtime.
func (s Settings) Validate() error {
	switch {
	case s.HostPassword == "":
		return errors.New("host password must not be empty")
	case s.MaxRounds < 1:
		return fmt.Errorf("invalid max rounds (must be at least 1): %d", s.MaxRounds)
	case s.RoundTime < 1:
		return fmt.Errorf("invalid round time (must be at least 1): %d", s.RoundTime)
	case s.ChooseTime < 0:
		return fmt.Errorf("invalid choose time (must not be negative): %d", s.ChooseTime)
	case s.Countdown < 0:
		return fmt.Errorf("invalid countdown (must not be negative): %d", s.Countdown)
	case s.WordChoices < 1:
		return fmt.Errorf("invalid word choices (must be at least 1): %d", s.WordChoices)
	case s.GuessPoints < 0:
		return fmt.Errorf("invalid guess points (must not be negative): %d", s.GuessPoints)
	case s.ChatHistory < 1:
		return fmt.Errorf("invalid chat history (must be at least 1): %d", s.ChatHistory)
	case s.RouletteDelay < 0 || s.ResultDelay < 0:
		return errors.New("phase delays must not be negative")
	case s.HeartbeatTimeout <= 0:
		return fmt.Errorf("invalid heartbeat timeout: %s", s.HeartbeatTimeout)
	case s.ReconnectWindow <= 0 || s.ReconnectWindow >= s.HeartbeatTimeout:
		return fmt.Errorf("reconnect window (%s) must be positive and shorter than the heartbeat timeout (%s)", s.ReconnectWindow, s.HeartbeatTimeout)
	}

	return nil
}

// Game is the single authority over the room. None of its methods are safe
// for concurrent use; the owner serializes every call.
type Game struct {
	settings Settings
	bank     *Bank
	matcher  Matcher
	roster   *Roster
	canvas   Canvas
	out      Sender
	timers   Scheduler
	rng      *rand.Rand
	log      zerolog.Logger
	newID    func() string

	status    Status
	phase     Phase
	round     int
	remaining int
	chat      []ChatMessage
	host      ConnID
	artist    string
	word      *WordEntry
	choices   []WordEntry
	winner    *PlayerView

	// epoch changes on every transition, so deferred callbacks can tell
	// whether the state they were scheduled for still exists.
	epoch uint64
}

type Option func(*Game)

func WithLogger(l zerolog.Logger) Option {
	return func(g *Game) { g.log = l }
}

func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

func WithMatcher(m Matcher) Option {
	return func(g *Game) { g.matcher = m }
}

func WithIDs(f func() string) Option {
	return func(g *Game) { g.newID = f }
}

func New(settings Settings, bank *Bank, out Sender, timers Scheduler, opts ...Option) (*Game, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if bank == nil || settings.WordChoices > bank.Len() {
		have := 0
		if bank != nil {
			have = bank.Len()
		}
		return nil, fmt.Errorf("%d word choices requested, bank has %d: %w", settings.WordChoices, have, ErrNotEnoughWords)
	}

	g := &Game{
		settings: settings,
		bank:     bank,
		matcher:  NewMatcher(),
		roster:   NewRoster(settings.HeartbeatTimeout, settings.ReconnectWindow),
		out:      out,
		timers:   timers,
		log:      zerolog.Nop(),
		newID:    uuid.NewString,
		status:   StatusWaiting,
		phase:    PhaseLobby,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return g, nil
}

func (g *Game) Status() Status      { return g.status }
func (g *Game) Phase() Phase        { return g.phase }
func (g *Game) Round() int          { return g.round }
func (g *Game) Remaining() int      { return g.remaining }
func (g *Game) Artist() string      { return g.artist }
func (g *Game) Host() ConnID        { return g.host }
func (g *Game) Roster() *Roster     { return g.roster }
func (g *Game) Winner() *PlayerView { return g.winner }

// Ledger returns a copy of the current round's drawing.
func (g *Game) Ledger() []StrokeEvent {
	return g.canvas.Events()
}

func (g *Game) Word() *WordEntry {
	if g.word == nil {
		return nil
	}
	w := g.word.clone()
	return &w
}

func (g *Game) Choices() []WordEntry {
	out := make([]WordEntry, len(g.choices))
	for i, c := range g.choices {
		out[i] = c.clone()
	}
	return out
}

// Chat returns a copy of the chat log. It is never nil, so it encodes as [].
func (g *Game) Chat() []ChatMessage {
	out := make([]ChatMessage, len(g.chat))
	copy(out, g.chat)

	return out
}

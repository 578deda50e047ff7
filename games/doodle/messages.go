/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package doodle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Client to server event types.
const (
	TypeHostLogin     = "host_login"
	TypeHostStart     = "host_start_game"
	TypeHostReset     = "host_reset_game"
	TypeHandshake     = "player_handshake"
	TypeHeartbeat     = "heartbeat"
	TypeChat          = "player_message"
	TypeSelectWord    = "artist_select_word"
	TypeDrawLine      = "draw_line"
	TypeCanvasUndo    = "canvas_undo"
	TypeCanvasRedo    = "canvas_redo"
	TypeCanvasClear   = "canvas_clear"
	TypeCanvasRequest = "request_canvas_history"
)

// Server to client message types. draw_line and canvas_clear are relayed
// under the same names they arrive with.
const (
	TypeGameTick        = "game_tick"
	TypeHostPresence    = "host_presence"
	TypeStateUpdate     = "state_update"
	TypeChatMessage     = "chat_new_message"
	TypeCanvasHistory   = "canvas_history_update"
	TypeWordChoices     = "your_turn_to_choose"
	TypeHandshakeOK     = "handshake_success"
	TypeHandshakeError  = "handshake_error"
	TypeForceReconnect  = "force_reconnect"
	TypeHeartbeatAck    = "heartbeat_ack"
	TypeRoundEnd        = "round_end"
	TypeGameOver        = "game_over"
	TypeGameStateUpdate = "game_state_update"
	TypeHostError       = "host_error"
	TypeRejected        = "rejected"
)

const (
	maxNameLen     = 32
	maxAvatarLen   = 512
	maxUserIDLen   = 64
	maxChatLen     = 300
	maxPasswordLen = 256
	maxColorLen    = 32
	maxStrokeWidth = 200
)

// Event is a validated client to server message.
type Event interface {
	Type() string
}

type HostLogin struct{ Password string }
type HostStart struct{}
type HostReset struct{}
type Handshake struct{ HandshakeRequest }

type Heartbeat struct {
	Ping *float64
	Seq  *int64
}

type Chat struct{ Text string }
type SelectWord struct{ Word string }
type Stroke struct{ StrokeEvent }
type CanvasUndo struct{}
type CanvasRedo struct{}
type CanvasClear struct{}
type CanvasRequest struct{}

func (HostLogin) Type() string     { return TypeHostLogin }
func (HostStart) Type() string     { return TypeHostStart }
func (HostReset) Type() string     { return TypeHostReset }
func (Handshake) Type() string     { return TypeHandshake }
func (Heartbeat) Type() string     { return TypeHeartbeat }
func (Chat) Type() string          { return TypeChat }
func (SelectWord) Type() string    { return TypeSelectWord }
func (Stroke) Type() string        { return TypeDrawLine }
func (CanvasUndo) Type() string    { return TypeCanvasUndo }
func (CanvasRedo) Type() string    { return TypeCanvasRedo }
func (CanvasClear) Type() string   { return TypeCanvasClear }
func (CanvasRequest) Type() string { return TypeCanvasRequest }

// DecodeError is returned by Decode for messages that fail validation.
type DecodeError struct {
	Type string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Type == "" {
		return e.Err.Error()
	}
	return e.Type + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode parses one client message and validates its payload.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	ev, err := decodePayload(env)
	if err != nil {
		return nil, &DecodeError{Type: env.Type, Err: err}
	}

	return ev, nil
}

func decodePayload(env envelope) (Event, error) {
	switch env.Type {
	case TypeHostLogin:
		pw, err := stringOrField(env.Payload, "password")
		if err != nil {
			return nil, err
		}
		if len(pw) > maxPasswordLen {
			return nil, fmt.Errorf("%w: password too long", ErrMalformed)
		}
		return HostLogin{Password: pw}, nil

	case TypeHostStart:
		return HostStart{}, nil

	case TypeHostReset:
		return HostReset{}, nil

	case TypeHandshake:
		var p struct {
			Name   string `json:"name"`
			UserID string `json:"userId"`
			Avatar string `json:"avatar"`
		}
		if err := unmarshalObject(env.Payload, &p); err != nil {
			return nil, err
		}
		p.UserID = strings.TrimSpace(p.UserID)
		p.Name = strings.TrimSpace(p.Name)
		switch {
		case p.UserID == "":
			return nil, fmt.Errorf("%w: missing userId", ErrMalformed)
		case len(p.UserID) > maxUserIDLen:
			return nil, fmt.Errorf("%w: userId too long", ErrMalformed)
		case utf8.RuneCountInString(p.Name) > maxNameLen:
			return nil, fmt.Errorf("%w: name too long", ErrMalformed)
		case len(p.Avatar) > maxAvatarLen:
			return nil, fmt.Errorf("%w: avatar too long", ErrMalformed)
		}
		return Handshake{HandshakeRequest{UserID: p.UserID, Name: p.Name, Avatar: p.Avatar}}, nil

	case TypeHeartbeat:
		var p struct {
			Ping *float64 `json:"ping"`
			Seq  *int64   `json:"seq"`
		}
		if !isEmpty(env.Payload) {
			if err := unmarshalObject(env.Payload, &p); err != nil {
				return nil, err
			}
		}
		if p.Ping != nil && (math.IsNaN(*p.Ping) || math.IsInf(*p.Ping, 0) || *p.Ping < 0) {
			p.Ping = nil
		}
		return Heartbeat{Ping: p.Ping, Seq: p.Seq}, nil

	case TypeChat:
		text, err := stringOrField(env.Payload, "text")
		if err != nil {
			return nil, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("%w: empty message", ErrMalformed)
		}
		if utf8.RuneCountInString(text) > maxChatLen {
			return nil, fmt.Errorf("%w: message too long", ErrMalformed)
		}
		return Chat{Text: text}, nil

	case TypeSelectWord:
		word, err := stringOrField(env.Payload, "word")
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(word) == "" {
			return nil, fmt.Errorf("%w: missing word", ErrMalformed)
		}
		return SelectWord{Word: word}, nil

	case TypeDrawLine:
		var p StrokeEvent
		if err := unmarshalObject(env.Payload, &p); err != nil {
			return nil, err
		}
		if err := validateStroke(p); err != nil {
			return nil, err
		}
		return Stroke{p}, nil

	case TypeCanvasUndo:
		return CanvasUndo{}, nil

	case TypeCanvasRedo:
		return CanvasRedo{}, nil

	case TypeCanvasClear:
		return CanvasClear{}, nil

	case TypeCanvasRequest:
		return CanvasRequest{}, nil
	}

	return nil, ErrUnknownEvent
}

func validateStroke(p StrokeEvent) error {
	inUnit := func(v float64) bool {
		return !math.IsNaN(v) && v >= 0 && v <= 1
	}

	switch {
	case !p.Kind.valid():
		return fmt.Errorf("%w: unknown segment type %q", ErrMalformed, p.Kind)
	case !inUnit(p.X) || !inUnit(p.Y):
		return fmt.Errorf("%w: point outside canvas", ErrMalformed)
	case p.Color == "" || len(p.Color) > maxColorLen:
		return fmt.Errorf("%w: bad color", ErrMalformed)
	case math.IsNaN(p.Width) || p.Width <= 0 || p.Width > maxStrokeWidth:
		return fmt.Errorf("%w: bad width", ErrMalformed)
	}

	return nil
}

func isEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func unmarshalObject(raw json.RawMessage, v any) error {
	if isEmpty(raw) {
		return fmt.Errorf("%w: missing payload", ErrMalformed)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// stringOrField accepts either a bare JSON string or an object carrying the
// string under field.
func stringOrField(raw json.RawMessage, field string) (string, error) {
	if isEmpty(raw) {
		return "", fmt.Errorf("%w: missing payload", ErrMalformed)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	value, ok := obj[field]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrMalformed, field)
	}
	if err := json.Unmarshal(value, &s); err != nil {
		return "", fmt.Errorf("%w: %s is not a string", ErrMalformed, field)
	}

	return s, nil
}

// Message is a server to client message.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Rejection explains to a single client why its request was refused.
type Rejection struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// RejectionFor maps an error to the reason shown to the client.
func RejectionFor(err error) Rejection {
	switch {
	case errors.Is(err, ErrDuplicateSession):
		return Rejection{Reason: "duplicate_session", Message: "This player is already connected from another tab."}
	case errors.Is(err, ErrGameInProgress):
		return Rejection{Reason: "game_in_progress", Message: "A game is already running. Wait for the next one."}
	case errors.Is(err, ErrUnknownEvent):
		return Rejection{Reason: "unknown_event", Message: "Unknown message type."}
	}
	return Rejection{Reason: "malformed", Message: "The message could not be understood."}
}

type StateUpdate struct {
	Phase      Phase  `json:"phase"`
	Status     Status `json:"status"`
	Round      int    `json:"round"`
	Time       int    `json:"time"`
	ArtistID   string `json:"artistId,omitempty"`
	WordLength int    `json:"wordLength,omitempty"`
}

type HandshakeSuccess struct {
	PlayerView
	Status   Status        `json:"status"`
	Phase    Phase         `json:"phase"`
	Messages []ChatMessage `json:"messages"`
}

type HeartbeatAck struct {
	Seq *int64 `json:"seq,omitempty"`
}

type RoundEnd struct {
	Winner *PlayerView `json:"winner"`
	Word   string      `json:"word"`
}

type GameOver struct {
	Standings []PlayerView `json:"standings"`
}

type GameStatus struct {
	Status Status `json:"status"`
	Phase  Phase  `json:"phase"`
}

type PresenceEntry struct {
	UserID   string  `json:"userId"`
	IsOnline bool    `json:"isOnline"`
	Ping     float64 `json:"ping"`
}

type HostPresence struct {
	Players []PresenceEntry `json:"players"`
}

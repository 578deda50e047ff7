/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package doodle

import (
	"errors"
	"time"
)

// ConnID identifies one transport session. A player keeps its userId across
// reconnects, but gets a new ConnID every time.
type ConnID string

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

type Phase string

const (
	PhaseLobby     Phase = "lobby"
	PhaseRoulette  Phase = "roulette"
	PhaseChoosing  Phase = "choosing"
	PhaseCountdown Phase = "countdown"
	PhaseDrawing   Phase = "drawing"
	PhaseResult    Phase = "result"
)

var (
	ErrDuplicateSession = errors.New("duplicate session")
	ErrGameInProgress   = errors.New("game already in progress")
	ErrNotEnoughWords   = errors.New("not enough words in bank")
	ErrMalformed        = errors.New("malformed message")
	ErrUnknownEvent     = errors.New("unknown event type")
)

// Player is the server-side record for one userId. Records are never removed.
type Player struct {
	UserID      string
	Conn        ConnID
	Name        string
	Avatar      string
	Score       int
	Online      bool
	LastSeen    time.Time
	LatencyMs   float64
	HasLatency  bool
	joinedOrder int
}

// PlayerView is the projection of a Player that clients get to see.
type PlayerView struct {
	UserID   string  `json:"userId"`
	Name     string  `json:"name"`
	Avatar   string  `json:"avatar"`
	Score    int     `json:"score"`
	IsOnline bool    `json:"isOnline"`
	Ping     float64 `json:"ping"`
}

func (p *Player) View() PlayerView {
	return PlayerView{
		UserID:   p.UserID,
		Name:     p.Name,
		Avatar:   p.Avatar,
		Score:    p.Score,
		IsOnline: p.Online,
		Ping:     p.LatencyMs,
	}
}

type ChatMessage struct {
	ID       string `json:"id"`
	Author   string `json:"author"`
	Avatar   string `json:"avatar"`
	Text     string `json:"text"`
	IsSystem bool   `json:"isSystem"`
}

type SegmentKind string

const (
	SegmentBegin    SegmentKind = "start"
	SegmentContinue SegmentKind = "line"
	SegmentEnd      SegmentKind = "end"
)

func (k SegmentKind) valid() bool {
	switch k {
	case SegmentBegin, SegmentContinue, SegmentEnd:
		return true
	}
	return false
}

// StrokeEvent is one point of a stroke, in coordinates normalized to the
// logical canvas size.
type StrokeEvent struct {
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
	Color string      `json:"color"`
	Width float64     `json:"width"`
	Kind  SegmentKind `json:"type"`
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package doodle

import "time"

// Snapshot is the full room state broadcast on every tick.
type Snapshot struct {
	Status            Status        `json:"status"`
	Phase             Phase         `json:"phase"`
	Time              int           `json:"time"`
	Round             int           `json:"round"`
	MaxRounds         int           `json:"maxRounds"`
	CurrentArtistID   string        `json:"currentArtistId"`
	CurrentWordLength int           `json:"currentWordLength"`
	CurrentWord       string        `json:"currentWord,omitempty"`
	Players           []PlayerView  `json:"players"`
	Messages          []ChatMessage `json:"messages"`
	RoundWinner       *PlayerView   `json:"roundWinner"`
}

// Snapshot describes the room as every client may see it. The word itself
// is only revealed once the round is over.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Status:            g.status,
		Phase:             g.phase,
		Time:              g.remaining,
		Round:             g.round,
		MaxRounds:         g.settings.MaxRounds,
		CurrentArtistID:   g.artist,
		CurrentWordLength: g.wordLength(),
		Players:           g.roster.Views(),
		Messages:          g.Chat(),
		RoundWinner:       g.winner,
	}

	if g.phase == PhaseResult && g.word != nil {
		s.CurrentWord = g.word.Word
	}

	return s
}

// Tick advances the game by one second and broadcasts the result.
func (g *Game) Tick(now time.Time) {
	for _, p := range g.roster.Sweep(now) {
		g.log.Info().Str("player", p.Name).Str("user_id", p.UserID).Msg("player timed out")
	}

	if g.status == StatusPlaying {
		g.advance(now)
	}

	g.out.Broadcast(Message{Type: TypeGameTick, Payload: g.Snapshot()}, "")
}

func (g *Game) advance(now time.Time) {
	switch g.phase {
	case PhaseRoulette:
		if g.artist == "" {
			g.pickArtist(now)
		}

	case PhaseChoosing:
		if g.settings.ChooseTime == 0 {
			return
		}
		if g.remaining > 0 {
			g.remaining--
		}
		if g.remaining == 0 {
			g.autoChoose()
		}

	case PhaseCountdown:
		if g.remaining > 0 {
			g.remaining--
		}
		if g.remaining == 0 {
			g.enterDrawing()
		}

	case PhaseDrawing:
		if g.remaining > 0 {
			g.remaining--
		}
		if g.remaining == 0 {
			g.endRound(nil)
		}
	}
}

// PresenceTick sends the host the liveness of every player.
func (g *Game) PresenceTick(now time.Time) {
	if g.host == "" {
		return
	}

	all := g.roster.All()
	entries := make([]PresenceEntry, len(all))
	for i, p := range all {
		online := p.Online && now.Sub(p.LastSeen) <= g.settings.HeartbeatTimeout
		entries[i] = PresenceEntry{UserID: p.UserID, IsOnline: online, Ping: p.LatencyMs}
	}

	g.out.Send(g.host, Message{Type: TypeHostPresence, Payload: HostPresence{Players: entries}})
}

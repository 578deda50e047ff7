/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package doodle

import (
	"slices"
	"time"
	"unicode/utf8"
)

// transitions lists, for every phase, the phases it may move to.
var transitions = map[Phase][]Phase{
	PhaseLobby:     {PhaseRoulette},
	PhaseRoulette:  {PhaseChoosing},
	PhaseChoosing:  {PhaseCountdown},
	PhaseCountdown: {PhaseDrawing},
	PhaseDrawing:   {PhaseResult},
	PhaseResult:    {PhaseRoulette},
}

func (g *Game) transition(to Phase) bool {
	if !slices.Contains(transitions[g.phase], to) {
		g.log.Error().
			Str("from", string(g.phase)).
			Str("to", string(to)).
			Msg("refusing illegal phase transition")
		return false
	}

	g.log.Debug().
		Str("from", string(g.phase)).
		Str("to", string(to)).
		Int("round", g.round).
		Msg("phase transition")

	g.phase = to
	g.epoch++

	return true
}

// after schedules fn, unless another transition happens first.
func (g *Game) after(d time.Duration, fn func(now time.Time)) {
	epoch := g.epoch
	phase := g.phase

	g.timers.After(d, func(now time.Time) {
		if g.epoch != epoch {
			g.log.Debug().
				Str("scheduled_in", string(phase)).
				Str("phase", string(g.phase)).
				Msg("discarding stale transition")
			return
		}
		fn(now)
	})
}

func (g *Game) startGame(now time.Time) {
	g.roster.ResetScores()
	g.round = 0
	g.status = StatusPlaying

	g.log.Info().Int("players", g.roster.Len()).Msg("game started")

	g.enterRoulette(now)
}

// enterRoulette begins the next round, or ends the game once every round has
// been played.
func (g *Game) enterRoulette(now time.Time) {
	if g.round >= g.settings.MaxRounds {
		g.finish()
		return
	}

	if !g.transition(PhaseRoulette) {
		return
	}

	g.round++
	g.remaining = 0
	g.chat = nil
	g.canvas.Reset()
	g.word = nil
	g.choices = nil
	g.winner = nil
	g.artist = ""

	g.out.Broadcast(Message{Type: TypeCanvasClear}, "")

	g.pickArtist(now)
}

// pickArtist chooses the artist among online players. With nobody online the
// game stays in roulette, and the next tick tries again.
func (g *Game) pickArtist(_ time.Time) bool {
	online := g.roster.Online()
	if len(online) == 0 {
		g.log.Warn().Int("round", g.round).Msg("no online players to pick an artist from")
		g.broadcastState()
		return false
	}

	artist := online[g.rng.IntN(len(online))]
	g.artist = artist.UserID

	g.log.Info().
		Int("round", g.round).
		Str("artist", artist.Name).
		Msg("artist selected")

	g.broadcastState()

	g.after(g.settings.RouletteDelay, g.enterChoosing)

	return true
}

func (g *Game) enterChoosing(_ time.Time) {
	choices, err := g.bank.Pick(g.settings.WordChoices)
	if err != nil {
		// Forget the artist so the next tick picks again.
		g.log.Error().Err(err).Msg("unable to offer words")
		g.artist = ""
		g.broadcastState()
		return
	}

	if !g.transition(PhaseChoosing) {
		return
	}

	g.choices = choices
	g.remaining = g.settings.ChooseTime

	g.offerChoices()
	g.broadcastState()
}

func (g *Game) offerChoices() {
	artist := g.roster.Get(g.artist)
	if artist == nil || artist.Conn == "" {
		return
	}

	g.out.Send(artist.Conn, Message{Type: TypeWordChoices, Payload: g.Choices()})
}

func (g *Game) chooseWord(entry WordEntry) {
	if !g.transition(PhaseCountdown) {
		return
	}

	g.word = &entry
	g.choices = nil
	g.remaining = g.settings.Countdown

	g.log.Info().Int("round", g.round).Str("word", entry.Word).Msg("word chosen")

	g.broadcastState()
}

// autoChoose picks one of the offered words for an artist who ran out of
// time.
func (g *Game) autoChoose() {
	if len(g.choices) == 0 {
		return
	}

	g.log.Info().Str("artist", g.artist).Msg("artist did not choose in time")

	g.chooseWord(g.choices[g.rng.IntN(len(g.choices))].clone())
}

func (g *Game) enterDrawing() {
	if !g.transition(PhaseDrawing) {
		return
	}

	g.remaining = g.settings.RoundTime

	g.broadcastState()
}

// endRound credits winner, if any, and schedules the next roulette.
func (g *Game) endRound(winner *Player) {
	if !g.transition(PhaseResult) {
		return
	}

	g.remaining = 0
	g.winner = nil

	word := "???"
	if g.word != nil {
		word = g.word.Word
	}

	if winner != nil {
		winner.Score += g.settings.GuessPoints
		view := winner.View()
		g.winner = &view

		g.log.Info().Int("round", g.round).Str("winner", winner.Name).Str("word", word).Msg("round won")
	} else {
		g.log.Info().Int("round", g.round).Str("word", word).Msg("round ended without a winner")
	}

	g.out.Broadcast(Message{Type: TypeRoundEnd, Payload: RoundEnd{Winner: g.winner, Word: word}}, "")
	g.broadcastState()

	g.after(g.settings.ResultDelay, g.enterRoulette)
}

// finish is terminal; only a host reset leaves it.
func (g *Game) finish() {
	g.status = StatusFinished
	g.phase = PhaseResult
	g.remaining = 0
	g.artist = ""
	g.choices = nil
	g.epoch++

	standings := g.roster.Standings()

	g.log.Info().Int("rounds", g.round).Msg("game finished")

	g.broadcastState()
	g.out.Broadcast(Message{Type: TypeGameOver, Payload: GameOver{Standings: standings}}, "")
}

// reset returns to the lobby from anywhere. Players are kept.
func (g *Game) reset() {
	g.status = StatusWaiting
	g.phase = PhaseLobby
	g.round = 0
	g.remaining = 0
	g.chat = nil
	g.canvas.Reset()
	g.artist = ""
	g.word = nil
	g.choices = nil
	g.winner = nil
	g.epoch++

	g.log.Info().Msg("game reset")

	g.out.Broadcast(Message{Type: TypeCanvasClear}, "")
	g.broadcastState()
}

func (g *Game) wordLength() int {
	if g.word == nil {
		return 0
	}
	return utf8.RuneCountInString(g.word.Word)
}

func (g *Game) broadcastState() {
	g.out.Broadcast(Message{Type: TypeStateUpdate, Payload: StateUpdate{
		Phase:      g.phase,
		Status:     g.status,
		Round:      g.round,
		Time:       g.remaining,
		ArtistID:   g.artist,
		WordLength: g.wordLength(),
	}}, "")
}

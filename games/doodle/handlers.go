/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package doodle

import (
	"crypto/subtle"
	"errors"
	"time"
)

// Handle applies one validated client event.
func (g *Game) Handle(conn ConnID, ev Event, now time.Time) {
	switch ev := ev.(type) {
	case HostLogin:
		g.hostLogin(conn, ev.Password)
	case HostStart:
		g.hostStart(conn, now)
	case HostReset:
		g.hostReset(conn)
	case Handshake:
		g.handshake(conn, ev.HandshakeRequest, now)
	case Heartbeat:
		g.heartbeat(conn, ev, now)
	case Chat:
		g.chatMessage(conn, ev.Text)
	case SelectWord:
		g.selectWord(conn, ev.Word)
	case Stroke:
		g.stroke(conn, ev.StrokeEvent)
	case CanvasUndo:
		g.undo(conn)
	case CanvasRedo:
		g.redo(conn)
	case CanvasClear:
		g.clearCanvas(conn)
	case CanvasRequest:
		g.out.Send(conn, Message{Type: TypeCanvasHistory, Payload: g.canvas.Events()})
	default:
		g.log.Debug().Str("conn", string(conn)).Msg("ignoring unhandled event")
	}
}

// Reject answers a message that failed to decode.
func (g *Game) Reject(conn ConnID, err error) {
	g.log.Debug().Err(err).Str("conn", string(conn)).Msg("rejecting message")

	var de *DecodeError
	if errors.As(err, &de) && de.Type == TypeHandshake {
		g.out.Send(conn, Message{Type: TypeHandshakeError, Payload: RejectionFor(err)})
		return
	}

	g.out.Send(conn, Message{Type: TypeRejected, Payload: RejectionFor(err)})
}

// Disconnect is called once the transport for conn is gone.
func (g *Game) Disconnect(conn ConnID) {
	if conn == g.host {
		g.host = ""
		g.log.Info().Msg("host disconnected")
	}

	if p := g.roster.ByConn(conn); p != nil {
		g.log.Debug().Str("player", p.Name).Msg("player connection closed")
	}

	g.roster.Disconnect(conn)
}

func (g *Game) hostLogin(conn ConnID, password string) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(g.settings.HostPassword)) != 1 {
		g.log.Warn().Str("conn", string(conn)).Msg("host login refused")
		g.out.Send(conn, Message{Type: TypeHostError, Payload: Rejection{Reason: "access_denied", Message: "Access denied."}})
		return
	}

	g.host = conn

	g.log.Info().Str("conn", string(conn)).Msg("host connected")

	g.out.Send(conn, Message{Type: TypeGameStateUpdate, Payload: GameStatus{Status: g.status, Phase: g.phase}})
}

func (g *Game) isHost(conn ConnID) bool {
	if g.host == "" || conn != g.host {
		g.out.Send(conn, Message{Type: TypeHostError, Payload: Rejection{Reason: "not_host", Message: "Only the host can do that."}})
		return false
	}
	return true
}

func (g *Game) hostStart(conn ConnID, now time.Time) {
	if !g.isHost(conn) {
		return
	}
	if g.status != StatusWaiting {
		g.log.Debug().Str("status", string(g.status)).Msg("ignoring start, game is not waiting")
		return
	}

	g.startGame(now)
}

func (g *Game) hostReset(conn ConnID) {
	if !g.isHost(conn) {
		return
	}

	g.reset()
}

func (g *Game) handshake(conn ConnID, req HandshakeRequest, now time.Time) {
	waiting := g.status == StatusWaiting

	p, created, err := g.roster.Handshake(req, conn, now, waiting, waiting)
	if err != nil {
		g.log.Info().Err(err).Str("user_id", req.UserID).Msg("handshake rejected")
		g.out.Send(conn, Message{Type: TypeHandshakeError, Payload: RejectionFor(err)})
		return
	}

	if created {
		g.log.Info().Str("player", p.Name).Str("user_id", p.UserID).Msg("player joined")
	} else {
		g.log.Info().Str("player", p.Name).Str("user_id", p.UserID).Msg("player reconnected")
	}

	g.out.Send(conn, Message{Type: TypeHandshakeOK, Payload: HandshakeSuccess{
		PlayerView: p.View(),
		Status:     g.status,
		Phase:      g.phase,
		Messages:   g.Chat(),
	}})

	if g.phase == PhaseChoosing && p.UserID == g.artist {
		g.offerChoices()
	}
}

func (g *Game) heartbeat(conn ConnID, hb Heartbeat, now time.Time) {
	if g.roster.RecordLiveness(conn, hb.Ping, now) == nil {
		if conn != g.host {
			g.out.Send(conn, Message{Type: TypeForceReconnect})
		}
		return
	}

	g.out.Send(conn, Message{Type: TypeHeartbeatAck, Payload: HeartbeatAck{Seq: hb.Seq}})
}

func (g *Game) chatMessage(conn ConnID, text string) {
	p := g.roster.ByConn(conn)
	if p == nil {
		return
	}

	if g.phase == PhaseDrawing && g.word != nil && g.matcher.IsCorrect(text, g.word.Variants) {
		if p.UserID == g.artist {
			g.out.Send(conn, Message{Type: TypeRejected, Payload: Rejection{Reason: "reveals_word", Message: "You can't give away the word."}})
			return
		}

		g.endRound(p)
		g.postChat(ChatMessage{
			ID:       g.newID(),
			Author:   "SYSTEM",
			Text:     p.Name + " guessed the word!",
			IsSystem: true,
		})
		return
	}

	g.postChat(ChatMessage{
		ID:     g.newID(),
		Author: p.Name,
		Avatar: p.Avatar,
		Text:   text,
	})
}

func (g *Game) postChat(msg ChatMessage) {
	g.chat = append(g.chat, msg)
	if over := len(g.chat) - g.settings.ChatHistory; over > 0 {
		g.chat = append([]ChatMessage(nil), g.chat[over:]...)
	}

	g.out.Broadcast(Message{Type: TypeChatMessage, Payload: msg}, "")
}

// artistAt returns the player behind conn if they are the artist and the
// phase is the given one.
func (g *Game) artistAt(conn ConnID, phase Phase) *Player {
	if g.phase != phase || g.artist == "" {
		return nil
	}

	p := g.roster.ByConn(conn)
	if p == nil || p.UserID != g.artist {
		return nil
	}

	return p
}

func (g *Game) selectWord(conn ConnID, word string) {
	if g.artistAt(conn, PhaseChoosing) == nil {
		g.log.Debug().Str("conn", string(conn)).Msg("ignoring word selection")
		return
	}

	want := normalizeVariant(word)
	for _, c := range g.choices {
		if normalizeVariant(c.Word) == want {
			g.chooseWord(c.clone())
			return
		}
	}

	g.log.Debug().Str("word", word).Msg("selected word was not offered")
}

func (g *Game) stroke(conn ConnID, ev StrokeEvent) {
	if g.artistAt(conn, PhaseDrawing) == nil {
		return
	}

	if !g.canvas.Append(ev) {
		g.log.Warn().Int("events", g.canvas.Len()).Msg("canvas ledger full")
		return
	}

	g.out.Broadcast(Message{Type: TypeDrawLine, Payload: ev}, conn)
}

func (g *Game) undo(conn ConnID) {
	if g.artistAt(conn, PhaseDrawing) == nil {
		return
	}

	if g.canvas.Undo() {
		g.out.Broadcast(Message{Type: TypeCanvasHistory, Payload: g.canvas.Events()}, "")
	}
}

func (g *Game) redo(conn ConnID) {
	if g.artistAt(conn, PhaseDrawing) == nil {
		return
	}

	if g.canvas.Redo() {
		g.out.Broadcast(Message{Type: TypeCanvasHistory, Payload: g.canvas.Events()}, "")
	}
}

func (g *Game) clearCanvas(conn ConnID) {
	if g.artistAt(conn, PhaseDrawing) == nil {
		return
	}

	g.canvas.Clear()

	g.out.Broadcast(Message{Type: TypeCanvasClear}, "")
}

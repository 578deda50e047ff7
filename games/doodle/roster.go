/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package doodle

import (
	"sort"
	"time"
)

// Roster tracks every player that ever joined, and whether they are still
// sending liveness signals.
type Roster struct {
	heartbeatTimeout time.Duration
	reconnectWindow  time.Duration

	players map[string]*Player
	byConn  map[ConnID]string
	joined  int
}

func NewRoster(heartbeatTimeout, reconnectWindow time.Duration) *Roster {
	return &Roster{
		heartbeatTimeout: heartbeatTimeout,
		reconnectWindow:  reconnectWindow,
		players:          make(map[string]*Player),
		byConn:           make(map[ConnID]string),
	}
}

// HandshakeRequest carries the identity a client claims when joining.
type HandshakeRequest struct {
	UserID string
	Name   string
	Avatar string
}

// Handshake binds conn to the player identified by req.UserID, creating the
// player if allowNew is set. A second live connection claiming a userId that
// was heard from within the reconnect window is refused.
func (r *Roster) Handshake(req HandshakeRequest, conn ConnID, now time.Time, allowNew, allowRename bool) (*Player, bool, error) {
	p, ok := r.players[req.UserID]
	if ok {
		if p.Online && p.Conn != "" && p.Conn != conn && now.Sub(p.LastSeen) < r.reconnectWindow {
			return nil, false, ErrDuplicateSession
		}

		if id, bound := r.byConn[conn]; bound && id != p.UserID {
			r.unbind(conn)
		}
		if p.Conn != conn {
			delete(r.byConn, p.Conn)
		}
		p.Conn = conn
		p.Online = true
		p.LastSeen = now
		if allowRename {
			if req.Name != "" {
				p.Name = req.Name
			}
			if req.Avatar != "" {
				p.Avatar = req.Avatar
			}
		}
		r.byConn[conn] = p.UserID

		return p, false, nil
	}

	if !allowNew {
		return nil, false, ErrGameInProgress
	}

	r.unbind(conn)

	name := req.Name
	if name == "" {
		name = "Player"
	}
	avatar := req.Avatar
	if avatar == "" {
		avatar = "😎"
	}

	p = &Player{
		UserID:      req.UserID,
		Conn:        conn,
		Name:        name,
		Avatar:      avatar,
		Online:      true,
		LastSeen:    now,
		joinedOrder: r.joined,
	}
	r.joined++
	r.players[p.UserID] = p
	r.byConn[conn] = p.UserID

	return p, true, nil
}

// Disconnect forgets the transport session. The player stays online until the
// sweep notices the missing heartbeats, but a new connection may claim it
// right away.
func (r *Roster) Disconnect(conn ConnID) {
	r.unbind(conn)
}

func (r *Roster) unbind(conn ConnID) {
	if id, ok := r.byConn[conn]; ok {
		if p := r.players[id]; p != nil && p.Conn == conn {
			p.Conn = ""
		}
		delete(r.byConn, conn)
	}
}

// RecordLiveness marks the player behind conn as alive. It returns nil if no
// player is bound to conn.
func (r *Roster) RecordLiveness(conn ConnID, latencyMs *float64, now time.Time) *Player {
	p := r.ByConn(conn)
	if p == nil {
		return nil
	}

	p.LastSeen = now
	p.Online = true
	if latencyMs != nil {
		p.LatencyMs = *latencyMs
		p.HasLatency = true
	}

	return p
}

// Sweep flips every player that has been silent for longer than the
// heartbeat timeout to offline, and returns them.
func (r *Roster) Sweep(now time.Time) []*Player {
	var expired []*Player

	for _, p := range r.players {
		if p.Online && now.Sub(p.LastSeen) > r.heartbeatTimeout {
			p.Online = false
			expired = append(expired, p)
		}
	}

	sortByJoin(expired)

	return expired
}

func (r *Roster) Get(userID string) *Player {
	return r.players[userID]
}

func (r *Roster) ByConn(conn ConnID) *Player {
	id, ok := r.byConn[conn]
	if !ok {
		return nil
	}

	p := r.players[id]
	if p == nil || p.Conn != conn {
		return nil
	}

	return p
}

func (r *Roster) Len() int {
	return len(r.players)
}

// All returns every player in join order.
func (r *Roster) All() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}

	sortByJoin(out)

	return out
}

func (r *Roster) Online() []*Player {
	all := r.All()
	out := all[:0]
	for _, p := range all {
		if p.Online {
			out = append(out, p)
		}
	}

	return out
}

func (r *Roster) Views() []PlayerView {
	all := r.All()
	out := make([]PlayerView, len(all))
	for i, p := range all {
		out[i] = p.View()
	}

	return out
}

// Standings lists players by descending score, ties broken by join order.
func (r *Roster) Standings() []PlayerView {
	all := r.All()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})

	out := make([]PlayerView, len(all))
	for i, p := range all {
		out[i] = p.View()
	}

	return out
}

func (r *Roster) ResetScores() {
	for _, p := range r.players {
		p.Score = 0
	}
}

func sortByJoin(players []*Player) {
	sort.Slice(players, func(i, j int) bool {
		return players[i].joinedOrder < players[j].joinedOrder
	})
}

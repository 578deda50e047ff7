/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package doodle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshakeDefaults(t *testing.T) {
	r := NewRoster(5*time.Second, 2*time.Second)

	p, created, err := r.Handshake(HandshakeRequest{UserID: "u1"}, "c1", startTime, true, true)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Player", p.Name)
	assert.Equal(t, "😎", p.Avatar)
	assert.True(t, p.Online)
	assert.Same(t, p, r.ByConn("c1"))
}

func TestHandshakeRebindsConnection(t *testing.T) {
	r := NewRoster(5*time.Second, 2*time.Second)

	_, _, err := r.Handshake(HandshakeRequest{UserID: "u1", Name: "A"}, "c1", startTime, true, true)
	require.NoError(t, err)
	_, _, err = r.Handshake(HandshakeRequest{UserID: "u2", Name: "B"}, "c2", startTime, true, true)
	require.NoError(t, err)

	// c1 switches identity.
	_, _, err = r.Handshake(HandshakeRequest{UserID: "u2"}, "c1", startTime, true, true)
	assert.ErrorIs(t, err, ErrDuplicateSession)

	r.Disconnect("c2")
	p, created, err := r.Handshake(HandshakeRequest{UserID: "u2"}, "c1", startTime, true, true)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "B", p.Name)
	assert.Nil(t, r.ByConn("c2"))
	assert.Equal(t, "u2", r.ByConn("c1").UserID)
	assert.Empty(t, r.Get("u1").Conn)
}

func TestSameConnectionMayRepeatHandshake(t *testing.T) {
	r := NewRoster(5*time.Second, 2*time.Second)

	_, _, err := r.Handshake(HandshakeRequest{UserID: "u1", Name: "A"}, "c1", startTime, true, true)
	require.NoError(t, err)

	p, created, err := r.Handshake(HandshakeRequest{UserID: "u1", Name: "Z"}, "c1", startTime.Add(time.Second), true, true)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Z", p.Name)
	assert.Equal(t, 1, r.Len())
}

func TestDuplicateAfterWindow(t *testing.T) {
	r := NewRoster(5*time.Second, 2*time.Second)

	_, _, err := r.Handshake(HandshakeRequest{UserID: "u1"}, "c1", startTime, true, true)
	require.NoError(t, err)

	_, _, err = r.Handshake(HandshakeRequest{UserID: "u1"}, "c2", startTime.Add(time.Second), true, true)
	assert.ErrorIs(t, err, ErrDuplicateSession)

	p, _, err := r.Handshake(HandshakeRequest{UserID: "u1"}, "c2", startTime.Add(3*time.Second), true, true)
	require.NoError(t, err)
	assert.Equal(t, ConnID("c2"), p.Conn)
	assert.Nil(t, r.ByConn("c1"))
}

func TestSweep(t *testing.T) {
	r := NewRoster(5*time.Second, 2*time.Second)

	_, _, _ = r.Handshake(HandshakeRequest{UserID: "u1"}, "c1", startTime, true, true)
	_, _, _ = r.Handshake(HandshakeRequest{UserID: "u2"}, "c2", startTime, true, true)

	ping := 12.0
	require.NotNil(t, r.RecordLiveness("c2", &ping, startTime.Add(4*time.Second)))
	assert.Nil(t, r.RecordLiveness("c9", nil, startTime))

	assert.Empty(t, r.Sweep(startTime.Add(5*time.Second)))

	expired := r.Sweep(startTime.Add(6 * time.Second))
	require.Len(t, expired, 1)
	assert.Equal(t, "u1", expired[0].UserID)
	assert.False(t, r.Get("u1").Online)

	online := r.Online()
	require.Len(t, online, 1)
	assert.Equal(t, "u2", online[0].UserID)
	assert.Equal(t, 12.0, online[0].LatencyMs)

	// Offline players stay in the roster with their score.
	assert.Equal(t, 2, r.Len())
	r.RecordLiveness("c1", nil, startTime.Add(7*time.Second))
	assert.True(t, r.Get("u1").Online)
}

func TestNewPlayersRefused(t *testing.T) {
	r := NewRoster(5*time.Second, 2*time.Second)

	_, _, err := r.Handshake(HandshakeRequest{UserID: "u1", Name: "A"}, "c1", startTime, true, true)
	require.NoError(t, err)

	_, _, err = r.Handshake(HandshakeRequest{UserID: "u2"}, "c2", startTime, false, false)
	assert.ErrorIs(t, err, ErrGameInProgress)

	r.Disconnect("c1")
	p, _, err := r.Handshake(HandshakeRequest{UserID: "u1", Name: "B"}, "c3", startTime, false, false)
	require.NoError(t, err)
	assert.Equal(t, "A", p.Name)
}

func TestStandings(t *testing.T) {
	r := NewRoster(5*time.Second, 2*time.Second)
	for _, id := range []string{"u1", "u2", "u3"} {
		_, _, err := r.Handshake(HandshakeRequest{UserID: id}, ConnID("c-"+id), startTime, true, true)
		require.NoError(t, err)
	}
	r.Get("u2").Score = 200
	r.Get("u3").Score = 100
	r.Get("u1").Score = 100

	standings := r.Standings()
	require.Len(t, standings, 3)
	assert.Equal(t, "u2", standings[0].UserID)
	assert.Equal(t, "u1", standings[1].UserID)
	assert.Equal(t, "u3", standings[2].UserID)

	r.ResetScores()
	for _, p := range r.All() {
		assert.Zero(t, p.Score)
	}
}

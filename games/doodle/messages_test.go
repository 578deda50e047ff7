/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package doodle

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Event
	}{
		{"host login string", `{"type":"host_login","payload":"pw"}`, HostLogin{Password: "pw"}},
		{"host login object", `{"type":"host_login","payload":{"password":"pw"}}`, HostLogin{Password: "pw"}},
		{"start", `{"type":"host_start_game"}`, HostStart{}},
		{"reset", `{"type":"host_reset_game"}`, HostReset{}},
		{"handshake", `{"type":"player_handshake","payload":{"userId":" u1 ","name":" Ann ","avatar":"🐱"}}`,
			Handshake{HandshakeRequest{UserID: "u1", Name: "Ann", Avatar: "🐱"}}},
		{"bare heartbeat", `{"type":"heartbeat"}`, Heartbeat{}},
		{"chat", `{"type":"player_message","payload":"  hi  "}`, Chat{Text: "hi"}},
		{"chat object", `{"type":"player_message","payload":{"text":"hi"}}`, Chat{Text: "hi"}},
		{"select word", `{"type":"artist_select_word","payload":"Кот"}`, SelectWord{Word: "Кот"}},
		{"stroke", `{"type":"draw_line","payload":{"x":0.25,"y":1,"color":"#ff0000","width":5,"type":"start"}}`,
			Stroke{StrokeEvent{X: 0.25, Y: 1, Color: "#ff0000", Width: 5, Kind: SegmentBegin}}},
		{"undo", `{"type":"canvas_undo"}`, CanvasUndo{}},
		{"redo", `{"type":"canvas_redo"}`, CanvasRedo{}},
		{"clear", `{"type":"canvas_clear"}`, CanvasClear{}},
		{"history", `{"type":"request_canvas_history"}`, CanvasRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Type(), got.Type())
		})
	}
}

func TestDecodeHeartbeat(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"heartbeat","payload":{"ping":31.5,"seq":9}}`))
	require.NoError(t, err)

	hb := ev.(Heartbeat)
	require.NotNil(t, hb.Ping)
	require.NotNil(t, hb.Seq)
	assert.Equal(t, 31.5, *hb.Ping)
	assert.Equal(t, int64(9), *hb.Seq)

	ev, err = Decode([]byte(`{"type":"heartbeat","payload":{"ping":-4}}`))
	require.NoError(t, err)
	assert.Nil(t, ev.(Heartbeat).Ping)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		reason string
	}{
		{"not json", `{`, "malformed"},
		{"unknown type", `{"type":"launch_missiles"}`, "unknown_event"},
		{"handshake without user", `{"type":"player_handshake","payload":{"name":"x"}}`, "malformed"},
		{"handshake long name", `{"type":"player_handshake","payload":{"userId":"u","name":"` + strings.Repeat("я", 33) + `"}}`, "malformed"},
		{"empty chat", `{"type":"player_message","payload":"   "}`, "malformed"},
		{"long chat", `{"type":"player_message","payload":"` + strings.Repeat("a", 301) + `"}`, "malformed"},
		{"chat number", `{"type":"player_message","payload":5}`, "malformed"},
		{"login without password", `{"type":"host_login"}`, "malformed"},
		{"stroke off canvas", `{"type":"draw_line","payload":{"x":1.5,"y":0,"color":"#000","width":1,"type":"line"}}`, "malformed"},
		{"stroke bad kind", `{"type":"draw_line","payload":{"x":0,"y":0,"color":"#000","width":1,"type":"zigzag"}}`, "malformed"},
		{"stroke no width", `{"type":"draw_line","payload":{"x":0,"y":0,"color":"#000","type":"end"}}`, "malformed"},
		{"select blank", `{"type":"artist_select_word","payload":""}`, "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			require.Error(t, err)

			var de *DecodeError
			assert.ErrorAs(t, err, &de)
			assert.Equal(t, tt.reason, RejectionFor(err).Reason)
		})
	}
}

func TestMessageEncoding(t *testing.T) {
	data, err := json.Marshal(Message{Type: TypeCanvasClear})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"canvas_clear"}`, string(data))

	data, err = json.Marshal(Message{Type: TypeDrawLine, Payload: StrokeEvent{X: 0.5, Y: 0.5, Color: "#fff", Width: 3, Kind: SegmentEnd}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"draw_line","payload":{"x":0.5,"y":0.5,"color":"#fff","width":3,"type":"end"}}`, string(data))
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package doodle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stroke(c *Canvas, color string, points int) {
	for i := range points {
		kind := SegmentContinue
		switch i {
		case 0:
			kind = SegmentBegin
		case points - 1:
			kind = SegmentEnd
		}
		c.Append(StrokeEvent{X: 0.1, Y: 0.1, Color: color, Width: 2, Kind: kind})
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	var c Canvas
	stroke(&c, "red", 3)
	stroke(&c, "blue", 4)

	before := c.Events()
	require.Len(t, before, 7)

	require.True(t, c.Undo())
	assert.Len(t, c.Events(), 3)
	assert.Equal(t, "red", c.Events()[2].Color)

	require.True(t, c.Redo())
	assert.Equal(t, before, c.Events())
	assert.Zero(t, c.RedoDepth())
}

func TestUndoEmpty(t *testing.T) {
	var c Canvas
	assert.False(t, c.Undo())
	assert.False(t, c.Redo())
}

func TestUndoOpenStroke(t *testing.T) {
	var c Canvas
	stroke(&c, "red", 3)
	c.Append(StrokeEvent{Color: "blue", Width: 1, Kind: SegmentBegin})
	c.Append(StrokeEvent{Color: "blue", Width: 1, Kind: SegmentContinue})

	require.True(t, c.Undo())
	assert.Len(t, c.Events(), 3)
}

func TestNewStrokeDropsRedo(t *testing.T) {
	var c Canvas
	stroke(&c, "red", 2)
	c.Undo()
	require.Equal(t, 1, c.RedoDepth())

	stroke(&c, "green", 2)
	assert.Zero(t, c.RedoDepth())
	assert.False(t, c.Redo())
}

func TestClearIsRedoable(t *testing.T) {
	var c Canvas
	stroke(&c, "red", 3)
	stroke(&c, "blue", 2)

	c.Clear()
	assert.Empty(t, c.Events())
	assert.NotNil(t, c.Events())

	c.Clear()
	assert.Empty(t, c.Events())

	require.True(t, c.Redo())
	assert.Empty(t, c.Events())
	require.True(t, c.Redo())
	assert.Len(t, c.Events(), 5)
}

func TestLedgerCap(t *testing.T) {
	var c Canvas
	for range maxLedgerEvents {
		require.True(t, c.Append(StrokeEvent{Kind: SegmentContinue}))
	}
	assert.False(t, c.Append(StrokeEvent{Kind: SegmentBegin}))
	assert.Equal(t, maxLedgerEvents, c.Len())
}

func TestRedoRespectsLedgerCap(t *testing.T) {
	var c Canvas
	require.True(t, c.Append(StrokeEvent{Kind: SegmentBegin}))
	for c.Len() < maxLedgerEvents {
		require.True(t, c.Append(StrokeEvent{Kind: SegmentContinue}))
	}
	c.Clear()

	// Continuing segments keep the cleared group redoable.
	for c.Len() < maxLedgerEvents {
		require.True(t, c.Append(StrokeEvent{Kind: SegmentContinue}))
	}

	assert.False(t, c.Redo())
	assert.Equal(t, maxLedgerEvents, c.Len())
	assert.Equal(t, 1, c.RedoDepth())

	c.Clear()
	require.True(t, c.Redo())
	assert.Equal(t, maxLedgerEvents, c.Len())
	assert.Equal(t, SegmentContinue, c.Events()[0].Kind)
	assert.Equal(t, 1, c.RedoDepth())
}

func TestReset(t *testing.T) {
	var c Canvas
	stroke(&c, "red", 3)
	c.Undo()
	c.Reset()

	assert.Zero(t, c.Len())
	assert.Zero(t, c.RedoDepth())
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package doodle

// maxLedgerEvents caps how many stroke events a single round may hold.
const maxLedgerEvents = 50000

// Canvas is the ordered log of stroke events for the current round, plus the
// stroke groups that can be redone.
type Canvas struct {
	events []StrokeEvent
	redo   [][]StrokeEvent
}

// Append adds ev to the ledger. Starting a new stroke discards redo history.
func (c *Canvas) Append(ev StrokeEvent) bool {
	if len(c.events) >= maxLedgerEvents {
		return false
	}

	if ev.Kind == SegmentBegin {
		c.redo = nil
	}
	c.events = append(c.events, ev)

	return true
}

// Undo removes the last stroke, from its begin event to the end of the log.
func (c *Canvas) Undo() bool {
	last := -1
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Kind == SegmentBegin {
			last = i
			break
		}
	}
	if last == -1 {
		return false
	}

	removed := append([]StrokeEvent(nil), c.events[last:]...)
	c.events = c.events[:last]
	c.redo = append(c.redo, removed)

	return true
}

// Redo re-appends the most recently undone or cleared group. A group that
// would overflow the ledger stays on the redo stack.
func (c *Canvas) Redo() bool {
	if len(c.redo) == 0 {
		return false
	}

	group := c.redo[len(c.redo)-1]
	if len(c.events)+len(group) > maxLedgerEvents {
		return false
	}
	c.redo = c.redo[:len(c.redo)-1]
	c.events = append(c.events, group...)

	return true
}

// Clear empties the ledger, keeping its content as one redoable group.
func (c *Canvas) Clear() {
	c.redo = append(c.redo, c.events)
	c.events = nil
}

// Reset drops the ledger and the redo history.
func (c *Canvas) Reset() {
	c.events = nil
	c.redo = nil
}

func (c *Canvas) Len() int {
	return len(c.events)
}

func (c *Canvas) RedoDepth() int {
	return len(c.redo)
}

// Events returns a copy of the ledger. It is never nil, so it encodes as [].
func (c *Canvas) Events() []StrokeEvent {
	out := make([]StrokeEvent, len(c.events))
	copy(out, c.events)

	return out
}

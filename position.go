package ximclient

import (
	"ximclient/protocol"
)

// UpdatePosition asks the server to place the candidate window at (x, y)
// relative to win. It returns true if an update was sent now and false if
// it was deferred: either the input context is still opening (the latest
// requested position travels with the creation request), or an update is
// already awaiting acknowledgment, in which case this request supersedes
// any previously deferred one.
//
// However often this is called, at most one update is in flight at a
// time, and the value that finally reaches the server is always the most
// recent one requested.
func (c *Client) UpdatePosition(win protocol.WindowID, x, y int16) bool {
	if c.closed {
		return false
	}
	c.posReq = Placement{Window: win, X: x, Y: y}
	if c.state != stateOpen {
		c.ensureOpen()
		return false
	}
	if c.posInFlight {
		c.posQueued = true
		return false
	}
	c.sendPosition()
	return true
}

// sendPosition issues one placement update carrying the requested
// placement. If the target window changed since the previous send, the
// window-binding attributes go with it; otherwise only the spot location
// is updated.
func (c *Client) sendPosition() {
	c.posInFlight = true

	spot := protocol.Point{X: c.posReq.X, Y: c.posReq.Y}
	attrs := protocol.AttributeList{Spot: &spot}
	if c.posReq.Window != c.posCur.Window {
		win := c.posReq.Window
		attrs.ClientWindow = &win
		attrs.FocusWindow = &win
	}
	c.engine.SetContextValues(c.ic, attrs, c.onPositionAck)

	// Record what was sent, not what was acknowledged: the next send's
	// window-changed comparison must be against the value the server last
	// heard, even before it answers.
	c.posCur = c.posReq
}

// onPositionAck is the engine's completion for a placement update. If a
// newer request arrived while this one was in flight, it is sent now with
// whatever is the latest requested placement.
func (c *Client) onPositionAck() {
	if !c.posQueued {
		c.posInFlight = false
		return
	}
	c.posQueued = false
	if c.closed || c.state != stateOpen {
		// The context went away while the update was queued; the next
		// UpdatePosition call re-opens it.
		c.posInFlight = false
		return
	}
	c.sendPosition()
}

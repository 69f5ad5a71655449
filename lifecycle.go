package ximclient

import (
	"ximclient/protocol"
)

// ensureOpen makes sure a server-side input context exists or is on its
// way. It never blocks and never issues a duplicate request: while a
// creation is outstanding the call is a no-op.
//
// There is no retry loop. If opening fails, the state returns to
// NoContext and the next operation that needs a context (a key event or a
// placement update) triggers a fresh attempt.
func (c *Client) ensureOpen() {
	if c.closed || c.state != stateNoContext {
		return
	}
	c.state = stateOpening
	c.engine.Open(c.onOpened)
}

// onOpened is the engine's completion for Open. On success it issues the
// context-creation request carrying the negotiated style and the latest
// requested placement.
func (c *Client) onOpened(ok bool) {
	if c.closed {
		return
	}
	if !ok {
		c.state = stateNoContext
		return
	}

	style := c.style
	win := c.posReq.Window
	spot := protocol.Point{X: c.posReq.X, Y: c.posReq.Y}
	c.engine.CreateContext(protocol.AttributeList{
		Style:        &style,
		ClientWindow: &win,
		FocusWindow:  &win,
		Spot:         &spot,
	}, c.onContextCreated)

	// The window just sent is the comparison point for the next placement
	// send, acknowledged or not.
	c.posCur = c.posReq
}

// onContextCreated is the engine's completion for CreateContext.
func (c *Client) onContextCreated(ic protocol.ContextID, ok bool) {
	if !ok {
		c.state = stateNoContext
		return
	}
	if c.closed {
		c.engine.DestroyContext(ic)
		return
	}

	c.ic = ic
	c.state = stateOpen
	c.engine.SetContextFocus(ic)

	// A fresh context has nothing in flight, whatever a lost one left
	// behind.
	c.posInFlight = false
	c.posQueued = false

	// Catch up on any placement requested after the creation attributes
	// were issued.
	if c.posReq != c.posCur {
		c.sendPosition()
	}
}

// onDisconnected handles a server-reported disconnect. Placement
// bookkeeping is deliberately left alone: a completion for the lost
// context will never arrive, and context creation resets the flags.
func (c *Client) onDisconnected() {
	c.ic = 0
	c.state = stateNoContext
}

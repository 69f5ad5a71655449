package ximclient

import (
	"ximclient/protocol"
)

// Placement describes where the input method's candidate window should
// appear, relative to the top-left corner of Window.
type Placement struct {
	Window protocol.WindowID
	X      int16
	Y      int16
}

// contextState tracks the server-side input context.
type contextState int

const (
	stateNoContext contextState = iota
	stateOpening
	stateOpen
)

// Client coordinates one application's use of an input-method server.
// Create it with New, drive it from a single event-loop goroutine, and
// destroy it exactly once with Close.
type Client struct {
	noCopy noCopy

	engine protocol.Engine
	style  protocol.InputStyle

	state contextState
	ic    protocol.ContextID

	// posCur is the placement carried by the last send to the server;
	// posReq is the latest placement asked for by the application. The
	// coalescing logic in position.go compares the two to decide what a
	// send must carry.
	posCur Placement
	posReq Placement

	// posInFlight is set while a placement update awaits server
	// acknowledgment; posQueued records that a newer request arrived
	// meanwhile.
	posInFlight bool
	posQueued   bool

	callbacks callbackSet

	closed bool
}

// New creates a Client negotiating the given input style over engine.
// The style is immutable for the Client's lifetime. New installs the
// engine's notification callbacks; the engine must not be shared with
// another Client.
func New(engine protocol.Engine, style protocol.InputStyle) *Client {
	c := &Client{
		engine: engine,
		style:  style,
	}
	engine.SetNotifier(protocol.Notifier{
		Disconnected: c.onDisconnected,
		CommitString: c.onCommitString,
		ForwardEvent: c.onForwardEvent,
		PreeditStart: c.onPreeditStart,
		PreeditDraw:  c.onPreeditDraw,
		PreeditDone:  c.onPreeditDone,
	})
	engine.SetLogHandler(logLine)
	return c
}

// Style returns the input style negotiated at construction.
func (c *Client) Style() protocol.InputStyle {
	return c.style
}

// Close destroys the open input context, if any, and then the protocol
// engine, in that order. Calling Close more than once is a no-op; calling
// any other method after Close is a no-op too.
func (c *Client) Close() {
	if c.closed {
		return
	}
	c.closed = true
	if c.state == stateOpen {
		c.engine.DestroyContext(c.ic)
	}
	c.ic = 0
	c.state = stateNoContext
	c.engine.Close()
}

// noCopy triggers go vet's copylocks check; a Client must stay at one
// address because the engine keeps a reference back to it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

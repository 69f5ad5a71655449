package ximclient

import (
	"ximclient/ctext"
	"ximclient/protocol"
)

// ProcessEvent classifies one event from the application's event queue.
// It returns true if the input method consumed the event and false if the
// application must handle it itself.
//
// Feed every event here, not just key events: the protocol handshake
// consumes non-key traffic too. Key events are forwarded to the input
// method whenever an input context exists; before one exists they are
// reported unhandled while context creation proceeds in the background —
// there is no buffering of early keystrokes.
//
// Ownership of ev stays with the caller; it is not retained.
func (c *Client) ProcessEvent(ev *protocol.KeyEvent) bool {
	if c.closed || ev == nil {
		return false
	}
	if c.engine.FilterEvent(ev) {
		return true
	}
	if !ev.IsKey() {
		return false
	}
	if c.state != stateOpen {
		c.ensureOpen()
		return false
	}
	c.engine.ForwardEvent(c.ic, ev)
	return true
}

// decode turns server-supplied bytes into UTF-8 according to the
// negotiated encoding. Conversion failures become empty text; they are
// diagnosed through the process logger, never surfaced as errors.
func (c *Client) decode(raw []byte) string {
	switch c.engine.Encoding() {
	case protocol.EncodingCompoundText:
		s, err := ctext.ToUTF8(raw)
		if err != nil {
			logf("ximclient: compound text conversion failed: %v", err)
			return ""
		}
		return s
	default:
		return string(raw)
	}
}

// onCommitString delivers final composed text. Decoding is lazy: it only
// happens when a commit-string callback is actually installed.
func (c *Client) onCommitString(raw []byte) {
	if c.closed {
		return
	}
	fn := c.callbacks.commitString
	if fn == nil {
		return
	}
	fn(c.posReq.Window, c.decode(raw))
}

// onForwardEvent bounces an unconsumed key event to the application. The
// event is borrowed; the callback must not retain it.
func (c *Client) onForwardEvent(ev *protocol.KeyEvent) {
	if c.closed {
		return
	}
	if fn := c.callbacks.forwardEvent; fn != nil {
		fn(c.posReq.Window, ev)
	}
}

// The preedit notifications are gated on the negotiated style: a client
// that did not ask for StylePreeditCallbacks never sees them, installed
// callbacks or not.

func (c *Client) onPreeditStart() {
	if c.closed || !c.style.HasPreeditCallbacks() {
		return
	}
	if fn := c.callbacks.preeditStart; fn != nil {
		fn(c.posReq.Window)
	}
}

func (c *Client) onPreeditDraw(frame *protocol.PreeditDrawFrame) {
	if c.closed || !c.style.HasPreeditCallbacks() {
		return
	}
	fn := c.callbacks.preeditDraw
	if fn == nil {
		return
	}
	info := &PreeditInfo{client: c, frame: frame}
	defer info.invalidate()
	fn(c.posReq.Window, info)
}

func (c *Client) onPreeditDone() {
	if c.closed || !c.style.HasPreeditCallbacks() {
		return
	}
	if fn := c.callbacks.preeditDone; fn != nil {
		fn(c.posReq.Window)
	}
}

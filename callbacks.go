package ximclient

import (
	"ximclient/protocol"
)

// Callback signatures. The window passed to every callback is the target
// window of the most recent UpdatePosition call, not a window carried by
// the triggering notification.
type (
	// CommitStringFunc receives final composed text, decoded to UTF-8.
	CommitStringFunc func(win protocol.WindowID, text string)

	// ForwardEventFunc receives key events the input method did not use
	// for composition (typically releases, Escape, Enter, chords). The
	// event is borrowed and must not be retained past the call.
	ForwardEventFunc func(win protocol.WindowID, ev *protocol.KeyEvent)

	// PreeditStartFunc and PreeditDoneFunc bracket a live composition.
	PreeditStartFunc func(win protocol.WindowID)
	PreeditDoneFunc  func(win protocol.WindowID)

	// PreeditDrawFunc receives the current state of the text being
	// composed. info is valid only for the duration of the call.
	PreeditDrawFunc func(win protocol.WindowID, info *PreeditInfo)
)

// callbackSet is the registry of user handlers. Unset slots are skipped
// silently at dispatch.
type callbackSet struct {
	commitString CommitStringFunc
	forwardEvent ForwardEventFunc
	preeditStart PreeditStartFunc
	preeditDraw  PreeditDrawFunc
	preeditDone  PreeditDoneFunc
}

// SetCommitStringCallback installs the commit-string handler, replacing
// any previous one. Pass nil to remove it.
func (c *Client) SetCommitStringCallback(fn CommitStringFunc) {
	c.callbacks.commitString = fn
}

// SetForwardEventCallback installs the forwarded-key handler, replacing
// any previous one.
func (c *Client) SetForwardEventCallback(fn ForwardEventFunc) {
	c.callbacks.forwardEvent = fn
}

// SetPreeditStartCallback installs the preedit-start handler. It fires
// only when StylePreeditCallbacks was negotiated.
func (c *Client) SetPreeditStartCallback(fn PreeditStartFunc) {
	c.callbacks.preeditStart = fn
}

// SetPreeditDrawCallback installs the preedit-draw handler. It fires only
// when StylePreeditCallbacks was negotiated.
func (c *Client) SetPreeditDrawCallback(fn PreeditDrawFunc) {
	c.callbacks.preeditDraw = fn
}

// SetPreeditDoneCallback installs the preedit-done handler. It fires only
// when StylePreeditCallbacks was negotiated.
func (c *Client) SetPreeditDoneCallback(fn PreeditDoneFunc) {
	c.callbacks.preeditDone = fn
}

// PreeditInfo is a view over one preedit-draw notification: the composed
// text, which part of it changed, and how each character should be
// rendered. It is valid only inside the PreeditDrawFunc invocation that
// produced it; once the callback returns, every accessor yields zero
// values.
type PreeditInfo struct {
	client *Client
	frame  *protocol.PreeditDrawFrame
}

// invalidate severs the view from the frame when its callback returns.
func (p *PreeditInfo) invalidate() {
	p.client = nil
	p.frame = nil
}

// Status returns the frame's status bits (protocol.StatusNoString,
// protocol.StatusNoFeedback). With no bits set, Text holds the current
// composition.
func (p *PreeditInfo) Status() uint32 {
	if p.frame == nil {
		return 0
	}
	return p.frame.Status
}

// Caret returns the cursor offset within the composed text, in
// characters.
func (p *PreeditInfo) Caret() uint32 {
	if p.frame == nil {
		return 0
	}
	return p.frame.Caret
}

// ChangeFirst returns the index of the first changed character.
func (p *PreeditInfo) ChangeFirst() uint32 {
	if p.frame == nil {
		return 0
	}
	return p.frame.ChgFirst
}

// ChangeLength returns the length of the change, in characters.
func (p *PreeditInfo) ChangeLength() uint32 {
	if p.frame == nil {
		return 0
	}
	return p.frame.ChgLength
}

// Text decodes and returns the composed text. Decoding happens here, on
// access, not at notification receipt; an invalidated view returns "".
func (p *PreeditInfo) Text() string {
	if p.frame == nil {
		return ""
	}
	return p.client.decode(p.frame.Text)
}

// Feedback returns the per-character rendering hints. The slice borrows
// the frame and shares its lifetime; copy it to keep it.
func (p *PreeditInfo) Feedback() []protocol.Feedback {
	if p.frame == nil {
		return nil
	}
	return p.frame.FeedbackArray
}

// Package protocol defines the boundary between the ximclient core and an
// X Input Method protocol engine.
//
// An Engine is a wire-level XIM implementation (a native binding such as
// xcb-imdkit, or the in-memory simulator in protocol/sim). The core never
// touches the wire itself: it drives the engine through the Engine
// interface and receives server-driven notifications through a Notifier of
// typed callbacks registered once at client construction.
//
// All Engine methods and all Notifier callbacks are driven from a single
// event-loop goroutine. "Asynchronous" operations complete via a later
// callback on that same goroutine, never in parallel. For a single input
// context, completion callbacks arrive in the order the corresponding
// requests were issued.
package protocol

// ContextID identifies a server-side input context. Zero is never a valid
// context.
type ContextID uint32

// WindowID identifies an X window.
type WindowID uint32

// Point is a window-relative coordinate pair, increasing from the top-left
// corner.
type Point struct {
	X int16
	Y int16
}

// Encoding is the text encoding negotiated with the input-method server at
// connection time. All server-supplied text (commit strings, preedit text)
// arrives in this encoding.
type Encoding int

const (
	// EncodingUTF8 means server text is already UTF-8.
	EncodingUTF8 Encoding = iota

	// EncodingCompoundText means server text is ISO 2022 COMPOUND_TEXT and
	// must be converted (see package ctext).
	EncodingCompoundText
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "utf-8"
	case EncodingCompoundText:
		return "compound-text"
	default:
		return "unknown"
	}
}

// InputStyle is the capability negotiation for an input context. It is
// fixed for the lifetime of a client.
type InputStyle uint32

const (
	// StyleDefault lets the input method handle all composition internally;
	// the application only sees the final commit string.
	StyleDefault InputStyle = 0

	// StylePreeditCallbacks enables live composition callbacks (preedit
	// start/draw/done), so the application can display the text currently
	// being composed.
	StylePreeditCallbacks InputStyle = 1 << 1
)

// HasPreeditCallbacks reports whether live composition callbacks were
// negotiated.
func (s InputStyle) HasPreeditCallbacks() bool {
	return s&StylePreeditCallbacks != 0
}

// Feedback is a per-character rendering hint attached to preedit text by
// the server. Values follow the XIM feedback bits.
type Feedback uint32

const (
	// FeedbackReverse draws the character with foreground and background
	// swapped.
	FeedbackReverse Feedback = 1 << 0

	// FeedbackUnderline underlines the character.
	FeedbackUnderline Feedback = 1 << 1

	// FeedbackHighlight draws the character in some unique manner distinct
	// from reverse and underline.
	FeedbackHighlight Feedback = 1 << 2

	FeedbackPrimary   Feedback = 1 << 5
	FeedbackSecondary Feedback = 1 << 6
	FeedbackTertiary  Feedback = 1 << 7

	// Directional display preferences relative to the caret.
	FeedbackVisibleToForward  Feedback = 1 << 8
	FeedbackVisibleToBackward Feedback = 1 << 9
	FeedbackVisibleToCenter   Feedback = 1 << 10
)

// Preedit draw status bits.
const (
	// StatusNoString indicates the draw frame carries no text.
	StatusNoString uint32 = 1 << 0

	// StatusNoFeedback indicates the draw frame carries no feedback array.
	StatusNoFeedback uint32 = 1 << 1
)

// PreeditDrawFrame is one server-delivered edit notification for the text
// currently being composed. Text is raw bytes in the negotiated encoding;
// offsets count characters, not bytes.
type PreeditDrawFrame struct {
	// Status bits; see StatusNoString and StatusNoFeedback.
	Status uint32

	// Caret is the cursor offset within the composed text.
	Caret uint32

	// ChgFirst and ChgLength describe the changed character range.
	ChgFirst  uint32
	ChgLength uint32

	// Text is the composed text in the negotiated encoding.
	Text []byte

	// FeedbackArray holds one Feedback value per character of Text.
	FeedbackArray []Feedback
}

// AttributeList carries the context attributes recognized by an engine,
// used both at context creation and for later value updates. Nil fields
// are omitted from the request.
//
// Spot is the spot-location attribute nested under the preedit attribute
// group on the wire; engines are responsible for that framing.
type AttributeList struct {
	Style        *InputStyle
	ClientWindow *WindowID
	FocusWindow  *WindowID
	Spot         *Point
}

// Notifier is the set of typed engine-to-client callbacks. A client
// installs it once with Engine.SetNotifier before issuing any request.
// Nil callbacks are skipped by the engine.
//
// CommitString and PreeditDraw deliver raw bytes in the negotiated
// encoding; decoding is the client's concern. The *KeyEvent passed to
// ForwardEvent and the *PreeditDrawFrame passed to PreeditDraw are
// borrowed: they are valid only for the duration of the callback.
type Notifier struct {
	// Disconnected reports that the server closed the connection; the
	// input context no longer exists.
	Disconnected func()

	// CommitString delivers final composed text.
	CommitString func(text []byte)

	// ForwardEvent bounces a key event the input method did not consume
	// back to the application.
	ForwardEvent func(ev *KeyEvent)

	// Preedit lifecycle for live composition.
	PreeditStart func()
	PreeditDraw  func(frame *PreeditDrawFrame)
	PreeditDone  func()
}

// Engine is a wire-level XIM protocol implementation.
//
// Open, CreateContext and SetContextValues are asynchronous: they return
// immediately and signal completion through the supplied callback, on the
// same goroutine that drives the engine. Completion callbacks of the same
// kind arrive in request order for a single context.
type Engine interface {
	// SetNotifier installs the engine-to-client notification callbacks.
	// It must be called before Open and not be called again afterwards.
	SetNotifier(n Notifier)

	// SetLogHandler installs a sink for the engine's diagnostic lines.
	// Lines may be delivered from any goroutine.
	SetLogHandler(fn func(line string))

	// Open establishes the server connection. done receives false if the
	// connection could not be established.
	Open(done func(ok bool))

	// CreateContext asks the server to create an input context with the
	// given attributes. done receives the new context id, or ok=false on
	// failure.
	CreateContext(attrs AttributeList, done func(ic ContextID, ok bool))

	// SetContextValues updates attributes on an existing context. done is
	// invoked when the server acknowledges the update. Updates against a
	// context that no longer exists are dropped without completion.
	SetContextValues(ic ContextID, attrs AttributeList, done func())

	// SetContextFocus gives the context input focus.
	SetContextFocus(ic ContextID)

	// FilterEvent reports whether the event was consumed internally as
	// part of the protocol handshake.
	FilterEvent(ev *KeyEvent) bool

	// ForwardEvent hands a raw key event to the input method for
	// composition.
	ForwardEvent(ic ContextID, ev *KeyEvent)

	// DestroyContext destroys a context. Pending completions for it are
	// discarded.
	DestroyContext(ic ContextID)

	// Encoding returns the negotiated text encoding.
	Encoding() Encoding

	// Close tears down the connection and releases the engine. No
	// callbacks are delivered after Close returns.
	Close()
}

// Package sim provides an in-memory input-method engine implementing
// protocol.Engine, standing in for a native XIM binding in examples and
// tests.
//
// The simulator reproduces the scheduling model of the real protocol:
// Open, CreateContext and SetContextValues complete asynchronously, in
// FIFO order, when the application drains the queue with DeliverPending —
// the moral equivalent of reading the X event queue. Composition is
// deliberately trivial: printable key presses accumulate preedit text,
// Return commits it, Escape abandons it, and everything else bounces back
// through the forward-event notification.
package sim

import (
	"fmt"

	"ximclient/ctext"
	"ximclient/protocol"
)

// ServerWindow is the window the simulated server addresses its own
// protocol traffic to. FilterEvent consumes non-key events carrying it.
const ServerWindow protocol.WindowID = 0xfeed

// Key codes the composition model understands. The simulator reads the
// keycode byte as ASCII; real keyboards need a keymap, a simulator does
// not.
const (
	keyBackspace = 0x08
	keyReturn    = 0x0d
	keyEscape    = 0x1b
)

// Config configures a simulated engine.
type Config struct {
	// ServerName is the input-method server name, for log lines only.
	ServerName string

	// Encoding is the text encoding the server pretends to have
	// negotiated. Commit strings and preedit text are produced in it.
	Encoding protocol.Encoding
}

// Stats counts requests the engine has accepted, for assertions.
type Stats struct {
	Opens        int
	Creates      int
	ValueUpdates int
	Forwards     int
}

// inputContext is the server-side state for one created context.
type inputContext struct {
	style        protocol.InputStyle
	clientWindow protocol.WindowID
	focusWindow  protocol.WindowID
	spot         protocol.Point
	focused      bool
	preedit      []rune
}

// Engine is the simulated input-method engine. Like a real engine it must
// be driven from a single goroutine.
type Engine struct {
	cfg      Config
	notifier protocol.Notifier
	logFn    func(string)

	open     bool
	closed   bool
	failOpen bool

	nextIC   protocol.ContextID
	contexts map[protocol.ContextID]*inputContext

	pending []func()

	stats Stats
}

var _ protocol.Engine = (*Engine)(nil)

// New creates a simulated engine.
func New(cfg Config) *Engine {
	if cfg.ServerName == "" {
		cfg.ServerName = "local"
	}
	return &Engine{
		cfg:      cfg,
		nextIC:   1,
		contexts: make(map[protocol.ContextID]*inputContext),
	}
}

// FailNextOpen makes the next Open complete unsuccessfully.
func (e *Engine) FailNextOpen() {
	e.failOpen = true
}

// Disconnect simulates the server dropping the connection: all contexts
// are destroyed and the Disconnected notification is queued.
func (e *Engine) Disconnect() {
	if !e.open {
		return
	}
	e.open = false
	clear(e.contexts)
	e.logf("sim: server %q disconnected", e.cfg.ServerName)
	e.enqueue(func() {
		if e.notifier.Disconnected != nil {
			e.notifier.Disconnected()
		}
	})
}

// DeliverPending drains the completion queue, invoking callbacks in the
// order their requests were issued. Callbacks may enqueue further work;
// it is drained too. Returns the number of callbacks delivered.
func (e *Engine) DeliverPending() int {
	n := 0
	for len(e.pending) > 0 {
		next := e.pending[0]
		e.pending = e.pending[1:]
		next()
		n++
	}
	return n
}

// HasPending reports whether undelivered completions remain.
func (e *Engine) HasPending() bool {
	return len(e.pending) > 0
}

// Stats returns request counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Context state accessors for tests.

// Spot returns the last spot location set on ic.
func (e *Engine) Spot(ic protocol.ContextID) (protocol.Point, bool) {
	ctx, ok := e.contexts[ic]
	if !ok {
		return protocol.Point{}, false
	}
	return ctx.spot, true
}

// ClientWindow returns the client window bound to ic.
func (e *Engine) ClientWindow(ic protocol.ContextID) (protocol.WindowID, bool) {
	ctx, ok := e.contexts[ic]
	if !ok {
		return 0, false
	}
	return ctx.clientWindow, true
}

// FocusWindow returns the focus window bound to ic.
func (e *Engine) FocusWindow(ic protocol.ContextID) (protocol.WindowID, bool) {
	ctx, ok := e.contexts[ic]
	if !ok {
		return 0, false
	}
	return ctx.focusWindow, true
}

// Focused reports whether ic holds input focus.
func (e *Engine) Focused(ic protocol.ContextID) bool {
	ctx, ok := e.contexts[ic]
	return ok && ctx.focused
}

// protocol.Engine implementation.

func (e *Engine) SetNotifier(n protocol.Notifier) {
	e.notifier = n
}

func (e *Engine) SetLogHandler(fn func(string)) {
	e.logFn = fn
}

func (e *Engine) Open(done func(ok bool)) {
	if e.closed {
		return
	}
	e.stats.Opens++
	fail := e.failOpen
	e.failOpen = false
	e.enqueue(func() {
		if fail {
			e.logf("sim: open of %q refused", e.cfg.ServerName)
			done(false)
			return
		}
		e.open = true
		e.logf("sim: connected to %q (%s)", e.cfg.ServerName, e.cfg.Encoding)
		done(true)
	})
}

func (e *Engine) CreateContext(attrs protocol.AttributeList, done func(ic protocol.ContextID, ok bool)) {
	if e.closed {
		return
	}
	e.stats.Creates++
	e.enqueue(func() {
		if !e.open {
			done(0, false)
			return
		}
		ic := e.nextIC
		e.nextIC++
		ctx := &inputContext{}
		ctx.apply(attrs)
		e.contexts[ic] = ctx
		e.logf("sim: created input context %d", ic)
		done(ic, true)
	})
}

func (e *Engine) SetContextValues(ic protocol.ContextID, attrs protocol.AttributeList, done func()) {
	if e.closed {
		return
	}
	e.enqueue(func() {
		ctx, ok := e.contexts[ic]
		if !ok {
			// Update against a destroyed context: dropped, no completion.
			return
		}
		e.stats.ValueUpdates++
		ctx.apply(attrs)
		done()
	})
}

func (e *Engine) SetContextFocus(ic protocol.ContextID) {
	if ctx, ok := e.contexts[ic]; ok {
		ctx.focused = true
	}
}

func (e *Engine) FilterEvent(ev *protocol.KeyEvent) bool {
	return !ev.IsKey() && ev.Window == ServerWindow
}

func (e *Engine) ForwardEvent(ic protocol.ContextID, ev *protocol.KeyEvent) {
	ctx, ok := e.contexts[ic]
	if !ok {
		return
	}
	e.stats.Forwards++
	if !ev.IsPress() {
		e.bounce(*ev)
		return
	}
	switch {
	case ev.Detail == keyReturn:
		e.commit(ctx)
	case ev.Detail == keyEscape:
		e.abandon(ctx)
	case ev.Detail == keyBackspace:
		if len(ctx.preedit) > 0 {
			ctx.preedit = ctx.preedit[:len(ctx.preedit)-1]
			e.draw(ctx)
		}
	case 0x20 <= ev.Detail && ev.Detail < 0x7f:
		wasEmpty := len(ctx.preedit) == 0
		ctx.preedit = append(ctx.preedit, rune(ev.Detail))
		if wasEmpty {
			e.start(ctx)
		}
		e.draw(ctx)
	default:
		e.bounce(*ev)
	}
}

func (e *Engine) DestroyContext(ic protocol.ContextID) {
	delete(e.contexts, ic)
	e.logf("sim: destroyed input context %d", ic)
}

func (e *Engine) Encoding() protocol.Encoding {
	return e.cfg.Encoding
}

func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.open = false
	e.pending = nil
	e.notifier = protocol.Notifier{}
	clear(e.contexts)
	e.logf("sim: closed %q", e.cfg.ServerName)
}

// Composition helpers. Notifications are queued like any other
// server-driven traffic.

func (e *Engine) start(ctx *inputContext) {
	if !ctx.style.HasPreeditCallbacks() {
		return
	}
	e.enqueue(func() {
		if e.notifier.PreeditStart != nil {
			e.notifier.PreeditStart()
		}
	})
}

func (e *Engine) draw(ctx *inputContext) {
	if !ctx.style.HasPreeditCallbacks() {
		return
	}
	text := string(ctx.preedit)
	caret := uint32(len(ctx.preedit))
	e.enqueue(func() {
		if e.notifier.PreeditDraw == nil {
			return
		}
		feedback := make([]protocol.Feedback, len([]rune(text)))
		for i := range feedback {
			feedback[i] = protocol.FeedbackUnderline
		}
		e.notifier.PreeditDraw(&protocol.PreeditDrawFrame{
			Caret:         caret,
			ChgFirst:      0,
			ChgLength:     caret,
			Text:          e.encode(text),
			FeedbackArray: feedback,
		})
	})
}

func (e *Engine) done(ctx *inputContext) {
	if !ctx.style.HasPreeditCallbacks() {
		return
	}
	e.enqueue(func() {
		if e.notifier.PreeditDone != nil {
			e.notifier.PreeditDone()
		}
	})
}

func (e *Engine) commit(ctx *inputContext) {
	if len(ctx.preedit) == 0 {
		return
	}
	text := string(ctx.preedit)
	ctx.preedit = nil
	e.done(ctx)
	e.enqueue(func() {
		if e.notifier.CommitString != nil {
			e.notifier.CommitString(e.encode(text))
		}
	})
}

func (e *Engine) abandon(ctx *inputContext) {
	if len(ctx.preedit) == 0 {
		return
	}
	ctx.preedit = nil
	e.done(ctx)
}

// bounce returns an event to the application via the forward-event
// notification. The event is copied: the caller's storage must not be
// retained into the queue.
func (e *Engine) bounce(ev protocol.KeyEvent) {
	e.enqueue(func() {
		if e.notifier.ForwardEvent != nil {
			e.notifier.ForwardEvent(&ev)
		}
	})
}

// encode renders text in the negotiated encoding.
func (e *Engine) encode(s string) []byte {
	if e.cfg.Encoding == protocol.EncodingCompoundText {
		return ctext.FromUTF8(s)
	}
	return []byte(s)
}

func (e *Engine) enqueue(fn func()) {
	e.pending = append(e.pending, fn)
}

func (e *Engine) logf(format string, args ...any) {
	if e.logFn != nil {
		e.logFn(fmt.Sprintf(format, args...))
	}
}

// apply copies the non-nil attributes onto the context.
func (c *inputContext) apply(attrs protocol.AttributeList) {
	if attrs.Style != nil {
		c.style = *attrs.Style
	}
	if attrs.ClientWindow != nil {
		c.clientWindow = *attrs.ClientWindow
	}
	if attrs.FocusWindow != nil {
		c.focusWindow = *attrs.FocusWindow
	}
	if attrs.Spot != nil {
		c.spot = *attrs.Spot
	}
}

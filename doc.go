// Package ximclient is the client-side coordination layer for the X Input
// Method (XIM) protocol.
//
// It sits between an application's event loop and an input-method server,
// turning low-level key events and server notifications into a small
// callback surface: committed text, forwarded key events, and live preedit
// updates. The wire protocol itself lives behind the protocol.Engine
// interface (see package protocol); this package owns the hard part on top
// of it — input-context lifecycle, coalescing of candidate-window
// placement updates against in-flight round-trips, and per-event
// filter/forward decisions.
//
// # Usage
//
// Construct one Client per application, feed it every event from the
// event queue, and tell it where the candidate window belongs:
//
//	client := ximclient.New(engine, protocol.StyleDefault)
//	defer client.Close()
//
//	client.SetCommitStringCallback(func(win protocol.WindowID, text string) {
//		insert(text)
//	})
//	client.SetForwardEventCallback(func(win protocol.WindowID, ev *protocol.KeyEvent) {
//		handleKey(ev)
//	})
//
//	for ev := range events {
//		if client.ProcessEvent(ev) {
//			continue // consumed by the input method
//		}
//		handleOther(ev)
//	}
//
// # Threading
//
// The Client is single-threaded and reentrant: engine completions arrive
// as callbacks nested inside calls the application makes, on the same
// event-loop goroutine. No Client method blocks. The one cross-thread
// piece is the process-wide diagnostic logger installed with SetLogger.
//
// A Client must not be copied after construction; the engine holds a
// back-reference to it for the lifetime of the connection.
package ximclient

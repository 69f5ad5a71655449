package protocol

// X11 event response types for key events. The high bit of the response
// byte marks events generated by SendEvent and is masked before
// classification.
const (
	ResponseKeyPress   uint8 = 2
	ResponseKeyRelease uint8 = 3

	syntheticMask uint8 = 0x80
)

// KeyEvent is a raw X key event as read off the application's event queue.
// The core forwards it byte-for-byte; interpretation of Detail and State
// belongs to the input method and the application.
//
// Ownership of a KeyEvent stays with whoever pulled it off the event
// queue. Engines and callbacks receive it borrowed and must not retain it
// past the call.
type KeyEvent struct {
	// Response is the X response-type byte, synthetic bit included.
	Response uint8

	// Detail is the platform keycode.
	Detail uint8

	// State is the modifier mask at the time of the event.
	State uint16

	// Window is the event window.
	Window WindowID

	// Time is the server timestamp in milliseconds.
	Time uint32
}

// Kind returns the response type with the synthetic bit masked off.
func (e *KeyEvent) Kind() uint8 {
	return e.Response &^ syntheticMask
}

// IsKey reports whether the event is a key press or key release.
func (e *KeyEvent) IsKey() bool {
	k := e.Kind()
	return k == ResponseKeyPress || k == ResponseKeyRelease
}

// IsPress reports whether the event is a key press.
func (e *KeyEvent) IsPress() bool {
	return e.Kind() == ResponseKeyPress
}

// IsRelease reports whether the event is a key release.
func (e *KeyEvent) IsRelease() bool {
	return e.Kind() == ResponseKeyRelease
}

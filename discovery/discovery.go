// Package discovery resolves which input-method server an X client should
// talk to.
//
// X11 applications learn the server name from the XMODIFIERS environment
// variable ("@im=name"); on modern desktops the name usually belongs to
// the XIM bridge of an IM daemon such as IBus or Fcitx. ProbeIBus offers
// a session-bus liveness check for the common IBus case, purely as a
// diagnostic: the XIM connection itself never touches D-Bus.
package discovery

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/godbus/dbus/v5"
)

// ibusBusName is the well-known name the IBus daemon owns on the session
// bus.
const ibusBusName = "org.freedesktop.IBus"

// ServerName returns the input-method server name from the XMODIFIERS
// environment variable. ok is false when no @im modifier is set, in which
// case the caller should fall back to the server's default.
func ServerName() (name string, ok bool) {
	return ParseModifiers(os.Getenv("XMODIFIERS"))
}

// ParseModifiers extracts the @im value from an XMODIFIERS string.
// Modifiers are @-prefixed tokens; the im modifier looks like "@im=ibus".
// An empty value ("@im=") counts as unset.
func ParseModifiers(modifiers string) (name string, ok bool) {
	for _, tok := range strings.Split(modifiers, "@") {
		tok = strings.TrimSpace(tok)
		if rest, found := strings.CutPrefix(tok, "im="); found && rest != "" {
			return rest, true
		}
	}
	return "", false
}

// ProbeIBus reports whether an IBus daemon owns its well-known name on
// the session bus. A false result with a nil error means the bus was
// reachable but no daemon is running; an error means the session bus
// itself could not be consulted.
func ProbeIBus(ctx context.Context) (bool, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return false, fmt.Errorf("connect session bus: %w", err)
	}

	var owned bool
	call := conn.BusObject().CallWithContext(ctx,
		"org.freedesktop.DBus.NameHasOwner", 0, ibusBusName)
	if call.Err != nil {
		return false, fmt.Errorf("query %s: %w", ibusBusName, call.Err)
	}
	if err := call.Store(&owned); err != nil {
		return false, fmt.Errorf("decode NameHasOwner reply: %w", err)
	}
	return owned, nil
}

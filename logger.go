package ximclient

import (
	"fmt"
	"strings"
	"sync"
)

// The process-wide diagnostic sink. Protocol engines may log from
// whatever goroutine drives their transport, so installation and
// invocation share one lock. Exactly one handler is active at a time;
// installing a new one replaces the old.
var (
	loggerMu sync.Mutex
	logger   func(line string)
)

// SetLogger installs the process-wide handler for diagnostic lines from
// the protocol engine. Lines arrive trimmed of surrounding whitespace.
// Pass nil to silence diagnostics. Installation is not cumulative: only
// the most recently installed handler is called.
//
// The handler runs under the logger lock and must not call SetLogger
// itself.
func SetLogger(fn func(line string)) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = fn
}

// logLine delivers one diagnostic line to the installed handler.
func logLine(line string) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger != nil {
		logger(strings.TrimSpace(line))
	}
}

// logf formats a client-side diagnostic through the same sink.
func logf(format string, args ...any) {
	logLine(fmt.Sprintf(format, args...))
}

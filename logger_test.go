package ximclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLoggerTrimsAndDelivers(t *testing.T) {
	defer SetLogger(nil)

	var lines []string
	SetLogger(func(line string) { lines = append(lines, line) })

	logLine("  engine: connected to server\n")
	logLine("plain")
	assert.Equal(t, []string{"engine: connected to server", "plain"}, lines)
}

func TestSetLoggerReplacesPreviousHandler(t *testing.T) {
	defer SetLogger(nil)

	var first, second int
	SetLogger(func(string) { first++ })
	SetLogger(func(string) { second++ })

	logf("a %d", 1)
	assert.Zero(t, first)
	assert.Equal(t, 1, second)

	SetLogger(nil)
	logLine("dropped")
	assert.Equal(t, 1, second)
}

func TestEngineLogLinesReachHandler(t *testing.T) {
	defer SetLogger(nil)

	var lines []string
	SetLogger(func(line string) { lines = append(lines, line) })

	engine := newFakeEngine()
	_ = New(engine, 0)
	engine.logFn("transport: hello ")
	assert.Equal(t, []string{"transport: hello"}, lines)
}

package ximclient

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ximclient/protocol"
)

func TestUpdatePositionSpotOnlyWhenWindowUnchanged(t *testing.T) {
	engine := newFakeEngine()
	c := openClient(t, engine, protocol.StyleDefault, 7)

	assert.True(t, c.UpdatePosition(7, 10, 20))
	require.Len(t, engine.setAttrs, 1)

	attrs := engine.setAttrs[0]
	assert.Nil(t, attrs.ClientWindow, "unchanged window must not resend window binding")
	assert.Nil(t, attrs.FocusWindow)
	require.NotNil(t, attrs.Spot)
	assert.Equal(t, protocol.Point{X: 10, Y: 20}, *attrs.Spot)
}

func TestUpdatePositionWindowChangeResendsBinding(t *testing.T) {
	engine := newFakeEngine()
	c := openClient(t, engine, protocol.StyleDefault, 7)

	require.True(t, c.UpdatePosition(9, 1, 2))
	require.Len(t, engine.setAttrs, 1)
	attrs := engine.setAttrs[0]
	require.NotNil(t, attrs.ClientWindow)
	assert.Equal(t, protocol.WindowID(9), *attrs.ClientWindow)
	require.NotNil(t, attrs.FocusWindow)
	assert.Equal(t, protocol.WindowID(9), *attrs.FocusWindow)
	require.NotNil(t, attrs.Spot)

	// The window-changed comparison runs against what was sent, not what
	// was acknowledged: a second move within window 9, issued after the
	// ack, must be spot-only.
	engine.completeSet(t)
	require.True(t, c.UpdatePosition(9, 3, 4))
	require.Len(t, engine.setAttrs, 2)
	assert.Nil(t, engine.setAttrs[1].ClientWindow)
}

func TestCoalescingLastValueWins(t *testing.T) {
	engine := newFakeEngine()
	c := openClient(t, engine, protocol.StyleDefault, 7)

	require.True(t, c.UpdatePosition(7, 10, 20))
	require.Len(t, engine.setDone, 1)

	// A burst of requests while the first is in flight; all defer.
	for i := 0; i < 50; i++ {
		assert.False(t, c.UpdatePosition(7, int16(i), int16(i)))
	}
	assert.False(t, c.UpdatePosition(7, 15, 25))
	assert.Len(t, engine.setAttrs, 1, "no second send before the ack")

	// One ack releases exactly one more send, carrying the last value.
	engine.completeSet(t)
	require.Len(t, engine.setAttrs, 2)
	assert.Equal(t, protocol.Point{X: 15, Y: 25}, *engine.setAttrs[1].Spot)

	// Draining the second ack releases nothing further.
	engine.completeSet(t)
	assert.Len(t, engine.setAttrs, 2)
}

func TestAtMostOneUpdateInFlight(t *testing.T) {
	engine := newFakeEngine()
	c := openClient(t, engine, protocol.StyleDefault, 7)

	// Interleave requests and acks arbitrarily; sends must never exceed
	// acks by more than one.
	step := 0
	for i := 0; i < 20; i++ {
		c.UpdatePosition(7, int16(i), 0)
		sends := len(engine.setAttrs)
		acks := step
		require.LessOrEqual(t, sends-acks, 1, "send %d outran acks", i)
		if i%3 == 0 && len(engine.setDone) > 0 {
			engine.completeSet(t)
			step++
		}
	}
}

func TestExampleScenario(t *testing.T) {
	// Two rapid updates in window 7 while the context is open and
	// nothing is in flight: first sends spot-only, second defers, the
	// ack triggers an automatic send of (15, 25).
	engine := newFakeEngine()
	c := openClient(t, engine, protocol.StyleDefault, 7)

	assert.True(t, c.UpdatePosition(7, 10, 20))
	assert.False(t, c.UpdatePosition(7, 15, 25))

	require.Len(t, engine.setAttrs, 1)
	assert.Nil(t, engine.setAttrs[0].ClientWindow)
	assert.Equal(t, protocol.Point{X: 10, Y: 20}, *engine.setAttrs[0].Spot)

	engine.completeSet(t)
	require.Len(t, engine.setAttrs, 2)
	assert.Equal(t, protocol.Point{X: 15, Y: 25}, *engine.setAttrs[1].Spot)
}

func TestQueuedValueMaySupersedeItself(t *testing.T) {
	engine := newFakeEngine()
	c := openClient(t, engine, protocol.StyleDefault, 7)

	require.True(t, c.UpdatePosition(7, 1, 1))
	assert.False(t, c.UpdatePosition(7, 2, 2))
	assert.False(t, c.UpdatePosition(7, 3, 3))

	engine.completeSet(t)
	require.Len(t, engine.setAttrs, 2)
	assert.Equal(t, protocol.Point{X: 3, Y: 3}, *engine.setAttrs[1].Spot)
}

func TestPlacementDeferredWhileOpening(t *testing.T) {
	engine := newFakeEngine()
	c := New(engine, protocol.StyleDefault)

	assert.False(t, c.UpdatePosition(7, 1, 1))
	assert.Len(t, engine.openDone, 1)
	assert.Empty(t, engine.setAttrs, "no value update without a context")
}

func TestPlacementCatchUpAfterCreation(t *testing.T) {
	engine := newFakeEngine()
	c := New(engine, protocol.StyleDefault)

	c.UpdatePosition(7, 1, 1)
	engine.completeOpen(t, true)

	// The creation request is on the wire with (1,1); a newer request
	// arrives before the context exists.
	assert.False(t, c.UpdatePosition(7, 9, 9))

	engine.completeCreate(t, true)
	require.Len(t, engine.setAttrs, 1, "creation must catch up on the newer placement")
	assert.Equal(t, protocol.Point{X: 9, Y: 9}, *engine.setAttrs[0].Spot)
}

func TestDisconnectWhileUpdateInFlight(t *testing.T) {
	engine := newFakeEngine()
	c := openClient(t, engine, protocol.StyleDefault, 7)

	require.True(t, c.UpdatePosition(7, 1, 1))
	assert.False(t, c.UpdatePosition(7, 2, 2)) // queued behind the in-flight one

	// The server drops the connection; the ack for the in-flight update
	// never arrives.
	engine.notifier.Disconnected()
	engine.setDone = nil

	// The next request re-opens; once the fresh context exists the stale
	// in-flight bookkeeping must not wedge placement updates forever.
	assert.False(t, c.UpdatePosition(7, 3, 3))
	engine.completeOpen(t, true)
	engine.completeCreate(t, true)

	require.True(t, c.UpdatePosition(7, 4, 4), "fresh context must accept sends")
}

func TestManyBurstsAlwaysConvergeToLastValue(t *testing.T) {
	engine := newFakeEngine()
	c := openClient(t, engine, protocol.StyleDefault, 7)

	for burst := 0; burst < 10; burst++ {
		n := burst%4 + 1
		var last protocol.Point
		for i := 0; i < n; i++ {
			last = protocol.Point{X: int16(burst), Y: int16(i)}
			c.UpdatePosition(7, last.X, last.Y)
		}
		for len(engine.setDone) > 0 {
			engine.completeSet(t)
		}
		got := *engine.setAttrs[len(engine.setAttrs)-1].Spot
		require.Equal(t, last, got, fmt.Sprintf("burst %d", burst))
	}
}

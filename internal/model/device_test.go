package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevice_SlotAccounting(t *testing.T) {
	d := NewDevice("d1", 2)
	a := NewComponent("a")
	b := NewComponent("b")

	d.Place(a)
	d.Place(b)

	assert.Equal(t, 2, d.PresentCount())
	assert.Equal(t, 2, d.Reserved())
	assert.Equal(t, 0, d.Unreserved())
	assert.False(t, d.HasEmptySlots())

	// Admitting a's departure frees a reservation but not a present slot.
	a.SetDestination(nil)
	d.MoveToLeaving(a)
	assert.Equal(t, 1, d.Reserved())
	assert.Equal(t, 1, d.Unreserved())
	assert.False(t, d.HasEmptySlots())
	assert.Equal(t, 1, d.LeavingCount())

	// a's prepare completed: slot physically free.
	d.Remove(a)
	assert.Equal(t, 1, d.PresentCount())
	assert.Equal(t, 0, d.LeavingCount())
	assert.True(t, d.HasEmptySlots())
}

func TestDevice_ReserveBindsOldestUnclaimedLeaving(t *testing.T) {
	d := NewDevice("d1", 2)
	a := NewComponent("a")
	b := NewComponent("b")
	d.Place(a)
	d.Place(b)

	d.MoveToLeaving(a)
	d.MoveToLeaving(b)

	x := NewComponent("x")
	x.SetDestination(d)
	d.Reserve(x)

	// x claims a, the oldest leaving member.
	require.Same(t, a, x.DestinationReplacement())
	require.Same(t, x, a.SourceForReplacement())
	assert.Nil(t, b.SourceForReplacement())

	y := NewComponent("y")
	y.SetDestination(d)
	d.Reserve(y)

	require.Same(t, b, y.DestinationReplacement())
	require.Same(t, y, b.SourceForReplacement())
	assert.Equal(t, 2, d.Reserved())
}

func TestDevice_ReserveWithEmptySlotHasNoReplacement(t *testing.T) {
	d := NewDevice("d1", 2)
	a := NewComponent("a")
	d.Place(a)

	x := NewComponent("x")
	x.SetDestination(d)
	d.Reserve(x)

	assert.Nil(t, x.DestinationReplacement())
	assert.Equal(t, 2, d.PresentCount())
	assert.Equal(t, 2, d.Reserved())
}

func TestDevice_ChooseLeavingPanicsWithoutCandidate(t *testing.T) {
	d := NewDevice("d1", 1)
	a := NewComponent("a")
	d.Place(a)

	// Device full, nothing leaving: the reservation guarantee is violated.
	x := NewComponent("x")
	x.SetDestination(d)
	assert.Panics(t, func() { d.Reserve(x) })
}

func TestComponent_ReplacementLinkIsInverse(t *testing.T) {
	a := NewComponent("a")
	x := NewComponent("x")

	a.SelectForReplacement(x)

	require.Same(t, x, a.SourceForReplacement())
	require.Same(t, a, x.DestinationReplacement())
}

func TestComponent_ArriveAtDestination(t *testing.T) {
	d1 := NewDevice("d1", 1)
	d2 := NewDevice("d2", 1)
	c := NewComponent("c")
	d1.Place(c)

	c.SetDestination(d2)
	c.BeginReservation()

	assert.Equal(t, 1, d1.LeavingCount())
	assert.Equal(t, 1, d2.PresentCount())

	c.RemoveFromCurrent()
	assert.Equal(t, 0, d1.PresentCount())
	assert.Equal(t, 0, d1.LeavingCount())

	c.ArriveAtDestination()
	assert.Same(t, d2, c.Device())
	assert.Nil(t, c.Destination())
}

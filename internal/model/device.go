package model

import (
	"fmt"

	"github.com/NikodemGapski/storage-system/pkg/storage"
)

// Device is a bounded-capacity container of components. Every mutable
// field is read and written only while the coordinator mutex is held (or
// inherited), so the struct itself carries no locking.
//
// The present list holds components currently resident or reserved to
// arrive; leaving holds components whose outbound transfer has been
// admitted and whose slot is a candidate for inheritance; waiting holds
// components blocked for a slot here, FIFO by admission attempt.
type Device struct {
	id       storage.DeviceID
	capacity int

	// reserved tracks the committed slot count incrementally so admission
	// checks stay O(1).
	reserved int

	present []*Component
	leaving []*Component
	waiting []*Component
}

// NewDevice creates an empty device with the given capacity.
func NewDevice(id storage.DeviceID, capacity int) *Device {
	return &Device{id: id, capacity: capacity}
}

// ID returns the device's identifier.
func (d *Device) ID() storage.DeviceID { return d.id }

// Capacity returns the device's immutable slot capacity.
func (d *Device) Capacity() int { return d.capacity }

// Reserved returns the committed slot count.
func (d *Device) Reserved() int { return d.reserved }

// PresentCount returns the number of resident or reserved-to-arrive
// components.
func (d *Device) PresentCount() int { return len(d.present) }

// LeavingCount returns the number of admitted outbound components.
func (d *Device) LeavingCount() int { return len(d.leaving) }

// WaitingCount returns the number of components queued for a slot here.
func (d *Device) WaitingCount() int { return len(d.waiting) }

// Waiting returns the FIFO queue of components blocked for a slot on this
// device. The caller must not mutate the returned slice.
func (d *Device) Waiting() []*Component { return d.waiting }

// Unreserved returns how many slots can still be reserved, counting slots
// of leaving components that have not yet been claimed.
func (d *Device) Unreserved() int {
	if d.reserved >= d.capacity {
		return 0
	}
	return d.capacity - d.reserved
}

// HasEmptySlots reports whether a slot can be reserved without claiming a
// leaving component's slot.
func (d *Device) HasEmptySlots() bool {
	return len(d.present) < d.capacity
}

// Place installs a component as initially resident. Used only while
// building the registry.
func (d *Device) Place(c *Component) {
	c.current = d
	d.present = append(d.present, c)
	d.reserved++
}

// Reserve commits a slot on this device to the component, claiming the
// oldest unclaimed leaving component's slot when no empty slot exists.
func (d *Device) Reserve(c *Component) {
	d.chooseLeaving(c)
	d.present = append(d.present, c)
	d.reserved++
}

// ReserveWithReplacement commits a slot to the component, binding it to
// inherit the given replacement's slot. Used during cycle admission, where
// the slot assignment is fixed by the cycle structure.
func (d *Device) ReserveWithReplacement(c, replacement *Component) {
	replacement.SelectForReplacement(c)
	d.present = append(d.present, c)
	d.reserved++
}

// MoveToLeaving marks a resident component as admitted-outbound, making
// its slot a candidate for inheritance.
func (d *Device) MoveToLeaving(c *Component) {
	d.leaving = append(d.leaving, c)
	d.reserved--
}

// Remove erases the component from the present and leaving lists once its
// outbound prepare has completed.
func (d *Device) Remove(c *Component) {
	d.present = removeComponent(d.present, c)
	d.leaving = removeComponent(d.leaving, c)
}

// chooseLeaving binds the choosing component to the oldest leaving
// component whose slot has not yet been claimed. With an empty slot
// available no binding is needed. Admission guarantees an unclaimed
// leaving component exists whenever the device is full; a miss is an
// internal invariant violation.
func (d *Device) chooseLeaving(choosing *Component) {
	if d.HasEmptySlots() {
		choosing.destinationReplacement = nil
		return
	}
	for _, c := range d.leaving {
		if !c.IsSelectedForReplacement() {
			c.SelectForReplacement(choosing)
			return
		}
	}
	panic(fmt.Sprintf("storage-system internal: no unclaimed leaving component on device '%s' despite reservation guarantee", d.id))
}

// LetReserve wakes the head of the waiting queue, handing it the critical
// section; with nobody waiting it releases the mutex instead.
func (d *Device) LetReserve(mu *FairMutex) {
	if len(d.waiting) > 0 {
		d.waiting[0].reservation.Release()
		return
	}
	mu.Unlock()
}

func (d *Device) enqueueWaiting(c *Component) {
	d.waiting = append(d.waiting, c)
}

func (d *Device) dequeueWaiting(c *Component) {
	d.waiting = removeComponent(d.waiting, c)
}

func removeComponent(s []*Component, c *Component) []*Component {
	for i, x := range s {
		if x == c {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

package model

import (
	"github.com/NikodemGapski/storage-system/pkg/storage"
)

// Component is an addressable unit of data placed on at most one device.
// Like Device, all mutable state is guarded by the coordinator mutex; the
// two signals are the only cross-goroutine notification mechanisms.
type Component struct {
	id storage.ComponentID

	// reservation wakes the component out of a device's waiting queue;
	// handoff releases the component's successor into its perform phase.
	reservation Signal
	handoff     Signal

	// sourceForReplacement points at the incoming component that will
	// inherit this component's slot; destinationReplacement points at the
	// outbound component whose slot this component inherits. The two are a
	// consistent inverse pair.
	sourceForReplacement    *Component
	destinationReplacement  *Component
	isWaitingForReplacement bool

	isOperatedOn bool
	current      *Device
	destination  *Device

	// path is the member list of an admitted cycle, shared among all cycle
	// members and consumed as the wakeup chain progresses.
	path *CyclePath
}

// NewComponent creates an idle component not yet placed on any device.
func NewComponent(id storage.ComponentID) *Component {
	return &Component{
		id:          id,
		reservation: newSignal(),
		handoff:     newSignal(),
	}
}

// ID returns the component's identifier.
func (c *Component) ID() storage.ComponentID { return c.id }

// Device returns the device the component resides on, or nil during an
// add and after a remove.
func (c *Component) Device() *Device { return c.current }

// Destination returns the device the ongoing transfer targets, or nil.
func (c *Component) Destination() *Device { return c.destination }

// SetDestination records the target of the ongoing transfer.
func (c *Component) SetDestination(d *Device) { c.destination = d }

// IsOperatedOn reports whether a transfer for this component is in
// progress.
func (c *Component) IsOperatedOn() bool { return c.isOperatedOn }

// StartOperating marks the component as having a transfer in progress.
func (c *Component) StartOperating() { c.isOperatedOn = true }

// EndOperating clears the transfer-in-progress mark.
func (c *Component) EndOperating() { c.isOperatedOn = false }

// IsSelectedForReplacement reports whether some incoming component has
// claimed this component's slot.
func (c *Component) IsSelectedForReplacement() bool {
	return c.sourceForReplacement != nil
}

// SelectForReplacement binds the selecting component to inherit this
// component's slot, installing both directions of the replacement link.
func (c *Component) SelectForReplacement(selecting *Component) {
	c.sourceForReplacement = selecting
	selecting.destinationReplacement = c
}

// SourceForReplacement returns the incoming component bound to inherit
// this component's slot, or nil.
func (c *Component) SourceForReplacement() *Component { return c.sourceForReplacement }

// DestinationReplacement returns the outbound component whose slot this
// component inherits, or nil.
func (c *Component) DestinationReplacement() *Component { return c.destinationReplacement }

func (c *Component) unselectForReplacement() {
	c.sourceForReplacement.destinationReplacement = nil
	c.sourceForReplacement = nil
}

// isReplacerWaiting reports whether the component inheriting this slot has
// already blocked in its perform gate.
func (c *Component) isReplacerWaiting() bool {
	return c.sourceForReplacement != nil && c.sourceForReplacement.isWaitingForReplacement
}

// Path returns the cycle member list this component belongs to, or nil.
func (c *Component) Path() *CyclePath { return c.path }

// SetPath records the component's membership in an admitted cycle.
func (c *Component) SetPath(p *CyclePath) { c.path = p }

// WaitOnReservation enqueues the component on its destination's waiting
// queue, releases the mutex, and blocks until a waker hands over the
// critical section. On return the goroutine is inside the critical section
// and the component has been dequeued.
func (c *Component) WaitOnReservation(mu *FairMutex) {
	c.destination.enqueueWaiting(c)
	mu.Unlock()
	c.reservation.Wait()
	// Critical section inherited from the waker.
	c.destination.dequeueWaiting(c)
}

// WakeUpNextInCycle pops this component off the shared cycle path and
// hands the critical section to the next member still blocked; the last
// member releases the mutex instead.
func (c *Component) WakeUpNextInCycle(mu *FairMutex) {
	next := c.path.popAndBack()
	c.path = nil
	if next != nil {
		next.reservation.Release()
		// Critical section handed off.
		return
	}
	mu.Unlock()
}

func (c *Component) moveToLeaving() {
	if c.current != nil {
		c.current.MoveToLeaving(c)
	}
}

func (c *Component) reserve() {
	if c.destination != nil {
		c.destination.Reserve(c)
	}
}

// BeginReservation marks the component as leaving its current device and
// commits its slot on the destination.
func (c *Component) BeginReservation() {
	c.moveToLeaving()
	c.reserve()
}

// BeginCycleReservation admits an entire cycle at once: every member
// leaves its current device and reserves the next member's vacated slot.
func BeginCycleReservation(cycle *CyclePath) {
	for _, c := range cycle.members {
		c.moveToLeaving()
	}
	for i, c := range cycle.members {
		next := cycle.members[(i+1)%len(cycle.members)]
		c.destination.ReserveWithReplacement(c, next)
	}
}

// WaitForReplacement blocks until the component whose slot we inherit has
// finished its prepare. With no live replacement link the slot is already
// vacant and the call returns immediately, mutex still held. Otherwise the
// mutex is released before blocking and the critical section is inherited
// on wakeup.
func (c *Component) WaitForReplacement(mu *FairMutex) {
	if c.destinationReplacement == nil {
		return
	}
	c.isWaitingForReplacement = true
	replacement := c.destinationReplacement
	mu.Unlock()
	replacement.handoff.Wait()
	// Critical section inherited.
	c.isWaitingForReplacement = false
}

// RemoveFromCurrent erases the component from its current device's present
// and leaving lists once its prepare has completed.
func (c *Component) RemoveFromCurrent() {
	if c.current != nil {
		c.current.Remove(c)
	}
}

// NotifyReplacement breaks the replacement link to the component inheriting
// this slot, if any. An inheritor already blocked in its perform gate is
// released into its perform phase and inherits the critical section; an
// inheritor not blocked yet will not wait at all, and the mutex is released.
func (c *Component) NotifyReplacement(mu *FairMutex) {
	if c.isReplacerWaiting() {
		c.unselectForReplacement()
		c.handoff.Release()
		// Critical section handed off.
		return
	}
	if c.IsSelectedForReplacement() {
		// Tell the selecting component not to wait for us.
		c.unselectForReplacement()
	}
	mu.Unlock()
}

// ArriveAtDestination completes the relocation. The component has been a
// member of the destination's present list since its reservation, so only
// the device pointers change.
func (c *Component) ArriveAtDestination() {
	c.current = c.destination
	c.destination = nil
}

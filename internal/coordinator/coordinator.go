// Package coordinator implements the admission, slot-reservation, and
// progress gates of the storage system. Every gate runs under one fair
// global mutex; wakeups hand the critical section directly to the woken
// goroutine, so decisions made in one gate are observed atomically by the
// next.
package coordinator

import (
	"time"

	"go.uber.org/zap"

	"github.com/NikodemGapski/storage-system/internal/metrics"
	"github.com/NikodemGapski/storage-system/internal/model"
)

// Coordinator owns the global fair mutex and exposes the gates the
// transfer driver interleaves with the user's prepare/perform callbacks.
//
// Gate contract: SetupPrepare* are entered with the mutex held (acquired
// by the driver for validation) and return with it released or handed
// off; the remaining gates acquire it themselves and release or hand it
// off before returning. The mutex is never held across a user callback or
// a signal wait.
type Coordinator struct {
	mu     *model.FairMutex
	logger *zap.Logger
	met    *metrics.Metrics
}

// New creates a coordinator. The metrics handle may be nil.
func New(logger *zap.Logger, met *metrics.Metrics) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		mu:     model.NewFairMutex(),
		logger: logger,
		met:    met,
	}
}

// Lock acquires the global mutex. Used by the driver around validation.
func (c *Coordinator) Lock() { c.mu.Lock() }

// Unlock releases the global mutex.
func (c *Coordinator) Unlock() { c.mu.Unlock() }

// SetupPrepareAdd admits an arriving component with no source device.
// With the destination fully reserved the caller blocks in the device's
// FIFO queue until a waker hands over a slot.
func (c *Coordinator) SetupPrepareAdd(comp *model.Component, destination *model.Device) {
	comp.StartOperating()
	comp.SetDestination(destination)

	if destination.Unreserved() == 0 {
		c.waitForSlot(comp, destination)
	}
	comp.BeginReservation()
	c.logger.Debug("add admitted",
		zap.String("component", string(comp.ID())),
		zap.String("destination", string(destination.ID())))
	c.mu.Unlock()
}

// SetupPrepareMove admits a component relocating between two devices.
// With the destination fully reserved the coordinator first looks for a
// cycle of pending moves rooted at the component; a found cycle is
// admitted whole, in one atomic burst of critical-section handoffs.
func (c *Coordinator) SetupPrepareMove(comp *model.Component, source, destination *model.Device) {
	comp.StartOperating()
	comp.SetDestination(destination)

	if destination.Unreserved() == 0 {
		if model.FindCycle(comp) {
			path := comp.Path()
			model.BeginCycleReservation(path)
			c.logger.Debug("cycle admitted",
				zap.String("component", string(comp.ID())),
				zap.Int("length", path.Len()))
			if c.met != nil {
				c.met.CyclesAdmittedTotal.Inc()
				c.met.CycleLength.Observe(float64(path.Len()))
			}
		} else {
			// No leaving component left to claim; queue up for one.
			c.waitForSlot(comp, destination)
		}

		if comp.Path() != nil {
			// Admitted as part of a cycle, either our own or one whose
			// wakeup chain reached us.
			comp.WakeUpNextInCycle(c.mu)
			return
		}
		comp.BeginReservation()
		c.logger.Debug("move admitted",
			zap.String("component", string(comp.ID())),
			zap.String("source", string(source.ID())),
			zap.String("destination", string(destination.ID())))
		source.LetReserve(c.mu)
		return
	}

	comp.BeginReservation()
	c.logger.Debug("move admitted",
		zap.String("component", string(comp.ID())),
		zap.String("source", string(source.ID())),
		zap.String("destination", string(destination.ID())))
	source.LetReserve(c.mu)
}

// SetupPrepareRemove admits a component's removal. Removal never waits:
// the component starts leaving immediately and its slot becomes a
// candidate for inheritance on the source device.
func (c *Coordinator) SetupPrepareRemove(comp *model.Component, source *model.Device) {
	comp.StartOperating()
	comp.SetDestination(nil)
	comp.BeginReservation()
	c.logger.Debug("remove admitted",
		zap.String("component", string(comp.ID())),
		zap.String("source", string(source.ID())))
	source.LetReserve(c.mu)
}

// FinalizePrepare erases the component from its old device and releases
// the component inheriting its slot, if that component is already blocked
// in its perform gate.
func (c *Coordinator) FinalizePrepare(comp *model.Component) {
	c.mu.Lock()
	comp.RemoveFromCurrent()
	comp.NotifyReplacement(c.mu)
}

// SetupPerform blocks the component until the prepare of the component
// whose slot it inherits has completed.
func (c *Coordinator) SetupPerform(comp *model.Component) {
	c.mu.Lock()
	comp.WaitForReplacement(c.mu)
	c.mu.Unlock()
}

// FinalizePerform completes the transfer: the component arrives at its
// destination and stops being operated on.
func (c *Coordinator) FinalizePerform(comp *model.Component) {
	c.mu.Lock()
	comp.ArriveAtDestination()
	comp.EndOperating()
	c.mu.Unlock()
}

// waitForSlot parks the component in the destination's FIFO queue until a
// waker hands over the critical section together with a claimable slot.
func (c *Coordinator) waitForSlot(comp *model.Component, destination *model.Device) {
	c.logger.Debug("component enqueued",
		zap.String("component", string(comp.ID())),
		zap.String("destination", string(destination.ID())),
		zap.Int("queue_position", destination.WaitingCount()))
	var start time.Time
	if c.met != nil {
		c.met.ComponentsWaiting.Inc()
		start = time.Now()
	}
	comp.WaitOnReservation(c.mu)
	if c.met != nil {
		c.met.ComponentsWaiting.Dec()
		c.met.AdmissionWaitDuration.Observe(time.Since(start).Seconds())
	}
}

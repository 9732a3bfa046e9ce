// Package simulation drives a storage system with a randomized transfer
// workload for benchmarking and soak testing.
package simulation

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	storagesystem "github.com/NikodemGapski/storage-system"
	"github.com/NikodemGapski/storage-system/internal/config"
	"github.com/NikodemGapski/storage-system/internal/util/workerpool"
	"github.com/NikodemGapski/storage-system/pkg/storage"
)

// Workload generates and submits randomized transfers against a storage
// system. The generator tracks a conservative projection of each device's
// occupancy and only targets devices with projected free capacity, so
// every submitted transfer is admitted without waiting and runs always
// terminate.
type Workload struct {
	sys    *storagesystem.System
	cfg    *config.Config
	logger *zap.Logger

	mu        sync.Mutex
	rng       *rand.Rand
	placement map[storage.ComponentID]storage.DeviceID
	inFlight  map[storage.ComponentID]bool
	projected map[storage.DeviceID]int
	devices   []storage.DeviceID

	submitted uint64
	accepted  uint64
	rejected  uint64
}

// NewWorkload creates a workload over the topology described in the
// configuration. The system must have been built from the same topology.
func NewWorkload(sys *storagesystem.System, cfg *config.Config, logger *zap.Logger) *Workload {
	w := &Workload{
		sys:       sys,
		cfg:       cfg,
		logger:    logger,
		rng:       rand.New(rand.NewSource(cfg.Workload.Seed)),
		placement: make(map[storage.ComponentID]storage.DeviceID),
		inFlight:  make(map[storage.ComponentID]bool),
		projected: make(map[storage.DeviceID]int),
	}
	for id := range cfg.Topology.Devices {
		w.devices = append(w.devices, storage.DeviceID(id))
	}
	for component, device := range cfg.Topology.Placement {
		w.placement[storage.ComponentID(component)] = storage.DeviceID(device)
		w.projected[storage.DeviceID(device)]++
	}
	return w
}

// Run submits the configured number of transfers through a worker pool
// and blocks until every submitted transfer has completed. Canceling the
// context stops further submissions; transfers already submitted still run
// to completion before Run returns.
func (w *Workload) Run(ctx context.Context) error {
	pool := workerpool.New(&workerpool.Config{
		Name:       "transfers",
		MaxWorkers: w.cfg.Workload.Workers,
		QueueSize:  w.cfg.Workload.QueueSize,
		Logger:     w.logger,
	})

	reporterDone := make(chan struct{})
	go w.reportStats(reporterDone)

	start := time.Now()
	for i := 0; i < w.cfg.Workload.Transfers; i++ {
		if ctx.Err() != nil {
			break
		}
		t := w.nextTransfer()
		if t == nil {
			// The topology has no room for any operation right now; let
			// in-flight transfers drain and try again.
			time.Sleep(time.Millisecond)
			i--
			continue
		}
		task := workerpool.Task{
			ID: uuid.NewString(),
			Run: func(context.Context) error {
				return w.execute(t)
			},
		}
		if err := pool.Submit(ctx, task); err != nil {
			w.abandon(t)
			break
		}
		atomic.AddUint64(&w.submitted, 1)
	}

	pool.Close()
	close(reporterDone)

	w.logger.Info("workload finished",
		zap.Uint64("submitted", atomic.LoadUint64(&w.submitted)),
		zap.Uint64("accepted", atomic.LoadUint64(&w.accepted)),
		zap.Uint64("rejected", atomic.LoadUint64(&w.rejected)),
		zap.Duration("elapsed", time.Since(start)))
	for _, ds := range w.sys.Stats() {
		w.logger.Info("device state",
			zap.String("device", string(ds.Device)),
			zap.Int("capacity", ds.Capacity),
			zap.Int("present", ds.Present),
			zap.Int("reserved", ds.Reserved))
	}
	return nil
}

// nextTransfer picks the next randomized operation, updating the
// occupancy projection so the transfer is guaranteed admissible.
func (w *Workload) nextTransfer() storage.Transfer {
	w.mu.Lock()
	defer w.mu.Unlock()

	wl := w.cfg.Workload
	total := wl.AddWeight + wl.MoveWeight + wl.RemoveWeight
	roll := w.rng.Intn(total)

	switch {
	case roll < wl.AddWeight:
		if t := w.nextAdd(); t != nil {
			return t
		}
		return w.nextRemove()
	case roll < wl.AddWeight+wl.MoveWeight:
		if t := w.nextMove(); t != nil {
			return t
		}
		return w.nextAdd()
	default:
		if t := w.nextRemove(); t != nil {
			return t
		}
		return w.nextAdd()
	}
}

func (w *Workload) nextAdd() storage.Transfer {
	destination, ok := w.pickFreeDevice("")
	if !ok {
		return nil
	}
	component := storage.ComponentID("comp-" + uuid.NewString()[:8])
	w.projected[destination]++
	w.inFlight[component] = true
	return w.makeTransfer(component, "", destination)
}

func (w *Workload) nextMove() storage.Transfer {
	component, source, ok := w.pickIdleComponent()
	if !ok {
		return nil
	}
	destination, ok := w.pickFreeDevice(source)
	if !ok {
		return nil
	}
	w.projected[destination]++
	w.inFlight[component] = true
	return w.makeTransfer(component, source, destination)
}

func (w *Workload) nextRemove() storage.Transfer {
	component, source, ok := w.pickIdleComponent()
	if !ok {
		return nil
	}
	w.inFlight[component] = true
	return w.makeTransfer(component, source, "")
}

// pickFreeDevice returns a random device with projected free capacity,
// excluding the given one.
func (w *Workload) pickFreeDevice(exclude storage.DeviceID) (storage.DeviceID, bool) {
	candidates := make([]storage.DeviceID, 0, len(w.devices))
	for _, d := range w.devices {
		if d == exclude {
			continue
		}
		if w.projected[d] < w.cfg.Topology.Devices[string(d)] {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[w.rng.Intn(len(candidates))], true
}

// pickIdleComponent returns a random placed component with no transfer in
// flight, along with its current device.
func (w *Workload) pickIdleComponent() (storage.ComponentID, storage.DeviceID, bool) {
	candidates := make([]storage.ComponentID, 0, len(w.placement))
	for c := range w.placement {
		if !w.inFlight[c] {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return "", "", false
	}
	component := candidates[w.rng.Intn(len(candidates))]
	return component, w.placement[component], true
}

func (w *Workload) makeTransfer(component storage.ComponentID, source, destination storage.DeviceID) storage.Transfer {
	return &storage.CallbackTransfer{
		Component:   component,
		Source:      source,
		Destination: destination,
		PrepareFn:   func() { time.Sleep(w.randLatency()) },
		PerformFn:   func() { time.Sleep(w.randLatency()) },
	}
}

func (w *Workload) randLatency() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	min := time.Duration(w.cfg.Workload.MinCallbackLatency)
	max := time.Duration(w.cfg.Workload.MaxCallbackLatency)
	if max <= min {
		return min
	}
	return min + time.Duration(w.rng.Int63n(int64(max-min)))
}

// execute runs one transfer and settles the shadow bookkeeping.
func (w *Workload) execute(t storage.Transfer) error {
	err := w.sys.Execute(t)

	w.mu.Lock()
	defer w.mu.Unlock()

	component := t.ComponentID()
	source := t.SourceDeviceID()
	destination := t.DestinationDeviceID()
	delete(w.inFlight, component)

	if err != nil {
		atomic.AddUint64(&w.rejected, 1)
		if destination != "" {
			w.projected[destination]--
		}
		return err
	}

	atomic.AddUint64(&w.accepted, 1)
	if source != "" {
		w.projected[source]--
	}
	if destination != "" {
		w.placement[component] = destination
	} else {
		delete(w.placement, component)
	}
	return nil
}

// abandon reverts the projection for a generated transfer that was never
// submitted.
func (w *Workload) abandon(t storage.Transfer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inFlight, t.ComponentID())
	if d := t.DestinationDeviceID(); d != "" {
		w.projected[d]--
	}
}

// reportStats periodically logs progress and refreshes device gauges.
func (w *Workload) reportStats(done <-chan struct{}) {
	ticker := time.NewTicker(time.Duration(w.cfg.Workload.StatsInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := w.sys.Stats()
			waiting := 0
			for _, ds := range stats {
				waiting += ds.Waiting
			}
			w.logger.Info("workload progress",
				zap.Uint64("submitted", atomic.LoadUint64(&w.submitted)),
				zap.Uint64("accepted", atomic.LoadUint64(&w.accepted)),
				zap.Uint64("rejected", atomic.LoadUint64(&w.rejected)),
				zap.Int("waiting", waiting))
		case <-done:
			return
		}
	}
}

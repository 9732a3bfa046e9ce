// Package storagesystem coordinates concurrent relocations of storage
// components among a fixed set of bounded-capacity devices.
//
// Callers submit transfers through Execute; each call is carried out
// synchronously on the calling goroutine, driving the transfer's
// two-phase payload (Prepare then Perform) to completion. Admission, slot
// reservation, and progress ordering are decided under a single fair
// mutex; cyclic waiting patterns among pending moves are detected and
// admitted whole.
package storagesystem

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/NikodemGapski/storage-system/internal/coordinator"
	"github.com/NikodemGapski/storage-system/internal/metrics"
	"github.com/NikodemGapski/storage-system/internal/model"
	"github.com/NikodemGapski/storage-system/internal/registry"
	"github.com/NikodemGapski/storage-system/internal/validation"
	"github.com/NikodemGapski/storage-system/pkg/storage"
)

// System is the storage component relocation coordinator.
type System struct {
	reg       *registry.Registry
	validator *validation.Validator
	coord     *coordinator.Coordinator
	logger    *zap.Logger
	met       *metrics.Metrics
}

// New creates a system from device capacities and the initial component
// placement. Both maps must be non-empty, reference only registered
// devices, and respect capacities; violations return a ConfigError. A nil
// logger disables logging.
func New(capacities map[storage.DeviceID]int, placement map[storage.ComponentID]storage.DeviceID, logger *zap.Logger) (*System, error) {
	return NewWithMetrics(capacities, placement, logger, nil)
}

// NewWithMetrics creates a system that additionally records Prometheus
// metrics through the given handle.
func NewWithMetrics(capacities map[storage.DeviceID]int, placement map[storage.ComponentID]storage.DeviceID, logger *zap.Logger, met *metrics.Metrics) (*System, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reg, err := registry.New(capacities, placement)
	if err != nil {
		return nil, err
	}

	s := &System{
		reg:       reg,
		validator: validation.NewValidator(reg),
		coord:     coordinator.New(logger, met),
		logger:    logger,
		met:       met,
	}

	if met != nil {
		for _, d := range reg.Devices() {
			met.DeviceSlotCapacity.WithLabelValues(string(d.ID())).Set(float64(d.Capacity()))
			met.DeviceSlotsReserved.WithLabelValues(string(d.ID())).Set(float64(d.Reserved()))
		}
	}

	logger.Info("storage system initialized",
		zap.Int("devices", len(capacities)),
		zap.Int("components", len(placement)))
	return s, nil
}

// Execute carries out a single transfer, returning once both callbacks
// have completed. Rejections surface as a *storage.TransferError before
// any callback is invoked or state is mutated. The call may block for
// arbitrarily long awaiting admission.
func (s *System) Execute(t storage.Transfer) error {
	start := time.Now()

	s.coord.Lock()
	transferType, err := s.validator.Classify(t)
	if err != nil {
		s.coord.Unlock()
		s.logger.Debug("transfer rejected",
			zap.String("component", string(t.ComponentID())),
			zap.Error(err))
		if s.met != nil {
			s.met.TransfersRejectedTotal.WithLabelValues(storage.GetCode(err).String()).Inc()
		}
		return err
	}

	if s.met != nil {
		s.met.TransfersInFlight.Inc()
	}

	switch transferType {
	case storage.TransferAdd:
		s.add(t)
	case storage.TransferMove:
		s.move(t)
	case storage.TransferRemove:
		s.remove(t)
	}

	if s.met != nil {
		s.met.TransfersInFlight.Dec()
		s.met.TransfersTotal.WithLabelValues(transferType.String()).Inc()
		s.met.TransferDuration.WithLabelValues(transferType.String()).Observe(time.Since(start).Seconds())
	}
	return nil
}

// add drives an ADD: the component comes into existence at admission and
// has nobody inheriting its slot, so there is no prepare to finalize.
func (s *System) add(t storage.Transfer) {
	comp := model.NewComponent(t.ComponentID())
	s.reg.InsertComponent(comp)
	destination := s.reg.Device(t.DestinationDeviceID())

	s.coord.SetupPrepareAdd(comp, destination)
	t.Prepare()
	s.coord.SetupPerform(comp)
	t.Perform()
	s.coord.FinalizePerform(comp)
}

// move drives a MOVE through the full gate sequence.
func (s *System) move(t storage.Transfer) {
	comp := s.reg.Component(t.ComponentID())
	source := s.reg.Device(t.SourceDeviceID())
	destination := s.reg.Device(t.DestinationDeviceID())

	s.coord.SetupPrepareMove(comp, source, destination)
	t.Prepare()
	s.coord.FinalizePrepare(comp)
	s.coord.SetupPerform(comp)
	t.Perform()
	s.coord.FinalizePerform(comp)
}

// remove drives a REMOVE: the component leaves the registry at admission
// and waits for nothing before performing.
func (s *System) remove(t storage.Transfer) {
	comp := s.reg.Component(t.ComponentID())
	s.reg.RemoveComponent(comp.ID())
	source := s.reg.Device(t.SourceDeviceID())

	s.coord.SetupPrepareRemove(comp, source)
	t.Prepare()
	s.coord.FinalizePrepare(comp)
	t.Perform()
	s.coord.FinalizePerform(comp)
}

// DeviceStats is a point-in-time snapshot of one device's bookkeeping.
type DeviceStats struct {
	Device   storage.DeviceID
	Capacity int
	Present  int
	Leaving  int
	Waiting  int
	Reserved int
}

// Stats returns a snapshot of every device's bookkeeping, taken under the
// coordinator mutex and sorted by device id. Components of in-flight
// transfers are counted where the coordinator currently books them.
func (s *System) Stats() []DeviceStats {
	s.coord.Lock()
	defer s.coord.Unlock()

	stats := make([]DeviceStats, 0, len(s.reg.Devices()))
	for _, d := range s.reg.Devices() {
		stats = append(stats, DeviceStats{
			Device:   d.ID(),
			Capacity: d.Capacity(),
			Present:  d.PresentCount(),
			Leaving:  d.LeavingCount(),
			Waiting:  d.WaitingCount(),
			Reserved: d.Reserved(),
		})
		if s.met != nil {
			s.met.DeviceSlotsReserved.WithLabelValues(string(d.ID())).Set(float64(d.Reserved()))
		}
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Device < stats[j].Device })
	return stats
}

// ComponentCount returns the number of components currently registered,
// taken under the coordinator mutex.
func (s *System) ComponentCount() int {
	s.coord.Lock()
	defer s.coord.Unlock()
	return s.reg.ComponentCount()
}

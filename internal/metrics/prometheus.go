package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the storage system.
type Metrics struct {
	// Transfer metrics
	TransfersTotal         *prometheus.CounterVec
	TransfersRejectedTotal *prometheus.CounterVec
	TransferDuration       *prometheus.HistogramVec
	TransfersInFlight      prometheus.Gauge

	// Admission metrics
	ComponentsWaiting     prometheus.Gauge
	AdmissionWaitDuration prometheus.Histogram
	CyclesAdmittedTotal   prometheus.Counter
	CycleLength           prometheus.Histogram

	// Device metrics
	DeviceSlotsReserved *prometheus.GaugeVec
	DeviceSlotCapacity  *prometheus.GaugeVec

	// System metrics
	MemoryUsageBytes prometheus.Gauge
	GoroutinesTotal  prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics against the given registerer. Tests
// pass a private registry to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransfersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storagesystem",
			Subsystem: "coordinator",
			Name:      "transfers_total",
			Help:      "Total number of completed transfers by type",
		}, []string{"type"}),
		TransfersRejectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storagesystem",
			Subsystem: "coordinator",
			Name:      "transfers_rejected_total",
			Help:      "Total number of transfers rejected at validation by error code",
		}, []string{"code"}),
		TransferDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storagesystem",
			Subsystem: "coordinator",
			Name:      "transfer_duration_seconds",
			Help:      "Histogram of end-to-end transfer durations by type",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		TransfersInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "storagesystem",
			Subsystem: "coordinator",
			Name:      "transfers_in_flight",
			Help:      "Number of transfers currently admitted and executing",
		}),
		ComponentsWaiting: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "storagesystem",
			Subsystem: "coordinator",
			Name:      "components_waiting",
			Help:      "Number of components blocked in device admission queues",
		}),
		AdmissionWaitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storagesystem",
			Subsystem: "coordinator",
			Name:      "admission_wait_duration_seconds",
			Help:      "Histogram of time components spend blocked awaiting admission",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 12),
		}),
		CyclesAdmittedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "storagesystem",
			Subsystem: "coordinator",
			Name:      "cycles_admitted_total",
			Help:      "Total number of move cycles admitted atomically",
		}),
		CycleLength: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storagesystem",
			Subsystem: "coordinator",
			Name:      "cycle_length",
			Help:      "Histogram of admitted cycle lengths",
			Buckets:   prometheus.LinearBuckets(2, 1, 9),
		}),
		DeviceSlotsReserved: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "storagesystem",
			Subsystem: "device",
			Name:      "slots_reserved",
			Help:      "Committed slot count per device",
		}, []string{"device"}),
		DeviceSlotCapacity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "storagesystem",
			Subsystem: "device",
			Name:      "slot_capacity",
			Help:      "Immutable slot capacity per device",
		}, []string{"device"}),
		MemoryUsageBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "storagesystem",
			Subsystem: "system",
			Name:      "memory_usage_bytes",
			Help:      "Current heap allocation in bytes",
		}),
		GoroutinesTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "storagesystem",
			Subsystem: "system",
			Name:      "goroutines_total",
			Help:      "Current number of goroutines",
		}),
	}
}

// UpdateSystemStats updates the runtime-level gauges.
func (m *Metrics) UpdateSystemStats(memoryBytes uint64, goroutines int) {
	m.MemoryUsageBytes.Set(float64(memoryBytes))
	m.GoroutinesTotal.Set(float64(goroutines))
}

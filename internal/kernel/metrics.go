package kernel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aodb/entitydb/internal/obs"
	"github.com/aodb/entitydb/internal/typeid"
)

func typeAttr(id typeid.ID) attribute.KeyValue {
	return attribute.String("entitydb.type", typeid.Name(id))
}

// metrics wraps the handful of counters the kernel's instrumentation surface
// calls for: entities and attached objects created/destroyed, and
// batch sizes applied. Grounded on go.opentelemetry.io/otel/metric, the
// teacher's own declared-but-barely-used observability dependency; every
// instrument here reports through whatever MeterProvider the process
// installed with otel.SetMeterProvider (cmd/entitydb-demo wires a
// stdoutmetric exporter; a no-op provider is the default, so metrics are
// always safe to record even when nothing reads them).
type metrics struct {
	log *obs.Logger

	entities   metric.Int64UpDownCounter
	aos        metric.Int64UpDownCounter
	applyBatch metric.Int64Histogram
}

func newMetrics(log *obs.Logger) *metrics {
	meter := otel.Meter("github.com/aodb/entitydb/internal/kernel")
	m := &metrics{log: log}

	var err error
	m.entities, err = meter.Int64UpDownCounter("entitydb.entities.live",
		metric.WithDescription("number of live entities"))
	if err != nil {
		log.Warn("kernel: failed to create entities counter", "error", err)
	}
	m.aos, err = meter.Int64UpDownCounter("entitydb.attached_objects.live",
		metric.WithDescription("number of live attached objects"))
	if err != nil {
		log.Warn("kernel: failed to create attached-objects counter", "error", err)
	}
	m.applyBatch, err = meter.Int64Histogram("entitydb.apply_changes.batch_size",
		metric.WithDescription("number of changes drained per ApplyChanges call"))
	if err != nil {
		log.Warn("kernel: failed to create apply-changes histogram", "error", err)
	}
	return m
}

func (m *metrics) entityCreated() {
	if m == nil || m.entities == nil {
		return
	}
	m.entities.Add(context.Background(), 1)
}

func (m *metrics) entityDestroyed() {
	if m == nil || m.entities == nil {
		return
	}
	m.entities.Add(context.Background(), -1)
}

func (m *metrics) aoCreated(id typeid.ID) {
	if m == nil || m.aos == nil {
		return
	}
	m.aos.Add(context.Background(), 1, metric.WithAttributes(typeAttr(id)))
}

func (m *metrics) aoDestroyed(id typeid.ID) {
	if m == nil || m.aos == nil {
		return
	}
	m.aos.Add(context.Background(), -1, metric.WithAttributes(typeAttr(id)))
}

func (m *metrics) changesApplied(n int) {
	if m == nil || m.applyBatch == nil {
		return
	}
	m.applyBatch.Record(context.Background(), int64(n))
}

package postddl

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/leengari/postddl/internal/postddl"

type telemetry struct {
	tracer  trace.Tracer
	rows    metric.Int64Counter
	tables  metric.Int64Counter
	failure metric.Int64Counter
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*telemetry, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	rows, err := meter.Int64Counter("postddl.rows",
		metric.WithDescription("Rows counted by post-DDL scans"),
		metric.WithUnit("{row}"))
	if err != nil {
		return nil, err
	}
	tables, err := meter.Int64Counter("postddl.tables",
		metric.WithDescription("Tables processed by post-DDL plans"),
		metric.WithUnit("{table}"))
	if err != nil {
		return nil, err
	}
	failure, err := meter.Int64Counter("postddl.failures",
		metric.WithDescription("Post-DDL plans that failed"),
		metric.WithUnit("{plan}"))
	if err != nil {
		return nil, err
	}

	return &telemetry{
		tracer:  tp.Tracer(instrumentationName),
		rows:    rows,
		tables:  tables,
		failure: failure,
	}, nil
}

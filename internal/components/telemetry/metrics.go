package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeteredAPI forwards to an inner API and additionally records every
// ReportCount as an otel counter increment and every ReportBroken as an
// error counter, so counts reach the metrics exporter when one is set up.
type MeteredAPI struct {
	inner  API
	counts metric.Int64Counter
	broken metric.Int64Counter
}

func NewMeteredAPI(inner API) MeteredAPI {
	meter := otel.Meter("hearthstats")
	counts, _ := meter.Int64Counter("hearthstats.entities")
	broken, _ := meter.Int64Counter("hearthstats.broken")
	return MeteredAPI{inner: inner, counts: counts, broken: broken}
}

func (m MeteredAPI) ReportBroken(id string, params ...any) {
	m.broken.Add(context.Background(), 1, metric.WithAttributes(attribute.String("id", id)))
	m.inner.ReportBroken(id, params...)
}

func (m MeteredAPI) ReportWarning(id string, params ...any) {
	m.inner.ReportWarning(id, params...)
}

func (m MeteredAPI) ReportDebug(msg string, params ...any) {
	m.inner.ReportDebug(msg, params...)
}

func (m MeteredAPI) ReportCount(id string, count int64) {
	m.counts.Add(context.Background(), count, metric.WithAttributes(attribute.String("id", id)))
	m.inner.ReportCount(id, count)
}

package artifact

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Load outcome attribute values.
const (
	outcomePlaintext  = "plaintext"
	outcomeDecrypted  = "decrypted"
	outcomeUnreadable = "unreadable"
	outcomeMissing    = "missing"
)

type storeMetrics struct {
	loads metric.Int64Counter
	saves metric.Int64Counter
}

func newStoreMetrics() *storeMetrics {
	meter := otel.Meter("github.com/darshankharvi/Trading/internal/artifact")
	loads, _ := meter.Int64Counter("artifact.loads",
		metric.WithDescription("Artifact load attempts by outcome."))
	saves, _ := meter.Int64Counter("artifact.saves",
		metric.WithDescription("Artifacts persisted."))
	return &storeMetrics{loads: loads, saves: saves}
}

func (m *storeMetrics) load(ctx context.Context, outcome string) {
	m.loads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *storeMetrics) save(ctx context.Context, encrypted bool) {
	m.saves.Add(ctx, 1, metric.WithAttributes(attribute.Bool("encrypted", encrypted)))
}

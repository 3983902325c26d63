package bus

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/skillforge/timeline/internal/bus"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

func ctx() context.Context {
	return context.Background()
}

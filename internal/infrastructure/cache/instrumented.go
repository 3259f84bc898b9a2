package cache

import (
	"context"
	"strings"
	"time"

	"github.com/medstock/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentedStore records lookup and eviction counts for an underlying Store.
type InstrumentedStore struct {
	Store
	lookups   *telemetry.Counter
	evictions *telemetry.Counter
}

// NewInstrumentedStore wraps inner with OpenTelemetry counters
func NewInstrumentedStore(inner Store, meter metric.Meter) (*InstrumentedStore, error) {
	lookups, err := telemetry.NewCounter(meter,
		"medstock_cache_lookups_total",
		"Snapshot cache lookups by result",
		"{lookups}",
	)
	if err != nil {
		return nil, err
	}
	evictions, err := telemetry.NewCounter(meter,
		"medstock_cache_evictions_total",
		"Expired snapshot cache entries removed by sweeps",
		"{entries}",
	)
	if err != nil {
		return nil, err
	}
	return &InstrumentedStore{Store: inner, lookups: lookups, evictions: evictions}, nil
}

// Get implements Store
func (s *InstrumentedStore) Get(ctx context.Context, key string) (any, bool, error) {
	v, ok, err := s.Store.Get(ctx, key)
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case ok:
		result = "hit"
	}
	s.lookups.Inc(ctx,
		telemetry.AttrCacheResult.String(result),
		telemetry.AttrOperation.String(operationOf(key)),
	)
	return v, ok, err
}

// Sweep implements Store
func (s *InstrumentedStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	n, err := s.Store.Sweep(ctx, now)
	if n > 0 {
		s.evictions.Add(ctx, int64(n))
	}
	return n, err
}

// operationOf extracts the operation prefix from a fingerprint key
func operationOf(key string) string {
	op, _, _ := strings.Cut(key, ":")
	return op
}

var _ Store = (*InstrumentedStore)(nil)

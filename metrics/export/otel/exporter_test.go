package otel

import (
	"context"
	"maps"
	"slices"
	"sync"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/session"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goSession.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goSession.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goSession.MetricsSnapshot{
		Counters:      maps.Clone(f.snapshot.Counters),
		Histograms:    make(map[goSession.MetricID][]uint64, len(f.snapshot.Histograms)),
		HistogramSums: maps.Clone(f.snapshot.HistogramSums),
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = slices.Clone(buckets)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newReaderMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func findInt64(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.DataPoint[int64] {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				return data.DataPoints[0]
			case metricdata.Gauge[int64]:
				return data.DataPoints[0]
			}
		}
	}
	t.Fatalf("metric %s not collected", name)
	return metricdata.DataPoint[int64]{}
}

func findFloat64(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.DataPoint[float64] {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if g, ok := m.Data.(metricdata.Gauge[float64]); ok && m.Name == name {
				return g.DataPoints[0]
			}
		}
	}
	t.Fatalf("metric %s not collected", name)
	return metricdata.DataPoint[float64]{}
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newReaderMeter()
	meter := provider.Meter("gosession-test")

	src := &fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricLoginSuccess: 3,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricLoginLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
			HistogramSums: map[goSession.MetricID]time.Duration{
				goSession.MetricLoginLatency: 250 * time.Millisecond,
			},
		},
		dropped: 1,
	}

	exp, err := NewOTelExporter(meter, src, WithAttributes(attribute.String("service", "api")))
	if err != nil {
		t.Fatalf("NewOTelExporter failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	login := findInt64(t, rm, "gosession_login_success_total")
	if login.Value != 3 {
		t.Fatalf("expected login success 3, got %d", login.Value)
	}
	if v, ok := login.Attributes.Value("service"); !ok || v.AsString() != "api" {
		t.Fatalf("expected service attribute, got %v", login.Attributes)
	}
	if got := findInt64(t, rm, "gosession_login_latency_seconds_count").Value; got != 8 {
		t.Fatalf("expected histogram count 8, got %d", got)
	}
	if got := findInt64(t, rm, "gosession_login_latency_seconds_bucket_le_0_025").Value; got != 3 {
		t.Fatalf("expected cumulative bucket 3, got %d", got)
	}
	if got := findFloat64(t, rm, "gosession_login_latency_seconds_sum").Value; got != 0.25 {
		t.Fatalf("expected histogram sum 0.25s, got %f", got)
	}
	if got := findInt64(t, rm, "gosession_audit_dropped_total").Value; got != 1 {
		t.Fatalf("expected 1 dropped event, got %d", got)
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newReaderMeter()

	if _, err := NewOTelExporter(provider.Meter("gosession-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewOTelExporter(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterReadsEngine(t *testing.T) {
	reader, provider := newReaderMeter()

	engine, err := goSession.New[string]().
		WithStore(session.NewMemoryStore[string]()).
		WithAuthenticator(func(_ context.Context, username, _ string) (string, error) {
			return username, nil
		}).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	exp, err := NewOTelExporter(provider.Meter("gosession-test"), engine)
	if err != nil {
		t.Fatalf("NewOTelExporter failed: %v", err)
	}
	defer exp.Close()

	if _, err := engine.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := findInt64(t, rm, "gosession_session_created_total").Value; got != 1 {
		t.Fatalf("expected 1 created session, got %d", got)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newReaderMeter()
	meter := provider.Meter("gosession-test")

	src := &fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricLoginSuccess: 1,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricCurrentUserLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporter(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporter failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[goSession.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}

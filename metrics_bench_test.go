package goSession

import (
	"testing"
	"time"
)

// hotMetricIDs are the counters a login/current-user/logout cycle touches.
var hotMetricIDs = [...]MetricID{
	MetricLoginSuccess,
	MetricLoginFailure,
	MetricSessionCreated,
	MetricCurrentUserSuccess,
	MetricCurrentUserFailure,
	MetricTokenInvalid,
	MetricLogout,
	MetricSessionIDCollision,
}

func BenchmarkMetricsInc(b *testing.B) {
	for _, enabled := range []bool{true, false} {
		name := "enabled"
		if !enabled {
			name = "disabled"
		}
		m := NewMetrics(MetricsConfig{Enabled: enabled})

		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				m.Inc(MetricLoginSuccess)
			}
		})
		b.Run(name+"/parallel", func(b *testing.B) {
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					m.Inc(MetricLoginSuccess)
				}
			})
		})
	}
}

func BenchmarkMetricsIncParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			m.Inc(hotMetricIDs[i%len(hotMetricIDs)])
			i++
		}
	})
}

func BenchmarkMetricsObserveParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		d := time.Millisecond
		for pb.Next() {
			m.Observe(MetricCurrentUserLatency, d)
			d = (d * 3) % time.Second
		}
	})
}

func BenchmarkMetricsSnapshot(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	for _, id := range hotMetricIDs {
		m.Add(id, uint64(id)+1)
	}
	m.Observe(MetricLoginLatency, 3*time.Millisecond)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = m.Snapshot()
	}
}

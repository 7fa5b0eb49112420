package main

import (
	"fmt"
	"io"
	"math"
	"slices"
	"time"
)

// phaseStats summarizes one load phase. Latencies cover successful and failed
// operations alike.
type phaseStats struct {
	elapsed  time.Duration
	ops      int
	failures int64
	mean     time.Duration
	max      time.Duration
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

// computeStats sorts latencies in place.
func computeStats(elapsed time.Duration, latencies []time.Duration, failures int64) phaseStats {
	s := phaseStats{elapsed: elapsed, ops: len(latencies), failures: failures}
	if len(latencies) == 0 {
		return s
	}

	slices.Sort(latencies)
	var sum time.Duration
	for _, d := range latencies {
		sum += d
	}
	s.mean = sum / time.Duration(len(latencies))
	s.max = latencies[len(latencies)-1]
	s.p50 = nearestRank(latencies, 50)
	s.p95 = nearestRank(latencies, 95)
	s.p99 = nearestRank(latencies, 99)
	if elapsed > 0 {
		s.opsPerS = float64(len(latencies)) / elapsed.Seconds()
	}
	return s
}

// nearestRank returns the p-th percentile of sorted.
func nearestRank(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p * float64(len(sorted)) / 100))
	rank = min(max(rank, 1), len(sorted))
	return sorted[rank-1]
}

func printStats(w io.Writer, phase string, s phaseStats) {
	fmt.Fprintf(w, "%-12s ops=%d failures=%d elapsed=%s ops/sec=%.0f mean=%s p50=%s p95=%s p99=%s max=%s\n",
		phase,
		s.ops,
		s.failures,
		s.elapsed.Round(time.Millisecond),
		s.opsPerS,
		s.mean.Round(time.Microsecond),
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
		s.max.Round(time.Microsecond),
	)
}

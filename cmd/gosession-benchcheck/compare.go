package main

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// samples maps benchmark name to unit to the values of every run.
type samples map[string]map[string][]float64

type row struct {
	benchmark string
	unit      string
	baseline  float64
	candidate float64
	delta     float64
}

// parseBenchmarks collects the tracked units from benchmark output lines.
// The -N GOMAXPROCS suffix is stripped from names.
func parseBenchmarks(r io.Reader, want map[string][]string) (samples, error) {
	out := samples{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || !strings.HasPrefix(fields[0], "Benchmark") {
			continue
		}

		name := trimProcs(fields[0])
		if _, ok := want[name]; !ok {
			continue
		}
		if out[name] == nil {
			out[name] = map[string][]float64{}
		}

		// fields[1] is the iteration count; the rest are value/unit pairs
		for i := 2; i+1 < len(fields); i += 2 {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				continue
			}
			out[name][fields[i+1]] = append(out[name][fields[i+1]], v)
		}
	}
	return out, sc.Err()
}

// compare returns one row per tracked unit, in name order, and a failure for
// every missing sample or regression above threshold.
func compare(baseline, candidate samples, want map[string][]string, threshold float64) ([]row, []string) {
	var (
		rows     []row
		failures []string
	)
	for _, name := range slices.Sorted(maps.Keys(want)) {
		for _, unit := range want[name] {
			base, cand := baseline[name][unit], candidate[name][unit]
			if len(base) == 0 || len(cand) == 0 {
				failures = append(failures, fmt.Sprintf("missing samples for %s %s", name, unit))
				continue
			}

			b, c := median(base), median(cand)
			if b <= 0 {
				if c > 0 {
					failures = append(failures, fmt.Sprintf("%s %s grew from 0 to %.3f", name, unit, c))
				}
				rows = append(rows, row{benchmark: name, unit: unit, baseline: b, candidate: c})
				continue
			}

			d := (c - b) / b
			rows = append(rows, row{benchmark: name, unit: unit, baseline: b, candidate: c, delta: d})
			if d > threshold {
				failures = append(failures, fmt.Sprintf("%s %s regressed by %+0.2f%% (limit %+0.2f%%)", name, unit, d*100, threshold*100))
			}
		}
	}
	return rows, failures
}

func trimProcs(raw string) string {
	if i := strings.LastIndexByte(raw, '-'); i > 0 {
		if _, err := strconv.Atoi(raw[i+1:]); err == nil {
			return raw[:i]
		}
	}
	return raw
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Sorted(slices.Values(values))
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

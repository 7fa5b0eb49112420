package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const baselineOutput = `goos: linux
goarch: amd64
pkg: github.com/MrEthical07/goSession
BenchmarkCurrentUserMemory-8   	 2000000	       600 ns/op	     320 B/op	       6 allocs/op
BenchmarkCurrentUserMemory-8   	 2000000	       500 ns/op	     320 B/op	       6 allocs/op
BenchmarkCurrentUserMemory-8   	 2000000	       550 ns/op	     320 B/op	       6 allocs/op
BenchmarkLoginParallelMemory-8 	 1000000	      1000 ns/op	     900 B/op	      12 allocs/op
PASS
`

var testTracked = map[string][]string{
	"BenchmarkCurrentUserMemory": {"ns/op", "allocs/op"},
}

func TestParseBenchmarks(t *testing.T) {
	got, err := parseBenchmarks(strings.NewReader(baselineOutput), testTracked)
	require.NoError(t, err)
	require.Equal(t, []float64{600, 500, 550}, got["BenchmarkCurrentUserMemory"]["ns/op"])
	require.Equal(t, []float64{6, 6, 6}, got["BenchmarkCurrentUserMemory"]["allocs/op"])
	require.NotContains(t, got, "BenchmarkLoginParallelMemory")
}

func TestCompare(t *testing.T) {
	base, err := parseBenchmarks(strings.NewReader(baselineOutput), testTracked)
	require.NoError(t, err)

	t.Run("within threshold", func(t *testing.T) {
		cand := samples{"BenchmarkCurrentUserMemory": {"ns/op": {600}, "allocs/op": {6}}}
		rows, failures := compare(base, cand, testTracked, 0.30)
		require.Empty(t, failures)
		require.Len(t, rows, 2)
		require.Equal(t, 550.0, rows[0].baseline)
		require.InDelta(t, 50.0/550.0, rows[0].delta, 1e-9)
	})

	t.Run("regression", func(t *testing.T) {
		cand := samples{"BenchmarkCurrentUserMemory": {"ns/op": {900}, "allocs/op": {6}}}
		_, failures := compare(base, cand, testTracked, 0.30)
		require.Len(t, failures, 1)
		require.Contains(t, failures[0], "ns/op regressed")
	})

	t.Run("missing", func(t *testing.T) {
		cand := samples{"BenchmarkCurrentUserMemory": {"ns/op": {500}}}
		_, failures := compare(base, cand, testTracked, 0.30)
		require.Equal(t, []string{"missing samples for BenchmarkCurrentUserMemory allocs/op"}, failures)
	})

	t.Run("zero baseline", func(t *testing.T) {
		zero := samples{"BenchmarkCurrentUserMemory": {"ns/op": {500}, "allocs/op": {0}}}
		cand := samples{"BenchmarkCurrentUserMemory": {"ns/op": {500}, "allocs/op": {1}}}
		_, failures := compare(zero, cand, testTracked, 0.30)
		require.Len(t, failures, 1)
		require.Contains(t, failures[0], "grew from 0")
	})
}

func TestTrimProcsAndMedian(t *testing.T) {
	require.Equal(t, "BenchmarkX", trimProcs("BenchmarkX-16"))
	require.Equal(t, "BenchmarkX-fast", trimProcs("BenchmarkX-fast"))
	require.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
	require.Equal(t, 0.0, median(nil))
}

func TestPrintRows(t *testing.T) {
	var buf bytes.Buffer
	printRows(&buf, []row{{benchmark: "BenchmarkX", unit: "ns/op", baseline: 100, candidate: 110, delta: 0.1}})
	require.Contains(t, buf.String(), "BenchmarkX ns/op 100.000 110.000 +10.00%")
}

// Command gosession-benchcheck compares two `go test -bench` outputs and
// fails when a tracked engine benchmark regressed past the threshold.
//
//	go test -run '^$' -bench . -count 5 . > new.txt
//	gosession-benchcheck --baseline old.txt --candidate new.txt
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const defaultThreshold = 0.30

// tracked lists the benchmark units that gate a change.
var tracked = map[string][]string{
	"BenchmarkLoginLogoutMemory":    {"ns/op", "allocs/op"},
	"BenchmarkCurrentUserMemory":    {"ns/op", "allocs/op"},
	"BenchmarkCurrentUserRedisJSON": {"ns/op"},
	"BenchmarkCurrentUserRedisCBOR": {"ns/op"},
	"BenchmarkMetricsIncParallel":   {"ns/op"},
}

func main() {
	fs := pflag.NewFlagSet("gosession-benchcheck", pflag.ExitOnError)
	baselinePath := fs.String("baseline", "", "baseline benchmark output")
	candidatePath := fs.String("candidate", "", "candidate benchmark output")
	threshold := fs.Float64("threshold", defaultThreshold, "maximum allowed regression ratio (0.30 = +30%)")
	_ = fs.Parse(os.Args[1:])

	if *baselinePath == "" || *candidatePath == "" {
		fmt.Fprintln(os.Stderr, "--baseline and --candidate are required")
		os.Exit(2)
	}
	if *threshold < 0 {
		fmt.Fprintln(os.Stderr, "--threshold must be >= 0")
		os.Exit(2)
	}

	baseline, err := parseFile(*baselinePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse baseline: %v\n", err)
		os.Exit(1)
	}
	candidate, err := parseFile(*candidatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse candidate: %v\n", err)
		os.Exit(1)
	}

	rows, failures := compare(baseline, candidate, tracked, *threshold)
	printRows(os.Stdout, rows)

	if len(failures) > 0 {
		fmt.Fprintln(os.Stderr, "performance regression threshold exceeded:")
		for _, f := range failures {
			fmt.Fprintf(os.Stderr, "  - %s\n", f)
		}
		os.Exit(1)
	}
}

func parseFile(path string) (samples, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseBenchmarks(f, tracked)
}

func printRows(w io.Writer, rows []row) {
	fmt.Fprintln(w, "benchmark unit baseline candidate delta")
	for _, r := range rows {
		fmt.Fprintf(w, "%s %s %.3f %.3f %+0.2f%%\n", r.benchmark, r.unit, r.baseline, r.candidate, r.delta*100)
	}
}

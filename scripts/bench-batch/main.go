// bench-batch measures wall time and heap memory of a multi-file rewrite run
// on a target source tree, without writing any file.
//
// Usage:
//
//	go run ./scripts/bench-batch --dir ~/sources/react/packages \
//	  --rule 'a == null -> a === null' --workers 8 --profile-dir docs/profiles/batch
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/jsmorph/pkg/batch"
	"github.com/Sumatoshi-tech/jsmorph/pkg/report"
	"github.com/Sumatoshi-tech/jsmorph/pkg/rewrite"
)

type heapSnapshot struct {
	label     string
	heapInUse uint64
	heapSys   uint64
	numGC     uint32
}

func main() {
	dir := flag.String("dir", "", "Directory of JavaScript sources")
	ruleText := flag.String("rule", "a == null -> a === null", "Rewrite rule to run")
	workers := flag.Int("workers", 0, "Worker count (0 = one per CPU)")
	rounds := flag.Int("rounds", 3, "Number of runs")
	profileDir := flag.String("profile-dir", "", "Directory to write heap and CPU profiles")

	flag.Parse()

	if *dir == "" {
		log.Fatal("--dir is required")
	}

	if *profileDir != "" {
		if err := os.MkdirAll(*profileDir, 0o755); err != nil {
			log.Fatalf("mkdir profile-dir: %v", err)
		}

		cpuFile, err := os.Create(filepath.Join(*profileDir, "cpu.prof"))
		if err != nil {
			log.Fatalf("create cpu profile: %v", err)
		}
		defer cpuFile.Close()

		if err := pprof.StartCPUProfile(cpuFile); err != nil {
			log.Fatalf("start cpu profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	ctx := context.Background()

	engine, err := rewrite.NewEngine()
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	rule, err := engine.Compile(ctx, *ruleText)
	if err != nil {
		log.Fatalf("rule: %v", err)
	}

	runner := batch.NewRunner(batch.Options{Workers: *workers})

	files, err := runner.Collect([]string{*dir})
	if err != nil {
		log.Fatalf("collect: %v", err)
	}

	log.Printf("collected %d files", len(files))

	var snapshots []heapSnapshot

	takeSnapshot := func(label string) {
		runtime.GC()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		snapshots = append(snapshots, heapSnapshot{label: label, heapInUse: m.HeapInuse, heapSys: m.HeapSys, numGC: m.NumGC})
	}

	takeSnapshot("before")

	var summaries []report.Summary

	for i := range *rounds {
		result, runErr := runner.Run(ctx, files, batch.RewriteJob(engine, rule))
		if runErr != nil {
			log.Fatalf("run %d: %v", i+1, runErr)
		}

		summaries = append(summaries, result.Summary)
		takeSnapshot(fmt.Sprintf("after_round_%d", i+1))
	}

	if *profileDir != "" {
		writeHeapProfile(filepath.Join(*profileDir, "heap_after.prof"))
	}

	fmt.Println()
	fmt.Println("=== Rounds ===")

	for i, s := range summaries {
		fmt.Printf("round %d: %d files, %s, %d matches, %d changed, %s\n",
			i+1, s.Files, humanize.Bytes(s.Bytes), s.Matches, s.Changed, s.Duration)
	}

	fmt.Println()
	fmt.Println("=== Heap Memory Timeline ===")
	fmt.Printf("%-20s %10s %10s %6s\n", "Phase", "InUse", "Sys", "GCs")

	for _, s := range snapshots {
		fmt.Printf("%-20s %10s %10s %6d\n", s.label, humanize.Bytes(s.heapInUse), humanize.Bytes(s.heapSys), s.numGC)
	}
}

func writeHeapProfile(path string) {
	runtime.GC()

	f, err := os.Create(path)
	if err != nil {
		log.Printf("warning: create heap profile %s: %v", path, err)

		return
	}
	defer f.Close()

	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Printf("warning: write heap profile %s: %v", path, err)
	}
}

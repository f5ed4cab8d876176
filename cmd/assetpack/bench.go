package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/assetpack"
)

type benchConfig struct {
	kind       string
	iterations int
	duration   time.Duration
	cold       bool
	cpuProfile string
	memProfile string
	traceFile  string
}

type benchStats struct {
	ops     int
	bytes   int64
	elapsed time.Duration
}

func newBenchCommand(ctx *commandContext) *cobra.Command {
	var cfg benchConfig

	cmd := &cobra.Command{
		Use:   "bench [ROOT]",
		Short: "Load every packaged asset repeatedly and report throughput",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := assetpack.ParseKind(cfg.kind)
			if err != nil {
				return err
			}
			var root string
			if len(args) == 1 {
				root = args[0]
			}
			l, err := ctx.openLoader(cmd.Context(), root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer l.Close()

			stop, err := startProfiles(cfg)
			if err != nil {
				return err
			}
			stats, runErr := runBench(l, kind, cfg)
			if err := stop(); err != nil && runErr == nil {
				runErr = err
			}
			if runErr != nil {
				return runErr
			}

			cs := l.Stats()
			throughput := 0.0
			if s := stats.elapsed.Seconds(); s > 0 {
				throughput = float64(stats.bytes) / s
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"kind=%s ops=%d bytes=%s elapsed=%s throughput=%s/s hits=%d misses=%d evictions=%d\n",
				kind, stats.ops, humanize.IBytes(uint64(stats.bytes)), stats.elapsed.Round(time.Microsecond),
				humanize.IBytes(uint64(throughput)), cs.Hits, cs.Misses, cs.Evictions)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.kind, "kind", "bytes", "Asset kind to load (bytes, image, animation, effect)")
	cmd.Flags().IntVar(&cfg.iterations, "iterations", 1, "Passes over every asset (0 runs for --duration)")
	cmd.Flags().DurationVar(&cfg.duration, "duration", 5*time.Second, "Run time when --iterations is 0")
	cmd.Flags().BoolVar(&cfg.cold, "cold", false, "Evict each asset after loading so every pass decodes")
	cmd.Flags().StringVar(&cfg.cpuProfile, "cpuprofile", "", "Write a CPU profile to this file")
	cmd.Flags().StringVar(&cfg.memProfile, "memprofile", "", "Write a heap profile to this file")
	cmd.Flags().StringVar(&cfg.traceFile, "trace", "", "Write an execution trace to this file")
	return cmd
}

func runBench(l *assetpack.Loader, kind assetpack.Kind, cfg benchConfig) (benchStats, error) {
	var names []string
	for e := range l.Index().Entries() {
		names = append(names, e.Name)
	}
	if len(names) == 0 {
		return benchStats{}, fmt.Errorf("no packaged assets under %s", l.Root())
	}

	start := time.Now()
	var stats benchStats
	shouldContinue := func(pass int) bool {
		if cfg.iterations > 0 {
			return pass < cfg.iterations
		}
		return time.Since(start) < cfg.duration
	}

	for pass := 0; shouldContinue(pass); pass++ {
		for _, name := range names {
			a, err := l.Load(name, kind)
			if err != nil {
				return benchStats{}, err
			}
			stats.ops++
			stats.bytes += assetSize(a)
			if cfg.cold {
				l.Evict(name)
			}
		}
	}
	stats.elapsed = time.Since(start)
	return stats, nil
}

func assetSize(a assetpack.Asset) int64 {
	switch a.Kind() {
	case assetpack.KindImage:
		b := a.Image().Bounds()
		return int64(b.Dx()) * int64(b.Dy()) * 4
	case assetpack.KindAnimation:
		return int64(a.Player().Sequence().Bytes())
	case assetpack.KindEffect:
		if raw, ok := a.Effect().(*assetpack.RawEffect); ok {
			return int64(len(raw.Bytes()))
		}
		return 0
	default:
		return int64(len(a.Bytes()))
	}
}

// startProfiles starts the requested CPU profile and trace and returns a
// function that stops them and writes the heap profile.
func startProfiles(cfg benchConfig) (func() error, error) {
	var stops []func() error

	stopAll := func() error {
		var first error
		for i := len(stops) - 1; i >= 0; i-- {
			if err := stops[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	if cfg.cpuProfile != "" {
		f, err := os.Create(cfg.cpuProfile)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, err
		}
		stops = append(stops, func() error {
			pprof.StopCPUProfile()
			return f.Close()
		})
	}

	if cfg.traceFile != "" {
		f, err := os.Create(cfg.traceFile)
		if err != nil {
			_ = stopAll()
			return nil, err
		}
		if err := trace.Start(f); err != nil {
			f.Close()
			_ = stopAll()
			return nil, err
		}
		stops = append(stops, func() error {
			trace.Stop()
			return f.Close()
		})
	}

	return func() error {
		err := stopAll()
		if cfg.memProfile == "" {
			return err
		}
		runtime.GC()
		f, ferr := os.Create(cfg.memProfile)
		if ferr != nil {
			return ferr
		}
		defer f.Close()
		if werr := pprof.WriteHeapProfile(f); werr != nil {
			return werr
		}
		return err
	}, nil
}

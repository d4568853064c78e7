// Command scanner drives a Doppler-parameter-space lattice scan to
// completion from a JSON scenario file, emitting one template per line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ridgeline-astro/latticescan/core"
	"github.com/ridgeline-astro/latticescan/internal/logging"
	"github.com/ridgeline-astro/latticescan/internal/observability"
	"github.com/ridgeline-astro/latticescan/kb"
	"github.com/ridgeline-astro/latticescan/model"
	"github.com/ridgeline-astro/latticescan/timectrl"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to a scan scenario JSON file")
	metricPath := flag.String("metric", "", "path to a flat metric JSON file (square matrix, row-major)")
	outputSystem := flag.String("output", "equatorial", "sky coordinate system for output points: equatorial or ecliptic")
	maxPoints := flag.Int("max", 0, "stop after this many templates (0 = scan to exhaustion)")
	metricsAddr := flag.String("metrics-addr", "", "address to serve Prometheus metrics on (empty disables)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	tracingEnabled := flag.Bool("tracing", false, "enable stdout span tracing")
	checkpointEvery := flag.Int("checkpoint-every", 0, "save the scan index to -checkpoint-file every N templates (0 disables checkpointing)")
	checkpointFile := flag.String("checkpoint-file", "", "path to write checkpoint snapshots to; required if -checkpoint-every > 0")
	resumeIndex := flag.String("resume-index", "", "comma-separated lattice index to resume from, as saved in a checkpoint file")
	flag.Parse()

	log := logging.New(logging.Config{Level: *logLevel, Format: *logFormat, AddSource: true})
	ctx := logging.ContextWithLogger(context.Background(), log)

	collector, err := observability.NewScanCollector(nil)
	if err != nil {
		panic(fmt.Errorf("registering metrics: %w", err))
	}
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Error(ctx, "metrics server stopped", logging.Any("error", err))
			}
		}()
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     *tracingEnabled,
		ServiceName: "latticescan-cli",
		SampleRatio: 1.0,
	}, log)
	if err != nil {
		panic(fmt.Errorf("initialising tracing: %w", err))
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	sys := model.Equatorial
	if *outputSystem == "ecliptic" {
		sys = model.Ecliptic
	}

	if *scenarioPath == "" || *metricPath == "" {
		panic(fmt.Errorf("both -scenario and -metric are required"))
	}

	scenario, err := loadScenario(*scenarioPath)
	if err != nil {
		panic(err)
	}

	g, err := loadMetric(*metricPath, scenario.Boundary.Dim())
	if err != nil {
		panic(err)
	}

	collector.SetActiveScans(1)
	scan, err := core.NewScanState(ctx, core.InitParams{
		TSpan:        scenario.TSpan,
		StartTimeGPS: scenario.StartTimeGPS,
		Boundary:     scenario.Boundary,
		Origin:       scenario.Origin,
		Metric:       core.ConstantMetric(g),
		Mismatch:     scenario.Mismatch,
		Log:          log,
		Recorder:     collector,
	})
	if err != nil {
		panic(fmt.Errorf("initialising scan: %w", err))
	}
	defer func() {
		collector.SetActiveScans(0)
		_ = scan.Close()
	}()

	if *resumeIndex != "" {
		idx, err := parseResumeIndex(*resumeIndex)
		if err != nil {
			panic(fmt.Errorf("parsing -resume-index: %w", err))
		}
		if err := scan.SetIndex(idx); err != nil {
			panic(fmt.Errorf("resuming from checkpoint: %w", err))
		}
		log.Info(ctx, "resumed from checkpoint", logging.Any("index", idx))
	}

	checkpoints := kb.NewCheckpointStore()
	scanID := kb.NewScanID()
	if *checkpointEvery > 0 {
		if *checkpointFile == "" {
			panic(fmt.Errorf("-checkpoint-file is required when -checkpoint-every > 0"))
		}
		unsubscribe := checkpoints.Subscribe(func(ev kb.Event) {
			if err := writeCheckpointFile(*checkpointFile, ev); err != nil {
				log.Warn(ctx, "writing checkpoint failed", logging.Any("error", err))
			}
		})
		defer unsubscribe()
	}

	runner := core.NewBatchRunner(scan)
	enc := json.NewEncoder(os.Stdout)
	runner.RegisterPointListener(func(pt model.PulsarDopplerParams) {
		_ = enc.Encode(pt)
	})
	if *checkpointEvery > 0 {
		emitted := 0
		runner.RegisterPointListener(func(model.PulsarDopplerParams) {
			emitted++
			if emitted%*checkpointEvery != 0 {
				return
			}
			idx, err := scan.Index()
			if err != nil {
				return
			}
			_ = checkpoints.Save(scanID, idx)
		})
	}

	windowStart := timectrl.TimeFromGPSSeconds(scenario.StartTimeGPS)
	windowEnd := timectrl.TimeFromGPSSeconds(scenario.StartTimeGPS + scenario.TSpan)

	start := time.Now()
	count, err := runner.Run(ctx, sys, *maxPoints)
	if err != nil {
		panic(fmt.Errorf("scan failed after %d templates: %w", count, err))
	}
	log.Info(ctx, "scan complete",
		logging.Int("templates", count),
		logging.Any("elapsed", time.Since(start)),
		logging.Any("observation_start", windowStart),
		logging.Any("observation_end", windowEnd),
	)
}

func parseResumeIndex(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	idx := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("component %d (%q): %w", i, p, err)
		}
		idx[i] = v
	}
	return idx, nil
}

func writeCheckpointFile(path string, ev kb.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(ev)
}

func loadScenario(path string) (*core.ScanScenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scenario file: %w", err)
	}
	defer f.Close()
	return core.LoadScanScenario(f)
}

func loadMetric(path string, dim int) (*mat.SymDense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening metric file: %w", err)
	}
	defer f.Close()
	return core.LoadFlatMetricFile(f, dim)
}

package asset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/solestore/solestore/pkg/event"
	"github.com/solestore/solestore/pkg/logger"
	"github.com/solestore/solestore/pkg/metrics"
)

// Lifecycle events fired on Pipeline.Events. Converted, compressed and
// fallback carry an Outcome; failed carries a Failure.
const (
	EventConverted  = "asset.converted"
	EventCompressed = "asset.compressed"
	EventFallback   = "asset.fallback"
	EventFailed     = "asset.failed"
)

// BatchPolicy decides what ProcessDir does after a file fails.
type BatchPolicy int

const (
	HaltOnError BatchPolicy = iota
	ContinueOnError
)

// Outcome describes one processed model.
type Outcome struct {
	Source      string
	Converted   string
	Output      string
	Compression CompressResult
	URL         string // set when published
}

// Failure is a file that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// BatchReport lists per-file results in processing order.
type BatchReport struct {
	Outcomes []Outcome
	Failures []Failure
}

// Pipeline converts and compresses model files one at a time. The zero
// value uses the built-in compressor with default options.
type Pipeline struct {
	Converter  Converter
	Compressor Compressor
	Options    CompressOptions
	Policy     BatchPolicy
	Publisher  *Publisher
	Events     *event.Bus
	Log        *slog.Logger
}

func (p *Pipeline) compressor() Compressor {
	if p.Compressor == nil {
		return QuantizeCompressor{}
	}
	return p.Compressor
}

func (p *Pipeline) options() CompressOptions {
	if p.Options == (CompressOptions{}) {
		return DefaultCompressOptions()
	}
	return p.Options
}

func (p *Pipeline) log() *slog.Logger {
	if p.Log == nil {
		return logger.L
	}
	return p.Log
}

// Process converts path, compresses the result and, with a Publisher,
// uploads the final artifact. Compression failures are absorbed into the
// Outcome; conversion and publishing failures are returned.
func (p *Pipeline) Process(ctx context.Context, path string) (Outcome, error) {
	out := Outcome{Source: path}
	log := p.log().With("source", path)

	start := time.Now()
	converted, err := p.Converter.Convert(ctx, path)
	metrics.ObserveAssetStep("convert", start)
	if err != nil {
		return out, p.fail(path, err)
	}
	out.Converted = converted
	log.Debug("converted", "output", converted)
	p.Events.Fire(EventConverted, out)

	start = time.Now()
	res, err := Compress(ctx, p.compressor(), converted, p.options(), log)
	metrics.ObserveAssetStep("compress", start)
	if err != nil {
		return out, p.fail(path, err)
	}
	out.Compression = res
	out.Output = res.Output

	if p.Publisher != nil {
		start = time.Now()
		url, err := p.Publisher.Publish(ctx, res.Output)
		metrics.ObserveAssetStep("publish", start)
		if err != nil {
			return out, p.fail(path, err)
		}
		out.URL = url
	}

	log.Info("asset processed",
		"output", out.Output,
		"kind", res.Kind.String(),
		"input_bytes", res.InputBytes,
		"output_bytes", res.OutputBytes,
	)
	if res.Kind == Fallback {
		p.Events.Fire(EventFallback, out)
	} else {
		p.Events.Fire(EventCompressed, out)
	}
	return out, nil
}

func (p *Pipeline) fail(path string, err error) error {
	p.log().Error("asset failed", "source", path, "error", err)
	p.Events.Fire(EventFailed, Failure{Path: path, Err: err})
	return err
}

// ProcessDir runs Process on every model in dir, in name order. Under
// HaltOnError the first failure stops the batch and is returned; under
// ContinueOnError failures are only recorded in the report. Cancellation
// always stops the batch.
func (p *Pipeline) ProcessDir(ctx context.Context, dir string) (BatchReport, error) {
	var report BatchReport

	files, err := ListModels(dir)
	if err != nil {
		return report, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		out, err := p.Process(ctx, f)
		if err != nil {
			report.Failures = append(report.Failures, Failure{Path: f, Err: err})
			if p.Policy == HaltOnError || ctx.Err() != nil {
				return report, err
			}
			continue
		}
		report.Outcomes = append(report.Outcomes, out)
	}
	return report, nil
}

// ListModels returns the .glb files directly inside dir, sorted by name.
// The extension match ignores case.
func ListModels(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("asset: list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".glb") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// ObserveMetrics feeds pipeline events into the asset metrics.
func ObserveMetrics(bus *event.Bus) {
	bus.Listen(EventCompressed, func(payload any) {
		metrics.AssetsProcessed.WithLabelValues("compressed").Inc()
		if o, ok := payload.(Outcome); ok && o.Compression.InputBytes > 0 {
			metrics.AssetCompressionRatio.Observe(o.Compression.Ratio())
		}
	})
	bus.Listen(EventFallback, func(any) {
		metrics.AssetsProcessed.WithLabelValues("fallback").Inc()
	})
	bus.Listen(EventFailed, func(any) {
		metrics.AssetsProcessed.WithLabelValues("failed").Inc()
	})
}

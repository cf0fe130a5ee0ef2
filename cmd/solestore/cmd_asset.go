package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/qmuntal/gltf"
	"github.com/spf13/cobra"

	"github.com/solestore/solestore/config"
	"github.com/solestore/solestore/pkg/asset"
	"github.com/solestore/solestore/pkg/event"
	"github.com/solestore/solestore/pkg/logger"
	"github.com/solestore/solestore/pkg/metrics"
	"github.com/solestore/solestore/pkg/storage"
)

// assetFlags are shared by asset:process and asset:batch.
type assetFlags struct {
	compressor   string
	bin          string
	level        int
	positionBits int
	normalBits   int
	texcoordBits int
	colorBits    int
	genericBits  int
	noFallback   bool
	suffix       string
	metricsFile  string
}

func (f *assetFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.compressor, "compressor", config.AssetCompressor(), "geometry compressor: builtin or gltf-pipeline")
	fl.StringVar(&f.bin, "gltf-pipeline-bin", config.AssetGLTFPipelineBin(), "gltf-pipeline executable")
	fl.IntVar(&f.level, "level", config.AssetLevel(), "compression level 0-10")
	fl.IntVar(&f.positionBits, "position-bits", config.AssetPositionBits(), "POSITION quantization bits")
	fl.IntVar(&f.normalBits, "normal-bits", config.AssetNormalBits(), "NORMAL and TANGENT quantization bits")
	fl.IntVar(&f.texcoordBits, "texcoord-bits", config.AssetTexcoordBits(), "TEXCOORD quantization bits")
	fl.IntVar(&f.colorBits, "color-bits", config.AssetColorBits(), "COLOR quantization bits")
	fl.IntVar(&f.genericBits, "generic-bits", config.AssetGenericBits(), "quantization bits for other attributes")
	fl.BoolVar(&f.noFallback, "no-fallback", !config.AssetFallback(), "drop the uncompressed vertex data")
	fl.StringVar(&f.suffix, "suffix", config.AssetSuffix(), "compressed output name suffix")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write pipeline metrics to this file when done")
}

func (f *assetFlags) options() asset.CompressOptions {
	return asset.CompressOptions{
		Level:                f.level,
		PositionBits:         f.positionBits,
		NormalBits:           f.normalBits,
		TexcoordBits:         f.texcoordBits,
		ColorBits:            f.colorBits,
		GenericBits:          f.genericBits,
		UncompressedFallback: !f.noFallback,
		Suffix:               f.suffix,
	}
}

func (f *assetFlags) compressorImpl() (asset.Compressor, error) {
	switch f.compressor {
	case "builtin", "":
		return asset.QuantizeCompressor{}, nil
	case "gltf-pipeline":
		return asset.GLTFPipelineCompressor{Bin: f.bin}, nil
	default:
		return nil, fmt.Errorf("unknown compressor %q (want builtin or gltf-pipeline)", f.compressor)
	}
}

// pipeline builds the Pipeline and its event bus for one command run.
func (f *assetFlags) pipeline(log *slog.Logger) (*asset.Pipeline, *event.Bus, error) {
	c, err := f.compressorImpl()
	if err != nil {
		return nil, nil, err
	}
	opts := f.options()
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}

	bus := event.NewBus()
	asset.ObserveMetrics(bus)

	return &asset.Pipeline{
		Compressor: c,
		Options:    opts,
		Events:     bus,
		Log:        log,
	}, bus, nil
}

// flushMetrics writes the metrics file when one was requested.
func (f *assetFlags) flushMetrics(log *slog.Logger) {
	if f.metricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(f.metricsFile); err != nil {
		log.Warn("metrics file not written", "path", f.metricsFile, "error", err)
	}
}

// cliLogger keeps stdout free for command output.
func cliLogger(cmd *cobra.Command) *slog.Logger {
	return logger.New(cmd.ErrOrStderr(), config.AppEnv(), config.LogLevel())
}

// solestore asset:process <file.glb>
func newAssetProcessCmd() *cobra.Command {
	var f assetFlags
	cmd := &cobra.Command{
		Use:   "asset:process <file.glb>",
		Short: "Convert and compress one model, printing the final path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cliLogger(cmd)
			defer f.flushMetrics(log)

			p, _, err := f.pipeline(log)
			if err != nil {
				return err
			}
			out, err := p.Process(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Output)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

// solestore asset:batch <dir>
func newAssetBatchCmd() *cobra.Command {
	var (
		f        assetFlags
		cont     bool
		publish  bool
		diskName string
	)
	cmd := &cobra.Command{
		Use:   "asset:batch <dir>",
		Short: "Process every .glb model in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cliLogger(cmd)
			defer f.flushMetrics(log)

			p, bus, err := f.pipeline(log)
			if err != nil {
				return err
			}
			if cont {
				p.Policy = asset.ContinueOnError
			}
			if publish {
				disk, err := storage.Open(cmd.Context(), diskName)
				if err != nil {
					return err
				}
				p.Publisher = asset.NewPublisher(disk, config.AssetPublishPrefix())
			}
			printProgress(bus, cmd.OutOrStdout())

			report, err := p.ProcessDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if n := len(report.Failures); n > 0 {
				return fmt.Errorf("%d of %d models failed", n, n+len(report.Outcomes))
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&cont, "continue-on-error", false, "keep going after a model fails")
	cmd.Flags().BoolVar(&publish, "publish", false, "upload outputs to the storage disk")
	cmd.Flags().StringVar(&diskName, "disk", config.StorageDefault(), "storage disk for --publish: local or s3")
	return cmd
}

// printProgress writes one line per finished model.
func printProgress(bus *event.Bus, w io.Writer) {
	line := func(kind string) event.Handler {
		return func(payload any) {
			o, ok := payload.(asset.Outcome)
			if !ok {
				return
			}
			msg := fmt.Sprintf("%-10s %s -> %s (%d -> %d bytes)", kind, filepath.Base(o.Source), o.Output,
				o.Compression.InputBytes, o.Compression.OutputBytes)
			if o.URL != "" {
				msg += " " + o.URL
			}
			fmt.Fprintln(w, msg)
		}
	}
	bus.Listen(asset.EventCompressed, line("compressed"))
	bus.Listen(asset.EventFallback, line("fallback"))
	bus.Listen(asset.EventFailed, func(payload any) {
		if fl, ok := payload.(asset.Failure); ok {
			fmt.Fprintf(w, "%-10s %s: %v\n", "failed", filepath.Base(fl.Path), fl.Err)
		}
	})
}

var errNothingToVerify = errors.New("no compressed primitives found")

// solestore asset:verify <file.gltf>
func newAssetVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "asset:verify <file.gltf>",
		Short: "Decode a compressed model and report position error per primitive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return verify(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func verify(ctx context.Context, w io.Writer, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	doc, err := gltf.Open(path)
	if err != nil {
		return &asset.ParseError{Path: path, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	reports, err := asset.Verify(doc)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		return fmt.Errorf("%s: %w", path, errNothingToVerify)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MESH\tPRIMITIVE\tVERTICES\tINDICES\tBITS\tSTEP\tMAX ERROR")
	for _, r := range reports {
		maxErr := "n/a"
		if r.Compared {
			maxErr = strconv.FormatFloat(r.MaxError, 'g', 6, 64)
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%.6g\t%s\n",
			r.Mesh, r.Primitive, r.Vertices, r.Indices, r.Bits, r.Step, maxErr)
	}
	return tw.Flush()
}

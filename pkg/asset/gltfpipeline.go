package asset

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// GLTFPipelineCompressor runs the external gltf-pipeline tool with Draco
// compression enabled. The process is killed when ctx is cancelled.
type GLTFPipelineCompressor struct {
	Bin string // defaults to "gltf-pipeline" on PATH
}

func (GLTFPipelineCompressor) Name() string { return "gltf-pipeline" }

func (g GLTFPipelineCompressor) Compress(ctx context.Context, in, out string, opts CompressOptions) error {
	bin := g.Bin
	if bin == "" {
		bin = "gltf-pipeline"
	}

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, pipelineArgs(in, out, opts)...)
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("asset: %s: %w: %s", bin, err, strings.TrimSpace(tail(output.String(), 512)))
	}

	if _, err := os.Stat(out); err != nil {
		return fmt.Errorf("asset: %s produced no output: %w", bin, err)
	}
	return nil
}

func pipelineArgs(in, out string, opts CompressOptions) []string {
	return []string{
		"-i", in,
		"-o", out,
		"-d",
		"--draco.compressionLevel", strconv.Itoa(opts.Level),
		"--draco.quantizePositionBits", strconv.Itoa(opts.PositionBits),
		"--draco.quantizeNormalBits", strconv.Itoa(opts.NormalBits),
		"--draco.quantizeTexcoordBits", strconv.Itoa(opts.TexcoordBits),
		"--draco.quantizeColorBits", strconv.Itoa(opts.ColorBits),
		"--draco.quantizeGenericBits", strconv.Itoa(opts.GenericBits),
		"--draco.uncompressedFallback=" + strconv.FormatBool(opts.UncompressedFallback),
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

package asset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Compressor writes a geometry-compressed copy of the glTF document at in
// to out.
type Compressor interface {
	Name() string
	Compress(ctx context.Context, in, out string, opts CompressOptions) error
}

// Kind tells whether an output holds compressed geometry.
type Kind int

const (
	Compressed Kind = iota
	Fallback
)

func (k Kind) String() string {
	if k == Fallback {
		return "fallback"
	}
	return "compressed"
}

// CompressResult is the outcome of the compression step. Err carries the
// compressor failure when Kind is Fallback.
type CompressResult struct {
	Kind        Kind
	Output      string
	Err         error
	InputBytes  int64
	OutputBytes int64
}

// Ratio is OutputBytes over InputBytes, or 0 for an empty input.
func (r CompressResult) Ratio() float64 {
	if r.InputBytes == 0 {
		return 0
	}
	return float64(r.OutputBytes) / float64(r.InputBytes)
}

// CompressedPath inserts suffix before the extension of in.
func CompressedPath(in, suffix string) string {
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + suffix + ext
}

// Compress runs c on in. Any compressor error turns into a verbatim copy of
// in at the output path; only a failure to write that copy, or a cancelled
// context, is returned as an error.
func Compress(ctx context.Context, c Compressor, in string, opts CompressOptions, log *slog.Logger) (CompressResult, error) {
	res := CompressResult{Output: CompressedPath(in, opts.Suffix)}

	st, err := os.Stat(in)
	if err != nil {
		return res, fmt.Errorf("asset: stat %s: %w", in, err)
	}
	res.InputBytes = st.Size()

	cerr := opts.Validate()
	if cerr == nil {
		cerr = c.Compress(ctx, in, res.Output, opts)
	}
	if cerr != nil {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		log.Warn("compression failed, copying input unchanged",
			"compressor", c.Name(), "input", in, "output", res.Output, "error", cerr)
		if err := copyFile(in, res.Output); err != nil {
			return res, err
		}
		res.Kind = Fallback
		res.Err = cerr
		res.OutputBytes = res.InputBytes
		return res, nil
	}

	st, err = os.Stat(res.Output)
	if err != nil {
		return res, fmt.Errorf("asset: stat %s: %w", res.Output, err)
	}
	res.Kind = Compressed
	res.OutputBytes = st.Size()
	return res, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("asset: fallback copy: %w", err)
	}
	defer in.Close()

	return writeAtomic(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

package asset

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solestore/solestore/pkg/logger"
)

type failingCompressor struct{ err error }

func (failingCompressor) Name() string { return "failing" }

func (f failingCompressor) Compress(context.Context, string, string, CompressOptions) error {
	return f.err
}

func TestCompressRoundTrip(t *testing.T) {
	in, fx := convertGrid(t, 20)
	opts := DefaultCompressOptions()

	res, err := Compress(t.Context(), QuantizeCompressor{}, in, opts, logger.Discard())
	require.NoError(t, err)
	require.Equal(t, Compressed, res.Kind, "cause: %v", res.Err)
	assert.Equal(t, CompressedPath(in, "-draco"), res.Output)
	assert.NoError(t, res.Err)
	assert.Positive(t, res.OutputBytes)

	doc, err := gltf.Open(res.Output)
	require.NoError(t, err)
	assert.Contains(t, doc.ExtensionsUsed, ExtensionName)
	assert.NotContains(t, doc.ExtensionsRequired, ExtensionName)

	decoded, err := Decode(doc)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	dp := decoded[0]

	assert.Equal(t, fx.indices, dp.Indices)
	assert.Equal(t, fx.colors, dp.Attributes["COLOR_0"].Raw)

	got := dp.Attributes["POSITION"].Values
	require.Len(t, got, len(fx.positions))
	half := positionStep(fx.positions, 14) / 2
	for i := range got {
		assert.LessOrEqual(t, math.Abs(float64(got[i]-fx.positions[i])), half+1e-6, "component %d", i)
	}

	// fallback keeps the original vertex data readable
	prim := doc.Meshes[0].Primitives[0]
	assert.NotNil(t, doc.Accessors[prim.Attributes["POSITION"]].BufferView)
	orig, err := floats(doc, doc.Accessors[prim.Attributes["POSITION"]])
	require.NoError(t, err)
	assert.Equal(t, fx.positions, orig)

	reports, err := Verify(doc)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Compared)
	assert.True(t, reports[0].WithinBound, "max error %g step %g", reports[0].MaxError, reports[0].Step)
	assert.Equal(t, 14, reports[0].Bits)
	assert.Equal(t, 400, reports[0].Vertices)
}

func TestCompressWithoutFallbackIsSmaller(t *testing.T) {
	in, fx := convertGrid(t, 20)
	opts := DefaultCompressOptions()
	opts.UncompressedFallback = false

	res, err := Compress(t.Context(), QuantizeCompressor{}, in, opts, logger.Discard())
	require.NoError(t, err)
	require.Equal(t, Compressed, res.Kind, "cause: %v", res.Err)
	assert.Less(t, res.OutputBytes, res.InputBytes)
	assert.Less(t, res.Ratio(), 1.0)

	doc, err := gltf.Open(res.Output)
	require.NoError(t, err)
	assert.Contains(t, doc.ExtensionsUsed, ExtensionName)
	assert.Contains(t, doc.ExtensionsRequired, ExtensionName)

	prim := doc.Meshes[0].Primitives[0]
	for name, a := range prim.Attributes {
		assert.Nil(t, doc.Accessors[a].BufferView, name)
		assert.Equal(t, 400, doc.Accessors[a].Count, name)
	}
	assert.Nil(t, doc.Accessors[*prim.Indices].BufferView)

	// one view for the image, one for the payload
	require.Len(t, doc.BufferViews, 2)
	img := doc.BufferViews[*doc.Images[0].BufferView]
	data := doc.Buffers[img.Buffer].Data
	assert.Equal(t, fx.image, data[img.ByteOffset:img.ByteOffset+img.ByteLength])

	decoded, err := Decode(doc)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, fx.indices, decoded[0].Indices)

	reports, err := Verify(doc)
	require.NoError(t, err)
	assert.False(t, reports[0].Compared)
}

func TestCompressFallsBackToCopy(t *testing.T) {
	in, _ := convertGrid(t, 4)
	cause := errors.New("encoder exploded")

	res, err := Compress(t.Context(), failingCompressor{err: cause}, in, DefaultCompressOptions(), logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, Fallback, res.Kind)
	assert.ErrorIs(t, res.Err, cause)
	assert.Equal(t, res.InputBytes, res.OutputBytes)

	want, err := os.ReadFile(in)
	require.NoError(t, err)
	got, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCompressInvalidOptionsFallBack(t *testing.T) {
	in, _ := convertGrid(t, 4)
	opts := DefaultCompressOptions()
	opts.PositionBits = 31

	res, err := Compress(t.Context(), QuantizeCompressor{}, in, opts, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, Fallback, res.Kind)
	assert.ErrorIs(t, res.Err, ErrInvalidOptions)
	assert.FileExists(t, res.Output)
}

func TestCompressCancelled(t *testing.T) {
	in, _ := convertGrid(t, 4)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := Compress(ctx, QuantizeCompressor{}, in, DefaultCompressOptions(), logger.Discard())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompressFallbackCopyFailure(t *testing.T) {
	in, _ := convertGrid(t, 4)
	opts := DefaultCompressOptions()
	opts.Suffix = "/missing/dir/x"

	_, err := Compress(t.Context(), failingCompressor{err: errors.New("nope")}, in, opts, logger.Discard())
	assert.Error(t, err)
}

func TestCompressDocumentRejects(t *testing.T) {
	opts := DefaultCompressOptions()

	t.Run("no primitives", func(t *testing.T) {
		_, err := CompressDocument(&gltf.Document{}, opts)
		assert.ErrorIs(t, err, ErrNoPrimitives)
	})

	t.Run("morph targets", func(t *testing.T) {
		doc, _ := gridDoc(3)
		p := doc.Meshes[0].Primitives[0]
		p.Targets = append(p.Targets, map[string]int{"POSITION": p.Attributes["POSITION"]})
		_, err := CompressDocument(doc, opts)
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("sparse", func(t *testing.T) {
		doc, _ := gridDoc(3)
		doc.Accessors[0].Sparse = &gltf.Sparse{Count: 1}
		_, err := CompressDocument(doc, opts)
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("already compressed", func(t *testing.T) {
		doc, _ := gridDoc(3)
		_, err := CompressDocument(doc, opts)
		require.NoError(t, err)
		_, err = CompressDocument(doc, opts)
		assert.ErrorIs(t, err, ErrAlreadyCompressed)
	})

	t.Run("bits", func(t *testing.T) {
		doc, _ := gridDoc(3)
		bad := opts
		bad.NormalBits = 0
		_, err := CompressDocument(doc, bad)
		assert.ErrorIs(t, err, ErrInvalidOptions)
	})
}

func TestCompressDocumentFlatAttribute(t *testing.T) {
	doc, fx := gridDoc(3)
	// every position at the same point: zero range
	view := doc.BufferViews[*doc.Accessors[0].BufferView]
	data := doc.Buffers[0].Data[view.ByteOffset : view.ByteOffset+view.ByteLength]
	for i := 0; i < len(data); i += 12 {
		copy(data[i:], appendFloat(appendFloat(appendFloat(nil, 1), 2), 3))
	}

	_, err := CompressDocument(doc, DefaultCompressOptions())
	require.NoError(t, err)

	decoded, err := Decode(doc)
	require.NoError(t, err)
	got := decoded[0].Attributes["POSITION"].Values
	require.Len(t, got, len(fx.positions))
	for i := 0; i < len(got); i += 3 {
		assert.Equal(t, []float32{1, 2, 3}, got[i:i+3])
	}
}

func TestOptionsBitsForSemantic(t *testing.T) {
	o := DefaultCompressOptions()
	assert.Equal(t, 14, o.bitsFor("POSITION"))
	assert.Equal(t, 10, o.bitsFor("NORMAL"))
	assert.Equal(t, 10, o.bitsFor("TANGENT"))
	assert.Equal(t, 12, o.bitsFor("TEXCOORD_1"))
	assert.Equal(t, 8, o.bitsFor("COLOR_0"))
	assert.Equal(t, 12, o.bitsFor("WEIGHTS_0"))
	assert.NoError(t, o.Validate())
}

package asset

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	assert.Equal(t, "models/shoe1.gltf", ConvertedPath("models/shoe1.glb"))
	assert.Equal(t, "models/shoe1.gltf", ConvertedPath("models/shoe1.GLB"))
	assert.Equal(t, "models/shoe1-draco.gltf", CompressedPath("models/shoe1.gltf", "-draco"))
	assert.Equal(t, "a.b-min.gltf", CompressedPath("a.b.gltf", "-min"))
}

func TestConvertWritesEmbeddedSibling(t *testing.T) {
	dir := t.TempDir()
	in, _ := writeGLB(t, dir, "shoe.glb", 8)

	out, err := Converter{}.Convert(t.Context(), in)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "shoe.gltf"), out)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"shoe.glb", "shoe.gltf"}, names)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(string(raw)), "{"))
	assert.Contains(t, string(raw), "data:application/octet-stream;base64,")

	src, err := gltf.Open(in)
	require.NoError(t, err)
	dst, err := gltf.Open(out)
	require.NoError(t, err)

	assert.Len(t, dst.Nodes, len(src.Nodes))
	assert.Len(t, dst.Meshes, len(src.Meshes))
	assert.Len(t, dst.Materials, len(src.Materials))
	assert.Len(t, dst.Textures, len(src.Textures))
	assert.Len(t, dst.Images, len(src.Images))
	n := src.Buffers[0].ByteLength
	require.GreaterOrEqual(t, len(dst.Buffers[0].Data), n)
	assert.Equal(t, src.Buffers[0].Data[:n], dst.Buffers[0].Data[:n])
}

func TestConvertRejectsMalformedInput(t *testing.T) {
	dir := t.TempDir()
	cases := map[string][]byte{
		"text.glb":      []byte("definitely not a model"),
		"short.glb":     []byte("glTF"),
		"version1.glb":  {'g', 'l', 'T', 'F', 1, 0, 0, 0, 12, 0, 0, 0},
		"truncated.glb": {'g', 'l', 'T', 'F', 2, 0, 0, 0, 0, 1, 0, 0},
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			in := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(in, body, 0o644))

			_, err := Converter{}.Convert(t.Context(), in)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, in, pe.Path)
			assert.ErrorIs(t, err, ErrNotGLB)
			assert.NoFileExists(t, ConvertedPath(in))
		})
	}
}

func TestConvertMissingFile(t *testing.T) {
	in := filepath.Join(t.TempDir(), "nope.glb")

	_, err := Converter{}.Convert(t.Context(), in)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "nope.glb")
}

package asset

import (
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/require"
)

// fixture keeps the geometry a test document was built from.
type fixture struct {
	positions []float32
	indices   []uint32
	colors    []byte
	image     []byte
}

// gridDoc builds an n*n vertex height field with normals, uvs, byte
// colours, ushort indices and one embedded image.
func gridDoc(n int) (*gltf.Document, fixture) {
	var fx fixture
	var pos, nrm, uv []byte
	lo := []float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := []float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x := float32(i)*0.1 - 1
			z := float32(j)*0.1 - 1
			y := float32(0.25 * math.Sin(float64(x)*3) * math.Cos(float64(z)*2))
			for k, v := range []float32{x, y, z} {
				fx.positions = append(fx.positions, v)
				pos = appendFloat(pos, v)
				lo[k] = math.Min(lo[k], float64(v))
				hi[k] = math.Max(hi[k], float64(v))
			}
			ny := float32(math.Sqrt(1 - float64(y*y)))
			for _, v := range []float32{y, ny, 0} {
				nrm = appendFloat(nrm, v)
			}
			uv = appendFloat(uv, float32(i)/float32(n-1))
			uv = appendFloat(uv, float32(j)/float32(n-1))
			fx.colors = append(fx.colors, byte(i*10), byte(j*10), 128, 255)
		}
	}

	var idx []byte
	for i := 0; i < n-1; i++ {
		for j := 0; j < n-1; j++ {
			a := uint32(i*n + j)
			b, c, d := a+1, a+uint32(n), a+uint32(n)+1
			for _, v := range []uint32{a, c, b, b, c, d} {
				fx.indices = append(fx.indices, v)
				idx = binary.LittleEndian.AppendUint16(idx, uint16(v))
			}
		}
	}
	fx.image = []byte("\x89PNG\r\n\x1a\nnot-really-a-png-but-bytes-are-bytes")

	doc := &gltf.Document{
		Asset:   gltf.Asset{Version: "2.0", Generator: "solestore-test"},
		Buffers: []*gltf.Buffer{{}},
	}
	count := n * n
	posAcc := addAccessor(doc, addView(doc, pos), gltf.ComponentFloat, gltf.AccessorVec3, count, false)
	doc.Accessors[posAcc].Min = lo
	doc.Accessors[posAcc].Max = hi
	nrmAcc := addAccessor(doc, addView(doc, nrm), gltf.ComponentFloat, gltf.AccessorVec3, count, false)
	uvAcc := addAccessor(doc, addView(doc, uv), gltf.ComponentFloat, gltf.AccessorVec2, count, false)
	colAcc := addAccessor(doc, addView(doc, fx.colors), gltf.ComponentUbyte, gltf.AccessorVec4, count, true)
	idxAcc := addAccessor(doc, addView(doc, idx), gltf.ComponentUshort, gltf.AccessorScalar, len(fx.indices), false)
	imgView := addView(doc, fx.image)

	doc.Meshes = []*gltf.Mesh{{
		Name: "upper",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{
				"POSITION":   posAcc,
				"NORMAL":     nrmAcc,
				"TEXCOORD_0": uvAcc,
				"COLOR_0":    colAcc,
			},
			Indices:  gltf.Index(idxAcc),
			Material: gltf.Index(0),
		}},
	}}
	doc.Materials = []*gltf.Material{{Name: "leather"}}
	doc.Images = []*gltf.Image{{Name: "swatch", MimeType: "image/png", BufferView: gltf.Index(imgView)}}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}}
	doc.Nodes = []*gltf.Node{{Name: "shoe", Mesh: gltf.Index(0)}}
	doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
	doc.Scene = gltf.Index(0)
	return doc, fx
}

func appendFloat(b []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
}

func addView(doc *gltf.Document, data []byte) int {
	buf := doc.Buffers[0]
	pad(&buf.Data)
	doc.BufferViews = append(doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: len(buf.Data),
		ByteLength: len(data),
	})
	buf.Data = append(buf.Data, data...)
	buf.ByteLength = len(buf.Data)
	return len(doc.BufferViews) - 1
}

func addAccessor(doc *gltf.Document, view int, ct gltf.ComponentType, typ gltf.AccessorType, count int, normalized bool) int {
	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		BufferView:    gltf.Index(view),
		ComponentType: ct,
		Type:          typ,
		Count:         count,
		Normalized:    normalized,
	})
	return len(doc.Accessors) - 1
}

// writeGLB saves a grid model as dir/name and returns its path.
func writeGLB(t *testing.T, dir, name string, n int) (string, fixture) {
	t.Helper()
	doc, fx := gridDoc(n)
	path := filepath.Join(dir, name)
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path, fx
}

// convertGrid writes a grid GLB and converts it, returning the .gltf path.
func convertGrid(t *testing.T, n int) (string, fixture) {
	t.Helper()
	in, fx := writeGLB(t, t.TempDir(), "shoe.glb", n)
	out, err := Converter{}.Convert(t.Context(), in)
	require.NoError(t, err)
	return out, fx
}

// positionStep is one 14-bit quantization step over the fixture's bounding box.
func positionStep(positions []float32, bits int) float64 {
	var rng float64
	for k := 0; k < 3; k++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := k; i < len(positions); i += 3 {
			lo = math.Min(lo, float64(positions[i]))
			hi = math.Max(hi, float64(positions[i]))
		}
		rng = math.Max(rng, hi-lo)
	}
	return rng / float64(uint32(1)<<bits-1)
}

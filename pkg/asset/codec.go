package asset

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/klauspost/compress/zstd"
	"github.com/qmuntal/gltf"
)

// ExtensionName marks primitives whose geometry lives in a quantized,
// zstd-compressed buffer view.
const ExtensionName = "SOLE_mesh_quantization"

// QuantizedMesh is the primitive extension payload.
type QuantizedMesh struct {
	BufferView  int                            `json:"bufferView"`
	VertexCount int                            `json:"vertexCount"`
	Indexed     bool                           `json:"indexed,omitempty"`
	IndexCount  int                            `json:"indexCount,omitempty"`
	Attributes  map[string]*QuantizedAttribute `json:"attributes"`
}

// QuantizedAttribute describes one attribute stream. Float attributes carry
// Bits, Origin and Range; other component types are stored verbatim.
type QuantizedAttribute struct {
	ID            int                `json:"id"`
	Type          gltf.AccessorType  `json:"type"`
	ComponentType gltf.ComponentType `json:"componentType"`
	Normalized    bool               `json:"normalized,omitempty"`
	Bits          int                `json:"bits,omitempty"`
	Origin        []float64          `json:"origin,omitempty"`
	Range         float64            `json:"range,omitempty"`
}

func init() {
	gltf.RegisterExtension(ExtensionName, func(data []byte) (any, error) {
		qm := new(QuantizedMesh)
		if err := json.Unmarshal(data, qm); err != nil {
			return nil, err
		}
		return qm, nil
	})
}

// Stats summarises one CompressDocument call.
type Stats struct {
	Primitives  int
	RawBytes    int
	PackedBytes int
}

// QuantizeCompressor is the built-in geometry compressor.
type QuantizeCompressor struct{}

func (QuantizeCompressor) Name() string { return "builtin" }

func (QuantizeCompressor) Compress(ctx context.Context, in, out string, opts CompressOptions) error {
	doc, err := gltf.Open(in)
	if err != nil {
		return &ParseError{Path: in, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := CompressDocument(doc, opts); err != nil {
		return err
	}
	return writeDocument(out, doc)
}

// CompressDocument rewrites every mesh primitive of doc in place.
func CompressDocument(doc *gltf.Document, opts CompressOptions) (Stats, error) {
	var stats Stats
	if err := opts.Validate(); err != nil {
		return stats, err
	}

	var prims []*gltf.Primitive
	for _, m := range doc.Meshes {
		prims = append(prims, m.Primitives...)
	}
	if len(prims) == 0 {
		return stats, ErrNoPrimitives
	}
	for i, p := range prims {
		if len(p.Targets) > 0 {
			return stats, fmt.Errorf("%w: primitive %d has morph targets", ErrUnsupported, i)
		}
		if _, ok := p.Extensions[ExtensionName]; ok {
			return stats, fmt.Errorf("%w: primitive %d", ErrAlreadyCompressed, i)
		}
		if _, ok := p.Extensions["KHR_draco_mesh_compression"]; ok {
			return stats, fmt.Errorf("%w: primitive %d carries draco data", ErrAlreadyCompressed, i)
		}
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encoderLevel(opts.Level)))
	if err != nil {
		return stats, fmt.Errorf("asset: zstd encoder: %w", err)
	}
	defer enc.Close()

	if len(doc.Buffers) == 0 {
		doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	}
	target := doc.Buffers[0]

	meshes := make([]*QuantizedMesh, 0, len(prims))
	for i, p := range prims {
		stream, qm, err := encodePrimitive(doc, p, opts)
		if err != nil {
			return stats, fmt.Errorf("primitive %d: %w", i, err)
		}
		payload := enc.EncodeAll(stream, nil)

		pad(&target.Data)
		doc.BufferViews = append(doc.BufferViews, &gltf.BufferView{
			Buffer:     0,
			ByteOffset: len(target.Data),
			ByteLength: len(payload),
		})
		target.Data = append(target.Data, payload...)
		qm.BufferView = len(doc.BufferViews) - 1

		if p.Extensions == nil {
			p.Extensions = gltf.Extensions{}
		}
		p.Extensions[ExtensionName] = qm
		meshes = append(meshes, qm)

		stats.Primitives++
		stats.RawBytes += len(stream)
		stats.PackedBytes += len(payload)
	}

	doc.ExtensionsUsed = addOnce(doc.ExtensionsUsed, ExtensionName)
	if !opts.UncompressedFallback {
		doc.ExtensionsRequired = addOnce(doc.ExtensionsRequired, ExtensionName)
		if err := stripGeometry(doc, prims, meshes); err != nil {
			return stats, err
		}
	}

	embedBuffers(doc)
	return stats, nil
}

func encodePrimitive(doc *gltf.Document, p *gltf.Primitive, opts CompressOptions) ([]byte, *QuantizedMesh, error) {
	qm := &QuantizedMesh{Attributes: make(map[string]*QuantizedAttribute, len(p.Attributes))}

	names := make([]string, 0, len(p.Attributes))
	for name := range p.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	w := &bitWriter{}
	for id, name := range names {
		acc, err := accessorAt(doc, p.Attributes[name])
		if err != nil {
			return nil, nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		if acc.Sparse != nil {
			return nil, nil, fmt.Errorf("%w: attribute %s is sparse", ErrUnsupported, name)
		}
		if id == 0 {
			qm.VertexCount = acc.Count
		} else if acc.Count != qm.VertexCount {
			return nil, nil, fmt.Errorf("%w: attribute %s has %d vertices, want %d", ErrUnsupported, name, acc.Count, qm.VertexCount)
		}

		qa := &QuantizedAttribute{
			ID:            id,
			Type:          acc.Type,
			ComponentType: acc.ComponentType,
			Normalized:    acc.Normalized,
		}
		qm.Attributes[name] = qa

		if acc.ComponentType != gltf.ComponentFloat {
			raw, err := packed(doc, acc)
			if err != nil {
				return nil, nil, fmt.Errorf("attribute %s: %w", name, err)
			}
			w.align()
			w.buf = append(w.buf, raw...)
			continue
		}

		values, err := floats(doc, acc)
		if err != nil {
			return nil, nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		qa.Bits = opts.bitsFor(name)
		if err := quantize(w, values, acc.Type.Components(), qa); err != nil {
			return nil, nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		w.align()
	}

	if p.Indices != nil {
		acc, err := accessorAt(doc, *p.Indices)
		if err != nil {
			return nil, nil, fmt.Errorf("indices: %w", err)
		}
		if acc.Sparse != nil {
			return nil, nil, fmt.Errorf("%w: indices are sparse", ErrUnsupported)
		}
		idx, err := indices(doc, acc)
		if err != nil {
			return nil, nil, err
		}
		qm.Indexed = true
		qm.IndexCount = len(idx)
		for _, v := range idx {
			w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
		}
	}
	return w.buf, qm, nil
}

// quantize maps values onto the attribute's bounding box with a single
// range shared by all components, then writes Bits per component.
func quantize(w *bitWriter, values []float32, comps int, qa *QuantizedAttribute) error {
	qa.Origin = make([]float64, comps)
	hi := make([]float64, comps)
	for k := range qa.Origin {
		qa.Origin[k] = math.Inf(1)
		hi[k] = math.Inf(-1)
	}
	for i, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value at component %d", ErrUnsupported, i)
		}
		k := i % comps
		qa.Origin[k] = min(qa.Origin[k], f)
		hi[k] = max(hi[k], f)
	}
	if len(values) == 0 {
		clear(qa.Origin)
		return nil
	}
	for k := range hi {
		qa.Range = max(qa.Range, hi[k]-qa.Origin[k])
	}

	maxQ := float64(uint32(1)<<qa.Bits - 1)
	for i, v := range values {
		var q uint32
		if qa.Range > 0 {
			q = uint32(min(math.Round((float64(v)-qa.Origin[i%comps])/qa.Range*maxQ), maxQ))
		}
		w.write(q, uint(qa.Bits))
	}
	return nil
}

// DecodedAttribute holds one decompressed attribute stream. Float
// attributes fill Values; the others keep their packed bytes in Raw.
type DecodedAttribute struct {
	Type          gltf.AccessorType
	ComponentType gltf.ComponentType
	Values        []float32
	Raw           []byte
}

// DecodedPrimitive is the geometry recovered from one compressed primitive.
type DecodedPrimitive struct {
	Mesh        int
	Primitive   int
	VertexCount int
	Indices     []uint32
	Attributes  map[string]DecodedAttribute
}

// Decode recovers the geometry of every compressed primitive in doc.
func Decode(doc *gltf.Document) ([]DecodedPrimitive, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("asset: zstd decoder: %w", err)
	}
	defer dec.Close()

	var out []DecodedPrimitive
	for mi, m := range doc.Meshes {
		for pi, p := range m.Primitives {
			qm, ok, err := quantizedMesh(p)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			if !ok {
				continue
			}
			dp, err := decodePrimitive(doc, dec, qm)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			dp.Mesh, dp.Primitive = mi, pi
			out = append(out, dp)
		}
	}
	return out, nil
}

func decodePrimitive(doc *gltf.Document, dec *zstd.Decoder, qm *QuantizedMesh) (DecodedPrimitive, error) {
	dp := DecodedPrimitive{VertexCount: qm.VertexCount, Attributes: make(map[string]DecodedAttribute, len(qm.Attributes))}

	if qm.BufferView < 0 || qm.BufferView >= len(doc.BufferViews) {
		return dp, fmt.Errorf("%w: missing buffer view %d", ErrCorruptPayload, qm.BufferView)
	}
	view := doc.BufferViews[qm.BufferView]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) {
		return dp, fmt.Errorf("%w: missing buffer %d", ErrCorruptPayload, view.Buffer)
	}
	data := doc.Buffers[view.Buffer].Data
	if view.ByteOffset+view.ByteLength > len(data) {
		return dp, fmt.Errorf("%w: buffer view overruns buffer", ErrCorruptPayload)
	}
	stream, err := dec.DecodeAll(data[view.ByteOffset:view.ByteOffset+view.ByteLength], nil)
	if err != nil {
		return dp, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}

	names := make([]string, 0, len(qm.Attributes))
	for name := range qm.Attributes {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int { return qm.Attributes[a].ID - qm.Attributes[b].ID })

	r := &bitReader{buf: stream}
	for _, name := range names {
		qa := qm.Attributes[name]
		da := DecodedAttribute{Type: qa.Type, ComponentType: qa.ComponentType}

		if qa.ComponentType != gltf.ComponentFloat {
			da.Raw, err = r.take(qm.VertexCount * gltf.SizeOfElement(qa.ComponentType, qa.Type))
			if err != nil {
				return dp, fmt.Errorf("attribute %s: %w", name, err)
			}
			dp.Attributes[name] = da
			continue
		}

		if qa.Bits < 1 || qa.Bits > 30 {
			return dp, fmt.Errorf("%w: attribute %s has %d bits", ErrCorruptPayload, name, qa.Bits)
		}
		comps := qa.Type.Components()
		if len(qa.Origin) != comps {
			return dp, fmt.Errorf("%w: attribute %s origin has %d components", ErrCorruptPayload, name, len(qa.Origin))
		}
		maxQ := float64(uint32(1)<<qa.Bits - 1)
		da.Values = make([]float32, qm.VertexCount*comps)
		for i := range da.Values {
			q, err := r.read(uint(qa.Bits))
			if err != nil {
				return dp, fmt.Errorf("attribute %s: %w", name, err)
			}
			da.Values[i] = float32(qa.Origin[i%comps] + float64(q)/maxQ*qa.Range)
		}
		r.align()
		dp.Attributes[name] = da
	}

	if qm.Indexed {
		raw, err := r.take(qm.IndexCount * 4)
		if err != nil {
			return dp, fmt.Errorf("indices: %w", err)
		}
		dp.Indices = make([]uint32, qm.IndexCount)
		for i := range dp.Indices {
			dp.Indices[i] = binary.LittleEndian.Uint32(raw[4*i:])
		}
	}
	return dp, nil
}

// quantizedMesh reads the extension whether the decoder produced our type
// or left it as raw JSON.
func quantizedMesh(p *gltf.Primitive) (*QuantizedMesh, bool, error) {
	v, ok := p.Extensions[ExtensionName]
	if !ok {
		return nil, false, nil
	}
	switch ext := v.(type) {
	case *QuantizedMesh:
		return ext, true, nil
	case json.RawMessage:
		qm := new(QuantizedMesh)
		if err := json.Unmarshal(ext, qm); err != nil {
			return nil, true, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
		}
		return qm, true, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, true, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
		}
		qm := new(QuantizedMesh)
		if err := json.Unmarshal(b, qm); err != nil {
			return nil, true, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
		}
		return qm, true, nil
	}
}

func accessorAt(doc *gltf.Document, i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(doc.Accessors) {
		return nil, fmt.Errorf("missing accessor %d", i)
	}
	return doc.Accessors[i], nil
}

// encoderLevel maps the 0-10 compression level onto zstd's presets.
func encoderLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 2:
		return zstd.SpeedFastest
	case level <= 5:
		return zstd.SpeedDefault
	case level <= 8:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

func addOnce(list []string, name string) []string {
	if slices.Contains(list, name) {
		return list
	}
	return append(list, name)
}

// pad aligns b to four bytes.
func pad(b *[]byte) {
	for len(*b)%4 != 0 {
		*b = append(*b, 0)
	}
}

package asset

import (
	"encoding/json"
	"fmt"

	"github.com/qmuntal/gltf"
)

// stripGeometry detaches the uncompressed vertex and index data of the
// compressed primitives and repacks the buffers without it. Accessors keep
// their count, type and bounds; only their buffer view goes away.
func stripGeometry(doc *gltf.Document, prims []*gltf.Primitive, meshes []*QuantizedMesh) error {
	for i, acc := range doc.Accessors {
		if acc.Sparse != nil {
			return fmt.Errorf("%w: accessor %d is sparse", ErrUnsupported, i)
		}
	}

	keep, err := animationAndSkinAccessors(doc)
	if err != nil {
		return err
	}
	for _, p := range prims {
		for _, a := range p.Attributes {
			if !keep[a] {
				doc.Accessors[a].BufferView = nil
			}
		}
		if p.Indices != nil && !keep[*p.Indices] {
			doc.Accessors[*p.Indices].BufferView = nil
		}
	}

	used := make(map[int]bool)
	for _, acc := range doc.Accessors {
		if acc.BufferView != nil {
			used[*acc.BufferView] = true
		}
	}
	for _, img := range doc.Images {
		if img.BufferView != nil {
			used[*img.BufferView] = true
		}
	}
	for _, qm := range meshes {
		used[qm.BufferView] = true
	}

	viewMap, bufMap, err := repack(doc, used)
	if err != nil {
		return err
	}

	for _, acc := range doc.Accessors {
		if acc.BufferView != nil {
			acc.BufferView = gltf.Index(viewMap[*acc.BufferView])
		}
	}
	for _, img := range doc.Images {
		if img.BufferView != nil {
			img.BufferView = gltf.Index(viewMap[*img.BufferView])
		}
	}
	for _, qm := range meshes {
		qm.BufferView = viewMap[qm.BufferView]
	}
	for _, v := range doc.BufferViews {
		v.Buffer = bufMap[v.Buffer]
	}
	return nil
}

// repack rebuilds every buffer from the used views only, keeping view order
// and four byte alignment. It returns old-to-new index maps for views and
// buffers; buffers left without views are dropped.
func repack(doc *gltf.Document, used map[int]bool) (map[int]int, map[int]int, error) {
	viewMap := make(map[int]int)
	bufMap := make(map[int]int)

	data := make([][]byte, len(doc.Buffers))
	var views []*gltf.BufferView
	for i, v := range doc.BufferViews {
		if !used[i] {
			continue
		}
		if v.Buffer < 0 || v.Buffer >= len(doc.Buffers) || v.ByteOffset+v.ByteLength > len(doc.Buffers[v.Buffer].Data) {
			return nil, nil, fmt.Errorf("%w: buffer view %d overruns its buffer", ErrUnsupported, i)
		}
		src := doc.Buffers[v.Buffer].Data[v.ByteOffset : v.ByteOffset+v.ByteLength]
		pad(&data[v.Buffer])
		v.ByteOffset = len(data[v.Buffer])
		data[v.Buffer] = append(data[v.Buffer], src...)
		viewMap[i] = len(views)
		views = append(views, v)
	}
	doc.BufferViews = views

	var buffers []*gltf.Buffer
	for i, b := range doc.Buffers {
		if len(data[i]) == 0 {
			continue
		}
		bufMap[i] = len(buffers)
		b.Data = data[i]
		buffers = append(buffers, b)
	}
	doc.Buffers = buffers
	return viewMap, bufMap, nil
}

// animationAndSkinAccessors collects accessors that must survive stripping.
// It reads the JSON form so only the schema's property names matter.
func animationAndSkinAccessors(doc *gltf.Document) (map[int]bool, error) {
	raw, err := json.Marshal(struct {
		Animations any `json:"animations"`
		Skins      any `json:"skins"`
	}{doc.Animations, doc.Skins})
	if err != nil {
		return nil, fmt.Errorf("asset: inspect animations: %w", err)
	}

	var refs struct {
		Animations []struct {
			Samplers []struct {
				Input  *int `json:"input"`
				Output *int `json:"output"`
			} `json:"samplers"`
		} `json:"animations"`
		Skins []struct {
			InverseBindMatrices *int `json:"inverseBindMatrices"`
		} `json:"skins"`
	}
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, fmt.Errorf("asset: inspect animations: %w", err)
	}

	keep := make(map[int]bool)
	for _, a := range refs.Animations {
		for _, s := range a.Samplers {
			if s.Input != nil {
				keep[*s.Input] = true
			}
			if s.Output != nil {
				keep[*s.Output] = true
			}
		}
	}
	for _, s := range refs.Skins {
		if s.InverseBindMatrices != nil {
			keep[*s.InverseBindMatrices] = true
		}
	}
	return keep, nil
}

// embedBuffers turns every buffer into a base64 data URI.
func embedBuffers(doc *gltf.Document) {
	for _, b := range doc.Buffers {
		b.ByteLength = len(b.Data)
		b.EmbeddedResource()
	}
}

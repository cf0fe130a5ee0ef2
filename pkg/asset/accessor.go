package asset

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
)

// elements returns the raw bytes of each accessor element, honouring the
// buffer view's stride. Accessors without a buffer view are all zeros.
func elements(doc *gltf.Document, acc *gltf.Accessor) ([][]byte, error) {
	size := gltf.SizeOfElement(acc.ComponentType, acc.Type)
	out := make([][]byte, acc.Count)

	if acc.BufferView == nil {
		zero := make([]byte, size)
		for i := range out {
			out[i] = zero
		}
		return out, nil
	}

	if *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor references missing buffer view %d", *acc.BufferView)
	}
	view := doc.BufferViews[*acc.BufferView]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer view references missing buffer %d", view.Buffer)
	}
	data := doc.Buffers[view.Buffer].Data

	stride := view.ByteStride
	if stride == 0 {
		stride = size
	}
	start := view.ByteOffset + acc.ByteOffset
	end := view.ByteOffset + view.ByteLength
	if end > len(data) {
		return nil, fmt.Errorf("buffer view %d overruns buffer %d", *acc.BufferView, view.Buffer)
	}
	for i := range out {
		off := start + i*stride
		if off+size > end {
			return nil, fmt.Errorf("accessor element %d overruns buffer view %d", i, *acc.BufferView)
		}
		out[i] = data[off : off+size]
	}
	return out, nil
}

// floats decodes a float accessor into a flat component slice.
func floats(doc *gltf.Document, acc *gltf.Accessor) ([]float32, error) {
	if acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("accessor component type %v is not float", acc.ComponentType)
	}
	elems, err := elements(doc, acc)
	if err != nil {
		return nil, err
	}
	n := acc.Type.Components()
	out := make([]float32, 0, len(elems)*n)
	for _, e := range elems {
		for k := 0; k < n; k++ {
			out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(e[4*k:])))
		}
	}
	return out, nil
}

// indices decodes a scalar index accessor of any unsigned width.
func indices(doc *gltf.Document, acc *gltf.Accessor) ([]uint32, error) {
	if acc.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("index accessor type %v is not scalar", acc.Type)
	}
	elems, err := elements(doc, acc)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, len(elems))
	for i, e := range elems {
		switch acc.ComponentType {
		case gltf.ComponentUbyte:
			out[i] = uint32(e[0])
		case gltf.ComponentUshort:
			out[i] = uint32(binary.LittleEndian.Uint16(e))
		case gltf.ComponentUint:
			out[i] = binary.LittleEndian.Uint32(e)
		default:
			return nil, fmt.Errorf("index component type %v is not unsigned", acc.ComponentType)
		}
	}
	return out, nil
}

// packed copies an accessor's elements into one tightly packed slice.
func packed(doc *gltf.Document, acc *gltf.Accessor) ([]byte, error) {
	elems, err := elements(doc, acc)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(elems)*gltf.SizeOfElement(acc.ComponentType, acc.Type))
	for _, e := range elems {
		out = append(out, e...)
	}
	return out, nil
}

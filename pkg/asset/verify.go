package asset

import (
	"math"

	"github.com/qmuntal/gltf"
)

// PrimitiveReport compares decoded positions against the original data.
// Compared is false when the document carries no uncompressed fallback.
type PrimitiveReport struct {
	Mesh        int
	Primitive   int
	Vertices    int
	Indices     int
	Bits        int
	Step        float64 // one quantization step
	MaxError    float64
	Compared    bool
	WithinBound bool // MaxError <= Step/2, with float32 slack
}

// Verify decodes every compressed primitive in doc and measures the
// position error.
func Verify(doc *gltf.Document) ([]PrimitiveReport, error) {
	decoded, err := Decode(doc)
	if err != nil {
		return nil, err
	}

	reports := make([]PrimitiveReport, 0, len(decoded))
	for _, dp := range decoded {
		r := PrimitiveReport{
			Mesh:      dp.Mesh,
			Primitive: dp.Primitive,
			Vertices:  dp.VertexCount,
			Indices:   len(dp.Indices),
		}

		prim := doc.Meshes[dp.Mesh].Primitives[dp.Primitive]
		qm, _, err := quantizedMesh(prim)
		if err != nil {
			return nil, err
		}
		qa, ok := qm.Attributes["POSITION"]
		if !ok || qa.ComponentType != gltf.ComponentFloat {
			reports = append(reports, r)
			continue
		}
		r.Bits = qa.Bits
		r.Step = qa.Range / float64(uint32(1)<<qa.Bits-1)

		idx, ok := prim.Attributes["POSITION"]
		if ok && idx < len(doc.Accessors) && doc.Accessors[idx].BufferView != nil {
			orig, err := floats(doc, doc.Accessors[idx])
			if err != nil {
				return nil, err
			}
			got := dp.Attributes["POSITION"].Values
			if len(orig) == len(got) {
				for i := range orig {
					r.MaxError = math.Max(r.MaxError, math.Abs(float64(orig[i])-float64(got[i])))
				}
				r.Compared = true
				r.WithinBound = r.MaxError <= r.Step/2+tolerance(qa)
			}
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// tolerance absorbs float32 rounding of the decoded values.
func tolerance(qa *QuantizedAttribute) float64 {
	m := qa.Range
	for _, o := range qa.Origin {
		m = math.Max(m, math.Abs(o)+qa.Range)
	}
	return m * 1e-6
}

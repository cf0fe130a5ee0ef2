package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solestore/solestore/pkg/validate"
)

func TestStringListValue(t *testing.T) {
	v, err := StringList{"red", "blue", "black"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["red","blue","black"]`, v)

	v, err = StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestStringListScan(t *testing.T) {
	cases := []struct {
		name string
		src  any
		want StringList
	}{
		{"text", `["a","b"]`, StringList{"a", "b"}},
		{"bytes", []byte(`["x"]`), StringList{"x"}},
		{"null", nil, StringList{}},
		{"empty text", "", StringList{}},
		{"json null", "null", StringList{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var l StringList
			require.NoError(t, l.Scan(tc.src))
			assert.Equal(t, tc.want, l)
		})
	}
}

func TestStringListScanRejectsGarbage(t *testing.T) {
	var l StringList
	assert.Error(t, l.Scan(`not json`))
	assert.Error(t, l.Scan(42))
}

func TestProductJSONShape(t *testing.T) {
	p := Product{
		ID:              "1",
		Name:            "Red Runner",
		Price:           129.99,
		AvailableColors: StringList{"red", "blue", "black"},
		Reviews:         124,
		InStock:         true,
	}

	b, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))

	assert.Equal(t, 129.99, raw["price"])
	assert.Equal(t, float64(124), raw["reviews"])
	assert.Equal(t, true, raw["inStock"])
	assert.Equal(t, []any{"red", "blue", "black"}, raw["availableColors"])
	assert.Equal(t, []any{}, raw["features"])
	assert.NotContains(t, raw, "shoeScale")

	scale := 0.125
	p.ShoeScale = &scale
	b, err = json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"shoeScale":0.125`)
}

func TestProductScale(t *testing.T) {
	assert.Equal(t, 1.0, Product{}.Scale(1.0))

	s := 0.5
	assert.Equal(t, 0.5, Product{ShoeScale: &s}.Scale(1.0))
}

func TestProductValidation(t *testing.T) {
	p := Product{ID: "9", Name: "Trail", ModelPath: "/shoe9.glb", Date: "2025-04-01"}
	assert.Empty(t, validate.Struct(p))

	p.Price = -1
	p.Date = "yesterday"
	errs := validate.Struct(p)
	assert.Contains(t, errs, "price")
	assert.Contains(t, errs, "date")
}

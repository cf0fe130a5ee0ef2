package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct {
	name  string
	price int
}

func TestFilterKeepsOrderAndNeverNil(t *testing.T) {
	in := []int{5, 1, 4, 2}
	assert.Equal(t, []int{5, 4}, Filter(in, func(v int) bool { return v > 3 }))

	none := Filter(in, func(int) bool { return false })
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSortByIsStable(t *testing.T) {
	in := []item{{"c", 2}, {"a", 1}, {"b", 2}, {"d", 1}}
	SortBy(in, func(a, b item) bool { return a.price < b.price })

	assert.Equal(t, []string{"a", "d", "c", "b"}, Map(in, func(i item) string { return i.name }))
}

func TestFirstAndContains(t *testing.T) {
	in := []item{{"a", 1}, {"b", 2}}

	got, ok := First(in, func(i item) bool { return i.price == 2 })
	assert.True(t, ok)
	assert.Equal(t, "b", got.name)

	assert.False(t, Contains(in, func(i item) bool { return i.price > 5 }))
}

func TestKeyBy(t *testing.T) {
	m := KeyBy([]item{{"a", 1}, {"a", 3}}, func(i item) string { return i.name })
	assert.Equal(t, 3, m["a"].price)
}

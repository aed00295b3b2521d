package grouping

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind_SinglePair(t *testing.T) {
	res := Find([]string{"r a 10", "r a 10", "av b 20"})

	require.Len(t, res.Groups, 1)
	assert.Equal(t, []int{0, 1}, res.Groups[0].Rows)
	assert.Equal(t, Color1, res.Groups[0].Color)
	assert.Equal(t, 2, res.GroupedItems())
	assert.Equal(t, 3, res.ValidRows)
	assert.Equal(t, []Color{Color1}, res.ColorsPresent())

	_, ok := res.ColorOf(2)
	assert.False(t, ok)
}

func TestFind_NoDuplicates(t *testing.T) {
	res := Find([]string{"a", "b", "c", "d", "e", "f"})
	assert.Empty(t, res.Groups)
	assert.Equal(t, 0, res.GroupedItems())
	assert.Empty(t, res.Ordered())
	assert.Empty(t, res.ColorsPresent())
}

func TestFind_EmptyKeysExcluded(t *testing.T) {
	res := Find([]string{"", "", "x", "", "x"})
	require.Len(t, res.Groups, 1)
	assert.Equal(t, []int{2, 4}, res.Groups[0].Rows)
	assert.Equal(t, 2, res.ValidRows)

	res = Find([]string{"", ""})
	assert.Empty(t, res.Groups)
	assert.Equal(t, 0, res.ValidRows)

	res = Find(nil)
	assert.Empty(t, res.Groups)
}

func TestFind_ColorsRotate(t *testing.T) {
	// 12 rows forming 6 pairs; keys sort as k0 < k1 < ... < k5.
	var keys []string
	for i := 0; i < 6; i++ {
		k := fmt.Sprintf("k%d", i)
		keys = append(keys, k, k)
	}
	res := Find(keys)
	require.Len(t, res.Groups, 6)

	want := []Color{Color1, Color2, Color3, Color4, Color5, Color1}
	for i, g := range res.Groups {
		assert.Equal(t, want[i], g.Color, "rank %d", i)
	}
	assert.Equal(t, Palette, res.ColorsPresent())
}

func TestFind_OrderByKeyThenIndex(t *testing.T) {
	res := Find([]string{"zeta", "alpha", "zeta", "mid", "alpha", "zeta"})
	require.Len(t, res.Groups, 2)
	assert.Equal(t, "alpha", res.Groups[0].Key)
	assert.Equal(t, []int{1, 4}, res.Groups[0].Rows)
	assert.Equal(t, "zeta", res.Groups[1].Key)
	assert.Equal(t, []int{0, 2, 5}, res.Groups[1].Rows)
	assert.Equal(t, []int{1, 4, 0, 2, 5}, res.Ordered())
}

func TestFind_Invariants(t *testing.T) {
	keys := []string{"a", "b", "a", "", "c", "b", "a", "d", "c", ""}
	res := Find(keys)

	seen := map[int]bool{}
	for _, g := range res.Groups {
		assert.GreaterOrEqual(t, len(g.Rows), 2)
		for _, idx := range g.Rows {
			assert.False(t, seen[idx], "row %d in more than one group", idx)
			seen[idx] = true
			assert.Equal(t, g.Key, keys[idx])
			assert.NotEmpty(t, keys[idx])
		}
	}
	assert.Equal(t, len(seen), res.GroupedItems())
}

func TestColorForRank(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Equal(t, ColorForRank(i), ColorForRank(i+5))
	}
	assert.Equal(t, Color1, ColorForRank(0))
	assert.Equal(t, Color5, ColorForRank(4))
}

func TestParseColor(t *testing.T) {
	c, ok := ParseColor("group-color-3")
	assert.True(t, ok)
	assert.Equal(t, Color3, c)
	assert.NotEmpty(t, c.Fill())

	_, ok = ParseColor("group-color-9")
	assert.False(t, ok)
	assert.Empty(t, Color("nope").Fill())
}

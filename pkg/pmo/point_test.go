package pmo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointIsIn(t *testing.T) {
	assert.True(t, Point{X: 2, Y: 3}.IsIn(Point{}, Point{X: 10, Y: 10}))
	assert.False(t, Point{X: 10, Y: 3}.IsIn(Point{}, Point{X: 10, Y: 10}))
	assert.False(t, Point{X: -1, Y: 0}.IsIn(Point{}, Point{X: 10, Y: 10}))
}

func TestPointClip(t *testing.T) {
	p := Point{X: -5, Y: 20}
	assert.Equal(t, Point{X: 0, Y: 20}, p.ClipMin(Point{}))
	assert.Equal(t, Point{X: -5, Y: 10}, p.ClipMax(Point{X: 10, Y: 10}))
}

func TestCausalAreaIsRasterOrderAndStrictlyCausal(t *testing.T) {
	area := NewCausalArea(20, 20)
	target := Point{X: 10, Y: 10}
	area.Locate(target, 3)

	var visited []Point
	area.ForEach(func(p Point) { visited = append(visited, p) })

	require.Equal(t, area.Size(), len(visited))

	for _, p := range visited {
		causal := p.Y < target.Y || (p.Y == target.Y && p.X < target.X)
		assert.True(t, causal, "visited non-causal point %v for target %v", p, target)
	}

	for i := 1; i < len(visited); i++ {
		prev, cur := visited[i-1], visited[i]
		inOrder := cur.Y > prev.Y || (cur.Y == prev.Y && cur.X > prev.X)
		assert.True(t, inOrder, "raster order violated at %d: %v then %v", i, prev, cur)
	}
}

func TestCausalAreaClipsToImageBounds(t *testing.T) {
	area := NewCausalArea(5, 5)
	area.Locate(Point{X: 0, Y: 0}, 3)

	var visited []Point
	area.ForEach(func(p Point) { visited = append(visited, p) })

	assert.Empty(t, visited)
}

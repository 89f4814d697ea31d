package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNineCellSequenceMatchesSpecLaw(t *testing.T) {
	l := New(9, 320, 240, 16.0/9.0)
	require.Equal(t, 9, l.Len())

	want := []Cell{
		{0, 0}, {0, 1}, {1, 0}, {1, 1}, {0, 2}, {1, 2}, {2, 0}, {2, 1}, {2, 2},
	}
	for i, w := range want {
		assert.Equal(t, w, l.Cell(i), "slot %d", i)
	}
}

func TestAllNineCellsAppearExactlyOnceInA3x3Grid(t *testing.T) {
	l := New(9, 320, 240, 16.0/9.0)
	seen := map[Cell]bool{}
	for i := 0; i < l.Len(); i++ {
		c := l.Cell(i)
		require.False(t, seen[c], "cell %+v repeated", c)
		seen[c] = true
	}
	assert.Len(t, seen, 9)
}

func TestPixelOriginMatchesCellSize(t *testing.T) {
	l := New(4, 320, 240, 16.0/9.0)
	x, y := l.PixelOrigin(3)
	c := l.Cell(3)
	assert.Equal(t, c.Col*320, x)
	assert.Equal(t, c.Row*240, y)
}

func TestCompositeSizeForFourCellGrid(t *testing.T) {
	l := New(4, 320, 240, 16.0/9.0)
	w, h := l.CompositeSize(2, 2)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestBoundingBoxTracksMaxAssignedCoordinates(t *testing.T) {
	l := New(9, 320, 240, 16.0/9.0)
	rows, cols := l.BoundingBox([]int{0, 1, 2, 3})
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
}

func TestBoundingBoxWithNoAssignedSlotsStaysOneByOne(t *testing.T) {
	l := New(9, 320, 240, 16.0/9.0)
	rows, cols := l.BoundingBox(nil)
	assert.Equal(t, 1, rows)
	assert.Equal(t, 1, cols)
}

func TestGeometryMonotonicityLaw(t *testing.T) {
	l := New(9, 320, 240, 16.0/9.0)
	for n := 1; n <= 9; n++ {
		slots := make([]int, n)
		for i := range slots {
			slots[i] = i
		}
		rows, cols := l.BoundingBox(slots)
		assert.GreaterOrEqual(t, rows*cols, n)
	}
}

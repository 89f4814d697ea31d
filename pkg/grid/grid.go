// Package grid computes the layout-cell sequence for the composite
// display: the growth algorithm that tracks a target aspect ratio as
// cells are added, and the slot-index <-> (row,col)/(x,y) mapping
// built from it.
//
// Grounded on the tie-break and deviation formula in
// original_source/server.cpp's init_position_cells/init_position_points.
package grid

import "math"

// Cell is a (row, col) position in the virtual grid.
type Cell struct {
	Row, Col int
}

// Layout is the fixed, startup-computed cell sequence and its pixel
// companion for a given cap, cell size and target aspect ratio.
type Layout struct {
	cellW, cellH int
	cells        []Cell
}

// New computes the ordered sequence of n cells that keeps the drawn
// region as close as possible to targetAspect at every population
// level, per the growth algorithm in spec.md §4.1.
//
// Starting from a 1x1 grid, each step compares the aspect-ratio
// deviation of adding one more column against adding one more row and
// takes whichever is smaller; on a tie it adds a column.
func New(n, cellW, cellH int, targetAspect float64) *Layout {
	l := &Layout{cellW: cellW, cellH: cellH}
	if n <= 0 {
		return l
	}

	rows, cols := 1, 1
	l.cells = append(l.cells, Cell{0, 0})

	for rows*cols < n {
		horizDev := math.Abs(float64(cellW*(cols+1))/float64(cellH*rows) - targetAspect)
		vertDev := math.Abs(float64(cellW*cols)/float64(cellH*(rows+1)) - targetAspect)

		if horizDev <= vertDev {
			cols++
			j := cols - 1
			for i := 0; i < rows; i++ {
				l.cells = append(l.cells, Cell{i, j})
			}
		} else {
			rows++
			i := rows - 1
			for j := 0; j < cols; j++ {
				l.cells = append(l.cells, Cell{i, j})
			}
		}
	}

	if len(l.cells) > n {
		l.cells = l.cells[:n]
	}
	return l
}

// Len returns the number of cells in the sequence (== n, as built).
func (l *Layout) Len() int { return len(l.cells) }

// Cell returns the (row, col) cell assigned to usage-order slot index i.
func (l *Layout) Cell(slot int) Cell { return l.cells[slot] }

// PixelOrigin returns the top-left pixel coordinate of slot index i's cell.
func (l *Layout) PixelOrigin(slot int) (x, y int) {
	c := l.cells[slot]
	return l.cellW * c.Col, l.cellH * c.Row
}

// CompositeSize computes the pixel dimensions of a rows x cols
// composite, i.e. the capsfilter caps the crop update should apply.
func (l *Layout) CompositeSize(rows, cols int) (w, h int) {
	return l.cellW * cols, l.cellH * rows
}

// BoundingBox returns the smallest (rows, cols) rectangle covering the
// given occupied slot indices, per spec.md §4.5's crop update rule:
// rows/cols = 1 + max cell coordinate over assigned slots. With no
// assigned slots it still returns (1, 1), matching
// original_source/server.cpp's update_grid_size, which initializes
// max_i = max_j = 0 and returns rows = cols = 1 regardless of whether
// any SOURCE is active.
func (l *Layout) BoundingBox(slots []int) (rows, cols int) {
	rows, cols = 1, 1
	for _, s := range slots {
		c := l.cells[s]
		if c.Row+1 > rows {
			rows = c.Row + 1
		}
		if c.Col+1 > cols {
			cols = c.Col + 1
		}
	}
	return rows, cols
}

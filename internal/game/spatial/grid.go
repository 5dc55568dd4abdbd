// Package spatial provides a uniform grid for broad-phase circle queries.
//
// The grid stores entity indices (not pointers) in preallocated cells so it
// can be rebuilt cheaply for every placement batch.
package spatial

import (
	"math"
)

// Grid buckets points into square cells. Cell size should equal the largest
// query radius so a query touches at most 3x3 cells.
//
// Memory layout: cells are stored in row-major order (cells[row*cols+col])
type Grid struct {
	cellSize    float64
	invCellSize float64 // 1/cellSize for faster division
	cols, rows  int
	cells       [][]uint32 // cells[row*cols+col] = list of entity indices
	scratch     []uint32   // reusable buffer for query results
}

// NewGrid creates a grid covering width x height. Points outside the area
// are clamped into the border cells, so queries stay exact for them too.
// capacity is the expected number of entities.
func NewGrid(width, height, cellSize float64, capacity int) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}

	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))

	// Ensure at least 1x1 grid
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	perCell := capacity / len(cells)
	if perCell < 4 {
		perCell = 4
	}
	for i := range cells {
		cells[i] = make([]uint32, 0, perCell)
	}

	return &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
	}
}

// Clear empties all cells without deallocating them
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds entity id at (x, y)
func (g *Grid) Insert(id uint32, x, y float64) {
	col, row := g.cell(x, y)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], id)
}

// QueryRadius returns every entity whose cell intersects the square of half
// size radius around (cx, cy). Candidates may lie outside the radius; the
// caller does the exact test.
//
// The returned slice is reused by the next call.
func (g *Grid) QueryRadius(cx, cy, radius float64) []uint32 {
	g.scratch = g.scratch[:0]

	minCol, minRow := g.cell(cx-radius, cy-radius)
	maxCol, maxRow := g.cell(cx+radius, cy+radius)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}
	return g.scratch
}

// Len returns the number of stored entities
func (g *Grid) Len() int {
	n := 0
	for _, cell := range g.cells {
		n += len(cell)
	}
	return n
}

// Dimensions returns the grid dimensions
func (g *Grid) Dimensions() (cols, rows int, cellSize float64) {
	return g.cols, g.rows, g.cellSize
}

// cell maps a point to clamped column and row
func (g *Grid) cell(x, y float64) (int, int) {
	col := clamp(int(math.Floor(x*g.invCellSize)), g.cols-1)
	row := clamp(int(math.Floor(y*g.invCellSize)), g.rows-1)
	return col, row
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

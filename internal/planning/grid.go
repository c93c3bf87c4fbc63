package planning

import "math"

// Cell is a (row, col) grid index. Row runs north, col runs east.
type Cell struct {
	Row int
	Col int
}

// Grid is a 2-D boolean raster with unit cells. Cell (r, c) sits at world
// coordinate (r+NorthOffset, c+EastOffset). For an occupancy grid true means
// occupied; for a skeleton true means on the skeleton.
type Grid struct {
	Rows        int
	Cols        int
	NorthOffset int
	EastOffset  int
	cells       []bool
}

func NewGrid(rows, cols, northOffset, eastOffset int) *Grid {
	return &Grid{rows, cols, northOffset, eastOffset, make([]bool, rows*cols)}
}

func (g *Grid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < g.Rows && c.Col >= 0 && c.Col < g.Cols
}

// At reports whether c is in bounds and set.
func (g *Grid) At(c Cell) bool {
	return g.InBounds(c) && g.cells[c.Row*g.Cols+c.Col]
}

// Free reports whether c is in bounds and not set.
func (g *Grid) Free(c Cell) bool {
	return g.InBounds(c) && !g.cells[c.Row*g.Cols+c.Col]
}

func (g *Grid) Set(c Cell, v bool) {
	g.cells[c.Row*g.Cols+c.Col] = v
}

// Count returns the number of set cells.
func (g *Grid) Count() int {
	n := 0
	for _, v := range g.cells {
		if v {
			n++
		}
	}
	return n
}

// CellAt returns the cell containing the local (north, east) point. The
// result may be out of bounds.
func (g *Grid) CellAt(north, east float64) Cell {
	return Cell{int(math.Floor(north)) - g.NorthOffset, int(math.Floor(east)) - g.EastOffset}
}

// World returns the local (north, east) coordinate of c.
func (g *Grid) World(c Cell) (float64, float64) {
	return float64(c.Row + g.NorthOffset), float64(c.Col + g.EastOffset)
}

// CreateGrid rasterizes obstacles at the given altitude. Every obstacle
// footprint is inflated by safety in north and east. Obstacles whose top
// plus safety margin does not rise above altitude are ignored, but they still
// extend the grid.
func CreateGrid(obstacles []Obstacle, altitude, safety float64) *Grid {
	if len(obstacles) == 0 {
		return NewGrid(1, 1, 0, 0)
	}

	northMin, northMax := math.Inf(1), math.Inf(-1)
	eastMin, eastMax := math.Inf(1), math.Inf(-1)
	for _, o := range obstacles {
		northMin = math.Min(northMin, o.North-o.HalfNorth-safety)
		northMax = math.Max(northMax, o.North+o.HalfNorth+safety)
		eastMin = math.Min(eastMin, o.East-o.HalfEast-safety)
		eastMax = math.Max(eastMax, o.East+o.HalfEast+safety)
	}
	northMin, northMax = math.Floor(northMin), math.Ceil(northMax)
	eastMin, eastMax = math.Floor(eastMin), math.Ceil(eastMax)

	g := NewGrid(int(northMax-northMin)+1, int(eastMax-eastMin)+1, int(northMin), int(eastMin))

	for _, o := range obstacles {
		if o.Alt+o.HalfAlt+safety <= altitude {
			continue
		}
		r0 := clip(int(math.Ceil(o.North-o.HalfNorth-safety-northMin)), 0, g.Rows-1)
		r1 := clip(int(math.Floor(o.North+o.HalfNorth+safety-northMin)), 0, g.Rows-1)
		c0 := clip(int(math.Ceil(o.East-o.HalfEast-safety-eastMin)), 0, g.Cols-1)
		c1 := clip(int(math.Floor(o.East+o.HalfEast+safety-eastMin)), 0, g.Cols-1)
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				g.cells[r*g.Cols+c] = true
			}
		}
	}

	return g
}

func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

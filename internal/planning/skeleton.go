package planning

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// neighbourhood in circular order starting east; even indices are the four
// axis neighbours.
var ring = [8]Cell{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}

// ExtractSkeleton thins the free space of g down to a one cell wide ridge of
// maximal clearance. Cells are peeled in order of increasing distance to the
// nearest occupied cell and only simple points are removed, so the number
// and connectivity of free regions is preserved.
func ExtractSkeleton(g *Grid) *Grid {
	clearance := distanceTransform(g)
	skel := NewGrid(g.Rows, g.Cols, g.NorthOffset, g.EastOffset)

	order := make([]int, 0, len(g.cells))
	for i, occupied := range g.cells {
		if !occupied {
			skel.cells[i] = true
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return clearance[order[a]] < clearance[order[b]]
	})

	for {
		changed := false
		remaining := order[:0]
		for _, i := range order {
			c := Cell{i / g.Cols, i % g.Cols}
			var n [8]bool
			count := 0
			for k, d := range ring {
				n[k] = skel.At(Cell{c.Row + d.Row, c.Col + d.Col})
				if n[k] {
					count++
				}
			}
			if connectivity(n) != 1 || (count == 1 && isRidge(g, clearance, c)) {
				remaining = append(remaining, i)
				continue
			}
			skel.cells[i] = false
			changed = true
		}
		order = remaining
		if !changed {
			break
		}
	}

	return skel
}

// connectivity is the Yokoi 8-connectivity number of a neighbourhood. A
// foreground cell is simple, and can be removed without changing topology,
// iff it equals 1.
func connectivity(n [8]bool) int {
	bg := func(k int) int {
		if n[k%8] {
			return 0
		}
		return 1
	}
	nc := 0
	for k := 0; k < 8; k += 2 {
		nc += bg(k) - bg(k)*bg(k+1)*bg(k+2)
	}
	return nc
}

// isRidge reports whether clearance at c is a local maximum along at least
// one of the four line directions through c.
func isRidge(g *Grid, clearance []float64, c Cell) bool {
	v := clearance[c.Row*g.Cols+c.Col]
	at := func(x Cell) float64 {
		if !g.InBounds(x) {
			return 0
		}
		return clearance[x.Row*g.Cols+x.Col]
	}
	for k := 0; k < 4; k++ {
		d := ring[k]
		a := at(Cell{c.Row + d.Row, c.Col + d.Col})
		b := at(Cell{c.Row - d.Row, c.Col - d.Col})
		if v >= a && v >= b && (v > a || v > b) {
			return true
		}
	}
	return false
}

// distanceTransform returns the Euclidean distance from every cell to the
// nearest occupied cell (Felzenszwalb & Huttenlocher, separable in rows and
// columns). The area outside the grid counts as occupied.
func distanceTransform(g *Grid) []float64 {
	const inf = 1e20
	n := g.Rows
	if g.Cols > n {
		n = g.Cols
	}
	f := make([]float64, n)
	d := make([]float64, n)
	v := make([]int, n)
	z := make([]float64, n+1)

	dt := make([]float64, len(g.cells))
	for i, occupied := range g.cells {
		if !occupied {
			dt[i] = inf
		}
	}

	for c := 0; c < g.Cols; c++ {
		for r := 0; r < g.Rows; r++ {
			f[r] = dt[r*g.Cols+c]
		}
		edt1d(f[:g.Rows], d, v, z)
		for r := 0; r < g.Rows; r++ {
			dt[r*g.Cols+c] = d[r]
		}
	}
	for r := 0; r < g.Rows; r++ {
		copy(f, dt[r*g.Cols:(r+1)*g.Cols])
		edt1d(f[:g.Cols], d, v, z)
		copy(dt[r*g.Cols:(r+1)*g.Cols], d[:g.Cols])
	}

	for i := range dt {
		r, c := i/g.Cols, i%g.Cols
		edge := math.Min(math.Min(float64(r+1), float64(g.Rows-r)), math.Min(float64(c+1), float64(g.Cols-c)))
		dt[i] = math.Min(math.Sqrt(dt[i]), edge)
	}
	return dt
}

// edt1d computes the squared distance transform of the sampled function f
// into d using the lower envelope of parabolas.
func edt1d(f, d []float64, v []int, z []float64) {
	n := len(f)
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)
	for q := 1; q < n; q++ {
		s := ((f[q] + float64(q*q)) - (f[v[k]] + float64(v[k]*v[k]))) / float64(2*q-2*v[k])
		for s <= z[k] {
			k--
			s = ((f[q] + float64(q*q)) - (f[v[k]] + float64(v[k]*v[k]))) / float64(2*q-2*v[k])
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}

// Nearest returns the set cell closest to c by Euclidean distance. Ties go
// to the cell first in row-major order. Cells farther than radius are not
// considered; a radius <= 0 searches the whole grid.
func (g *Grid) Nearest(c Cell, radius int) (Cell, error) {
	if radius <= 0 {
		radius = g.reach(c)
	}
	limit := radius * radius

	var best Cell
	bestD := -1
	consider := func(x Cell) {
		if !g.At(x) {
			return
		}
		dr, dc := x.Row-c.Row, x.Col-c.Col
		d := dr*dr + dc*dc
		if d > limit {
			return
		}
		if bestD < 0 || d < bestD || (d == bestD && rowMajorLess(x, best)) {
			best, bestD = x, d
		}
	}

	for r := 0; r <= radius; r++ {
		if bestD >= 0 && r*r > bestD {
			break
		}
		for row := c.Row - r; row <= c.Row+r; row++ {
			if row < 0 || row >= g.Rows {
				continue
			}
			if row == c.Row-r || row == c.Row+r {
				for col := c.Col - r; col <= c.Col+r; col++ {
					consider(Cell{row, col})
				}
			} else {
				consider(Cell{row, c.Col - r})
				consider(Cell{row, c.Col + r})
			}
		}
	}

	if bestD < 0 {
		return c, errors.WithMessagef(ErrNoSkeletonReachable, "from %v within %d cells", c, radius)
	}
	return best, nil
}

// reach is the distance from c to the farthest grid corner, rounded up.
func (g *Grid) reach(c Cell) int {
	far := 0.0
	for _, corner := range []Cell{{0, 0}, {0, g.Cols - 1}, {g.Rows - 1, 0}, {g.Rows - 1, g.Cols - 1}} {
		far = math.Max(far, math.Hypot(float64(corner.Row-c.Row), float64(corner.Col-c.Col)))
	}
	return int(math.Ceil(far))
}

func rowMajorLess(a, b Cell) bool {
	return a.Row < b.Row || (a.Row == b.Row && a.Col < b.Col)
}

// FindStartGoal snaps start and goal onto the skeleton.
func FindStartGoal(skel *Grid, start, goal Cell, radius int) (Cell, Cell, error) {
	s, err := skel.Nearest(start, radius)
	if err != nil {
		return start, goal, errors.WithMessage(err, "start")
	}
	g, err := skel.Nearest(goal, radius)
	if err != nil {
		return start, goal, errors.WithMessage(err, "goal")
	}
	return s, g, nil
}

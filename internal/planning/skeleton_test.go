package planning

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

// gridFromRows builds an occupancy grid, '#' is occupied.
func gridFromRows(rows ...string) *Grid {
	g := NewGrid(len(rows), len(rows[0]), 0, 0)
	for r, row := range rows {
		for c, ch := range row {
			if ch == '#' {
				g.Set(Cell{r, c}, true)
			}
		}
	}
	return g
}

// components counts the 8-connected components of set cells.
func components(g *Grid) [][]Cell {
	seen := map[Cell]bool{}
	var result [][]Cell
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			start := Cell{r, c}
			if !g.At(start) || seen[start] {
				continue
			}
			var component []Cell
			stack := []Cell{start}
			seen[start] = true
			for len(stack) > 0 {
				x := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				component = append(component, x)
				for _, d := range ring {
					n := Cell{x.Row + d.Row, x.Col + d.Col}
					if g.At(n) && !seen[n] {
						seen[n] = true
						stack = append(stack, n)
					}
				}
			}
			result = append(result, component)
		}
	}
	return result
}

func assertSubsetOfFree(t *testing.T, grid, skel *Grid) {
	t.Helper()
	for r := 0; r < grid.Rows; r++ {
		for c := 0; c < grid.Cols; c++ {
			if skel.At(Cell{r, c}) && !grid.Free(Cell{r, c}) {
				t.Errorf("skeleton cell (%d, %d) is occupied", r, c)
			}
		}
	}
}

func TestExtractSkeletonCorridor(t *testing.T) {
	grid := gridFromRows(
		"#########",
		"#.......#",
		"#.......#",
		"#.......#",
		"#########",
	)

	skel := ExtractSkeleton(grid)

	assertSubsetOfFree(t, grid, skel)
	for _, c := range []Cell{{2, 3}, {2, 4}, {2, 5}} {
		if !skel.At(c) {
			t.Errorf("centre line cell %v missing from skeleton", c)
		}
	}
	if n := len(components(skel)); n != 1 {
		t.Errorf("skeleton has %d components, want 1", n)
	}
	if skel.Count() >= grid.Rows*grid.Cols-grid.Count() {
		t.Error("skeleton was not thinned")
	}
	if skel.Rows != grid.Rows || skel.Cols != grid.Cols || skel.NorthOffset != grid.NorthOffset {
		t.Error("skeleton must share the grid geometry")
	}
}

func TestExtractSkeletonSeparateRegions(t *testing.T) {
	grid := gridFromRows(
		"###########",
		"#....#....#",
		"#....#....#",
		"#....#....#",
		"###########",
	)

	skel := ExtractSkeleton(grid)

	assertSubsetOfFree(t, grid, skel)
	parts := components(skel)
	if len(parts) != 2 {
		t.Fatalf("skeleton has %d components, want 2", len(parts))
	}
	for _, part := range parts {
		left := part[0].Col < 5
		for _, c := range part {
			if (c.Col < 5) != left {
				t.Errorf("component crosses the wall at %v", c)
			}
		}
	}
}

func TestExtractSkeletonKeepsLoop(t *testing.T) {
	grid := gridFromRows(
		"###########",
		"#.........#",
		"#.........#",
		"#...###...#",
		"#...###...#",
		"#...###...#",
		"#.........#",
		"#.........#",
		"###########",
	)

	skel := ExtractSkeleton(grid)

	assertSubsetOfFree(t, grid, skel)
	if n := len(components(skel)); n != 1 {
		t.Fatalf("skeleton has %d components, want 1", n)
	}

	// the loop around the block must survive: walking from the left side to
	// the right side is possible above and below the block
	above := func(c Cell) bool { return c.Row < 3 && skel.At(c) }
	below := func(c Cell) bool { return c.Row > 5 && skel.At(c) }
	if !hasSkeletonCell(skel, above) || !hasSkeletonCell(skel, below) {
		t.Error("skeleton lost the loop around the block")
	}
}

func hasSkeletonCell(g *Grid, pred func(Cell) bool) bool {
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if pred(Cell{r, c}) {
				return true
			}
		}
	}
	return false
}

func TestExtractSkeletonAllOccupied(t *testing.T) {
	grid := gridFromRows("###", "###")

	if n := ExtractSkeleton(grid).Count(); n != 0 {
		t.Errorf("skeleton of occupied grid has %d cells", n)
	}
}

func TestConnectivity(t *testing.T) {
	tests := []struct {
		name string
		n    [8]bool
		want int
	}{
		{name: "isolated", n: [8]bool{}, want: 0},
		{name: "end point", n: [8]bool{true}, want: 1},
		{name: "line", n: [8]bool{0: true, 4: true}, want: 2},
		{name: "corner", n: [8]bool{0: true, 1: true, 2: true}, want: 1},
		{name: "interior", n: [8]bool{true, true, true, true, true, true, true, true}, want: 0},
	}

	for _, test := range tests {
		if got := connectivity(test.n); got != test.want {
			t.Errorf("%s: connectivity = %d, want %d", test.name, got, test.want)
		}
	}
}

func TestDistanceTransform(t *testing.T) {
	grid := gridFromRows(
		"#......",
		".......",
		".......",
		".......",
		".......",
	)

	dt := distanceTransform(grid)

	if dt[0] != 0 {
		t.Errorf("occupied cell clearance = %v, want 0", dt[0])
	}
	// interior cell: nearest obstacle is the corner at distance sqrt(2*2+2*2),
	// the grid edge is 3 away
	if got := dt[2*grid.Cols+2]; math.Abs(got-math.Sqrt(8)) > 1e-9 {
		t.Errorf("clearance at (2, 2) = %v, want %v", got, math.Sqrt(8))
	}
	if got := dt[2*grid.Cols+5]; got != 2 {
		t.Errorf("clearance at (2, 5) = %v, want 2 (grid edge)", got)
	}
}

func TestNearest(t *testing.T) {
	skel := NewGrid(8, 8, 0, 0)
	skel.Set(Cell{2, 5}, true)
	skel.Set(Cell{5, 2}, true)

	// equal distance, row-major order wins
	got, err := skel.Nearest(Cell{2, 2}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != (Cell{2, 5}) {
		t.Errorf("Nearest = %v, want (2, 5)", got)
	}

	skel.Set(Cell{4, 4}, true)
	got, err = skel.Nearest(Cell{2, 2}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != (Cell{4, 4}) {
		t.Errorf("Nearest = %v, want (4, 4)", got)
	}

	_, err = skel.Nearest(Cell{2, 2}, 2)
	if !errors.Is(err, ErrNoSkeletonReachable) {
		t.Errorf("radius 2: err = %v, want ErrNoSkeletonReachable", err)
	}
}

func TestNearestOutsideGrid(t *testing.T) {
	skel := NewGrid(5, 5, 0, 0)
	skel.Set(Cell{4, 4}, true)

	got, err := skel.Nearest(Cell{-3, 0}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != (Cell{4, 4}) {
		t.Errorf("Nearest = %v, want (4, 4)", got)
	}
}

func TestNearestEmptySkeleton(t *testing.T) {
	_, err := NewGrid(4, 4, 0, 0).Nearest(Cell{1, 1}, 0)
	if !errors.Is(err, ErrNoSkeletonReachable) {
		t.Errorf("err = %v, want ErrNoSkeletonReachable", err)
	}
}

func TestFindStartGoal(t *testing.T) {
	skel := NewGrid(6, 6, 0, 0)
	skel.Set(Cell{1, 1}, true)
	skel.Set(Cell{4, 4}, true)

	start, goal, err := FindStartGoal(skel, Cell{0, 0}, Cell{5, 5}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if start != (Cell{1, 1}) || goal != (Cell{4, 4}) {
		t.Errorf("snapped to %v, %v", start, goal)
	}

	_, _, err = FindStartGoal(NewGrid(6, 6, 0, 0), Cell{0, 0}, Cell{5, 5}, 3)
	if !errors.Is(err, ErrNoSkeletonReachable) {
		t.Errorf("err = %v, want ErrNoSkeletonReachable", err)
	}
}

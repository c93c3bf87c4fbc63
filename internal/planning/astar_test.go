package planning

import (
	"math"
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

func assertValidPath(t *testing.T, passable func(Cell) bool, p Path, start, goal Cell) {
	t.Helper()
	if len(p) == 0 || p[0] != start || p[len(p)-1] != goal {
		t.Fatalf("path %v does not run from %v to %v", p, start, goal)
	}
	for i, c := range p {
		if !passable(c) {
			t.Errorf("path cell %v is not traversable", c)
		}
		if i == 0 {
			continue
		}
		dr, dc := c.Row-p[i-1].Row, c.Col-p[i-1].Col
		if dr < -1 || dr > 1 || dc < -1 || dc > 1 || (dr == 0 && dc == 0) {
			t.Errorf("step %v -> %v is not an 8-connected move", p[i-1], c)
		}
	}
}

func pathCost(p Path) float64 {
	cost := 0.0
	for i := 1; i < len(p); i++ {
		cost += math.Hypot(float64(p[i].Row-p[i-1].Row), float64(p[i].Col-p[i-1].Col))
	}
	return cost
}

func TestAStar(t *testing.T) {
	tests := []struct {
		name  string
		grid  *Grid
		start Cell
		goal  Cell
		cost  float64
	}{
		{
			name:  "corridor",
			grid:  gridFromRows("############", "............", "############"),
			start: Cell{1, 0},
			goal:  Cell{1, 10},
			cost:  10,
		},
		{
			name:  "diagonal shortcut",
			grid:  NewGrid(11, 11, 0, 0),
			start: Cell{0, 0},
			goal:  Cell{5, 10},
			cost:  5 + 5*math.Sqrt2,
		},
		{
			name: "detour",
			grid: gridFromRows(
				"..#..",
				"..#..",
				"..#..",
				"..#..",
				".....",
			),
			start: Cell{0, 0},
			goal:  Cell{0, 4},
			cost:  4 + 4*math.Sqrt2,
		},
		{
			name:  "start is goal",
			grid:  NewGrid(3, 3, 0, 0),
			start: Cell{1, 1},
			goal:  Cell{1, 1},
			cost:  0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path, cost, err := AStar(test.grid.Free, test.start, test.goal)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(cost-test.cost) > 1e-9 {
				t.Errorf("cost = %v, want %v", cost, test.cost)
			}
			if math.Abs(pathCost(path)-cost) > 1e-9 {
				t.Errorf("reported cost %v does not match path length %v", cost, pathCost(path))
			}
			assertValidPath(t, test.grid.Free, path, test.start, test.goal)
		})
	}
}

func TestAStarCorridorIsStraight(t *testing.T) {
	grid := gridFromRows("############", "............", "############")

	path, _, err := AStar(grid.Free, Cell{1, 0}, Cell{1, 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != 11 {
		t.Errorf("path has %d cells, want 11", len(path))
	}
}

func TestAStarNoPath(t *testing.T) {
	grid := gridFromRows(
		"..#..",
		"..#..",
		"..#..",
	)

	tests := []struct {
		name        string
		start, goal Cell
	}{
		{name: "wall", start: Cell{0, 0}, goal: Cell{2, 4}},
		{name: "start occupied", start: Cell{1, 2}, goal: Cell{2, 4}},
		{name: "goal outside", start: Cell{0, 0}, goal: Cell{7, 7}},
	}

	for _, test := range tests {
		path, _, err := AStar(grid.Free, test.start, test.goal)
		if !errors.Is(err, ErrNoPathFound) {
			t.Errorf("%s: err = %v, want ErrNoPathFound", test.name, err)
		}
		if path != nil {
			t.Errorf("%s: path = %v, want nil", test.name, path)
		}
	}
}

func TestAStarDeterministic(t *testing.T) {
	// an open grid has many optimal paths; the same one must come back
	grid := NewGrid(20, 20, 0, 0)
	grid.Set(Cell{10, 10}, true)

	first, _, err := AStar(grid.Free, Cell{0, 3}, Cell{19, 15})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _, err := AStar(grid.Free, Cell{0, 3}, Cell{19, 15})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d returned %v, want %v", i, again, first)
		}
	}
}

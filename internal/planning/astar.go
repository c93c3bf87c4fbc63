package planning

import (
	"container/heap"
	"math"

	"github.com/pkg/errors"
)

// Path is a sequence of 8-connected cells from start to goal.
type Path []Cell

type action struct {
	delta Cell
	cost  float64
}

var actions = []action{
	{Cell{-1, 0}, 1},
	{Cell{1, 0}, 1},
	{Cell{0, -1}, 1},
	{Cell{0, 1}, 1},
	{Cell{-1, -1}, math.Sqrt2},
	{Cell{-1, 1}, math.Sqrt2},
	{Cell{1, -1}, math.Sqrt2},
	{Cell{1, 1}, math.Sqrt2},
}

type node struct {
	cell     Cell
	cost     float64
	priority float64
	seq      int
}

// frontier is a min-heap on priority; equal priorities pop in insertion
// order so that results do not depend on heap internals.
type frontier []*node

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].priority != f[j].priority {
		return f[i].priority < f[j].priority
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x interface{}) { *f = append(*f, x.(*node)) }

func (f *frontier) Pop() interface{} {
	old := *f
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*f = old[:len(old)-1]
	return n
}

func heuristic(a, b Cell) float64 {
	return math.Hypot(float64(a.Row-b.Row), float64(a.Col-b.Col))
}

// AStar searches the cells accepted by passable for the cheapest 8-connected
// path from start to goal. passable must return false for cells outside the
// searchable area.
func AStar(passable func(Cell) bool, start, goal Cell) (Path, float64, error) {
	if !passable(start) {
		return nil, 0, errors.WithMessagef(ErrNoPathFound, "start %v is not traversable", start)
	}
	if !passable(goal) {
		return nil, 0, errors.WithMessagef(ErrNoPathFound, "goal %v is not traversable", goal)
	}

	best := map[Cell]float64{start: 0}
	parent := map[Cell]Cell{}
	closed := map[Cell]bool{}

	seq := 0
	open := &frontier{{cell: start, cost: 0, priority: heuristic(start, goal), seq: seq}}

	for open.Len() > 0 {
		current := heap.Pop(open).(*node)
		if closed[current.cell] {
			continue
		}
		closed[current.cell] = true

		if current.cell == goal {
			return tracePath(parent, start, goal), current.cost, nil
		}

		for _, a := range actions {
			next := Cell{current.cell.Row + a.delta.Row, current.cell.Col + a.delta.Col}
			if closed[next] || !passable(next) {
				continue
			}
			cost := current.cost + a.cost
			if known, ok := best[next]; ok && cost >= known {
				continue
			}
			best[next] = cost
			parent[next] = current.cell
			seq++
			heap.Push(open, &node{cell: next, cost: cost, priority: cost + heuristic(next, goal), seq: seq})
		}
	}

	return nil, 0, errors.WithMessagef(ErrNoPathFound, "from %v to %v", start, goal)
}

func tracePath(parent map[Cell]Cell, start, goal Cell) Path {
	path := Path{goal}
	for c := goal; c != start; {
		c = parent[c]
		path = append(path, c)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

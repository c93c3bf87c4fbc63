package planning

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/tiiuae/motion_planning/internal/geo"
	"github.com/tiiuae/motion_planning/internal/types"
)

// GoalSelector chooses the mission goal on an occupancy grid.
type GoalSelector interface {
	SelectGoal(g *Grid) (Cell, error)
}

// RandomGoal picks a uniformly random free cell.
type RandomGoal struct {
	Rand *rand.Rand
}

func (r RandomGoal) SelectGoal(g *Grid) (Cell, error) {
	free := g.Rows*g.Cols - g.Count()
	if free == 0 {
		return Cell{}, errors.WithMessage(ErrNoPathFound, "grid has no free cell for a goal")
	}

	// pick the n-th free cell so the draw always terminates
	n := r.Rand.Intn(free)
	for i, occupied := range g.cells {
		if occupied {
			continue
		}
		if n == 0 {
			return Cell{i / g.Cols, i % g.Cols}, nil
		}
		n--
	}
	panic("unreachable")
}

// LocalGoal is a fixed goal in local (north, east) coordinates.
type LocalGoal struct {
	North float64
	East  float64
}

func (l LocalGoal) SelectGoal(g *Grid) (Cell, error) {
	c := g.CellAt(l.North, l.East)
	if !g.InBounds(c) {
		return c, errors.WithMessagef(ErrNoPathFound, "goal (%.1f, %.1f) is outside the map", l.North, l.East)
	}
	return c, nil
}

// GlobalGoal is a fixed geodetic goal, converted with the map home.
type GlobalGoal struct {
	Position types.GlobalPosition
	Home     types.GlobalPosition
}

func (gg GlobalGoal) SelectGoal(g *Grid) (Cell, error) {
	local := geo.GlobalToLocal(gg.Position, gg.Home)
	return LocalGoal{local.North, local.East}.SelectGoal(g)
}

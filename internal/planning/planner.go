package planning

import (
	"log"

	"github.com/pkg/errors"
	"github.com/tiiuae/motion_planning/internal/types"
)

// Planner turns an obstacle map and the vehicle position into waypoints.
// Plan is a pure function of its inputs and the goal selector.
type Planner struct {
	Altitude       float64
	SafetyDistance float64
	Goal           GoalSelector
	// Search the skeleton of the free space instead of the raw grid.
	UseSkeleton bool
	// Snap radius in cells for start and goal, <= 0 searches the whole grid.
	SnapRadius int
}

type Plan struct {
	Waypoints []types.Waypoint
	Cost      float64
}

// Plan runs grid construction, skeleton extraction, A*, pruning and heading
// assignment. position is the vehicle location in the map's local frame.
func (p *Planner) Plan(obstacles []Obstacle, position types.LocalPosition) (*Plan, error) {
	grid := CreateGrid(obstacles, p.Altitude, p.SafetyDistance)
	log.Printf("Grid %dx%d, north offset = %d, east offset = %d", grid.Rows, grid.Cols, grid.NorthOffset, grid.EastOffset)

	start := grid.CellAt(position.North, position.East)
	goal, err := p.Goal.SelectGoal(grid)
	if err != nil {
		return nil, errors.WithMessage(err, "goal selection")
	}
	log.Printf("Vehicle is starting from %v and the goal is %v", start, goal)

	passable := grid.Free
	from, to := start, goal
	if p.UseSkeleton {
		skeleton := ExtractSkeleton(grid)
		from, to, err = FindStartGoal(skeleton, start, goal, p.SnapRadius)
		if err != nil {
			return nil, err
		}
		passable = skeleton.At
		log.Printf("Skeleton start %v, skeleton goal %v", from, to)
	}

	path, cost, err := AStar(passable, from, to)
	if err != nil {
		return nil, err
	}
	pruned := Simplify(path)
	log.Printf("Path length = %d, pruned = %d, path cost = %.2f", len(path), len(pruned), cost)

	return &Plan{Waypoints: toWaypoints(grid, pruned, start, p.Altitude), Cost: cost}, nil
}

// toWaypoints converts the pruned path to world coordinates. The first point
// is dropped when the vehicle already stands on it.
func toWaypoints(grid *Grid, path Path, current Cell, altitude float64) []types.Waypoint {
	headings := Headings(path)
	waypoints := make([]types.Waypoint, 0, len(path))
	for i, c := range path {
		if i == 0 && c == current && len(path) > 1 {
			continue
		}
		north, east := grid.World(c)
		waypoints = append(waypoints, types.Waypoint{North: north, East: east, Altitude: altitude, Heading: headings[i]})
	}
	return waypoints
}

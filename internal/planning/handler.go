package planning

import (
	"context"
	"log"
	"math/rand"
	"sync"

	"github.com/tiiuae/motion_planning/internal/config"
	"github.com/tiiuae/motion_planning/internal/geo"
	"github.com/tiiuae/motion_planning/internal/types"
)

// pathPlanner runs the planning pipeline off the flight state goroutine. A
// PlanRequest is answered with exactly one PlanCompleted or PlanFailed.
type pathPlanner struct {
	me      string
	inbox   chan types.Message
	mission config.Mission
	goal    config.Goal
	rand    *rand.Rand
	loadMap func() (*Map, error)
}

func New(deviceID string, mission config.Mission, goal config.Goal) types.MessageHandler {
	return &pathPlanner{
		me:      deviceID,
		inbox:   make(chan types.Message, 10),
		mission: mission,
		goal:    goal,
		rand:    rand.New(rand.NewSource(goal.Seed)),
		loadMap: func() (*Map, error) { return LoadColliders(mission.Colliders) },
	}
}

func (pp *pathPlanner) Run(ctx context.Context, wg *sync.WaitGroup, post types.PostFn) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			log.Println("PathPlanner shutting down")
			return
		case msg := <-pp.inbox:
			for _, x := range pp.handleMessage(msg) {
				post(x)
			}
		}
	}
}

func (pp *pathPlanner) Receive(message types.Message) {
	if _, ok := message.Message.(types.PlanRequest); ok {
		pp.inbox <- message
	}
}

func (pp *pathPlanner) handleMessage(msg types.Message) []types.Message {
	switch m := msg.Message.(type) {
	case types.PlanRequest:
		return []types.Message{pp.plan(m)}
	}

	return []types.Message{}
}

func (pp *pathPlanner) plan(req types.PlanRequest) types.Message {
	log.Printf("Searching for a path ...")
	m, err := pp.loadMap()
	if err != nil {
		return pp.planFailed(err)
	}

	position := geo.GlobalToLocal(req.Position, m.Home)
	log.Printf("Global home %+v, position %+v, local position %+v", m.Home, req.Position, position)

	planner := Planner{
		Altitude:       pp.mission.TargetAltitude,
		SafetyDistance: pp.mission.SafetyDistance,
		Goal:           pp.goalSelector(m.Home),
		UseSkeleton:    pp.mission.UseSkeleton,
		SnapRadius:     pp.mission.SnapRadius,
	}
	plan, err := planner.Plan(m.Obstacles, position)
	if err != nil {
		return pp.planFailed(err)
	}

	return types.CreateMessage("plan-completed", pp.me, pp.me, types.PlanCompleted{
		Home:      m.Home,
		Waypoints: plan.Waypoints,
		Cost:      plan.Cost,
	})
}

func (pp *pathPlanner) planFailed(err error) types.Message {
	log.Printf("Planning failed: %v", err)
	return types.CreateMessage("plan-failed", pp.me, pp.me, types.PlanFailed{Reason: err.Error()})
}

func (pp *pathPlanner) goalSelector(home types.GlobalPosition) GoalSelector {
	switch pp.goal.Strategy {
	case config.GoalLocal:
		return LocalGoal{North: pp.goal.North, East: pp.goal.East}
	case config.GoalGlobal:
		return GlobalGoal{
			Position: types.GlobalPosition{Lat: pp.goal.Lat, Lon: pp.goal.Lon},
			Home:     home,
		}
	default:
		return RandomGoal{Rand: pp.rand}
	}
}

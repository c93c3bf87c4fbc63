package planning

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/tiiuae/motion_planning/internal/config"
	"github.com/tiiuae/motion_planning/internal/types"
)

func testPlanner(goal config.Goal, m *Map, err error) *pathPlanner {
	pp := New("drone", config.Mission{TargetAltitude: 5}, goal).(*pathPlanner)
	pp.loadMap = func() (*Map, error) { return m, err }
	return pp
}

func TestHandlePlanRequest(t *testing.T) {
	home := types.GlobalPosition{Lat: 47.3977, Lon: 8.5456}
	m := &Map{Home: home, Obstacles: groundMarkers(10, 10)}
	pp := testPlanner(config.Goal{Strategy: config.GoalLocal, East: 10}, m, nil)

	msgs := pp.handleMessage(types.CreateMessage("plan-request", "drone", "drone", types.PlanRequest{Position: home}))

	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	completed, ok := msgs[0].Message.(types.PlanCompleted)
	if !ok {
		t.Fatalf("got %T, want PlanCompleted", msgs[0].Message)
	}
	if completed.Home != home {
		t.Errorf("home = %+v", completed.Home)
	}
	if len(completed.Waypoints) != 1 {
		t.Fatalf("waypoints = %+v", completed.Waypoints)
	}
	w := completed.Waypoints[0]
	if w.North != 0 || w.East != 10 || w.Altitude != 5 || math.Abs(w.Heading-math.Pi/2) > 1e-9 {
		t.Errorf("waypoint = %+v", w)
	}
}

func TestHandlePlanRequestMapError(t *testing.T) {
	pp := testPlanner(config.Goal{Strategy: config.GoalRandom}, nil, errors.WithMessage(ErrMapParse, "line 3"))

	msgs := pp.handleMessage(types.CreateLocalMessage("plan-request", types.PlanRequest{}))

	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	failed, ok := msgs[0].Message.(types.PlanFailed)
	if !ok {
		t.Fatalf("got %T, want PlanFailed", msgs[0].Message)
	}
	if failed.Reason == "" {
		t.Error("empty failure reason")
	}
}

func TestHandlePlanRequestNoPath(t *testing.T) {
	m := &Map{Obstacles: groundMarkers(10, 10)}
	pp := testPlanner(config.Goal{Strategy: config.GoalLocal, North: 50}, m, nil)

	msgs := pp.handleMessage(types.CreateLocalMessage("plan-request", types.PlanRequest{}))

	if _, ok := msgs[0].Message.(types.PlanFailed); !ok {
		t.Fatalf("got %T, want PlanFailed", msgs[0].Message)
	}
}

func TestHandleIgnoresOtherMessages(t *testing.T) {
	pp := testPlanner(config.Goal{}, nil, nil)

	pp.Receive(types.CreateLocalMessage("start-mission", types.StartMission{}))
	if len(pp.inbox) != 0 {
		t.Error("non plan request was queued")
	}
	if msgs := pp.handleMessage(types.CreateLocalMessage("arm", types.Arm{})); len(msgs) != 0 {
		t.Errorf("got %d messages, want none", len(msgs))
	}
}

func TestGoalSelectorStrategies(t *testing.T) {
	home := types.GlobalPosition{Lat: 1, Lon: 2}
	tests := []struct {
		strategy string
		want     GoalSelector
	}{
		{strategy: config.GoalLocal, want: LocalGoal{North: 3, East: 4}},
		{strategy: config.GoalGlobal, want: GlobalGoal{Position: types.GlobalPosition{Lat: 5, Lon: 6}, Home: home}},
	}

	for _, test := range tests {
		pp := testPlanner(config.Goal{Strategy: test.strategy, North: 3, East: 4, Lat: 5, Lon: 6}, nil, nil)
		if got := pp.goalSelector(home); got != test.want {
			t.Errorf("%s: selector = %#v, want %#v", test.strategy, got, test.want)
		}
	}

	pp := testPlanner(config.Goal{Strategy: config.GoalRandom}, nil, nil)
	if _, ok := pp.goalSelector(home).(RandomGoal); !ok {
		t.Error("random strategy did not select RandomGoal")
	}
}

package flight

import (
	"log"
	"math"

	"github.com/tiiuae/motion_planning/internal/config"
	"github.com/tiiuae/motion_planning/internal/types"
)

type MissionState int

const (
	Manual MissionState = iota
	Arming
	Planning
	Takeoff
	Waypoint
	Landing
	Disarming
)

var stateNames = [...]string{"MANUAL", "ARMING", "PLANNING", "TAKEOFF", "WAYPOINT", "LANDING", "DISARMING"}

func (ms MissionState) String() string {
	if ms < 0 || int(ms) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[ms]
}

// state is owned by the flight handler goroutine. Every handleX method
// returns the commands and events the transition produced; nothing is sent
// from here.
//
// While PLANNING only the plan result moves the state machine. Telemetry is
// still recorded, and an abort is remembered until the result arrives.
type state struct {
	me             string
	thresholds     config.Flight
	targetAltitude float64

	missionState MissionState
	inMission    bool
	aborted      bool
	abortReason  string

	waypoints []types.Waypoint
	target    types.Waypoint

	localPosition  types.LocalPosition
	localVelocity  types.LocalVelocity
	globalPosition types.GlobalPosition
	homePosition   types.GlobalPosition
	vehicleState   types.VehicleState
}

func newState(me string, targetAltitude float64, thresholds config.Flight) *state {
	return &state{
		me:             me,
		thresholds:     thresholds,
		targetAltitude: targetAltitude,
		missionState:   Manual,
		inMission:      true,
		waypoints:      make([]types.Waypoint, 0),
	}
}

func (s *state) handleLocalPosition(msg types.LocalPosition) []types.Message {
	s.localPosition = msg

	switch s.missionState {
	case Takeoff:
		if -msg.Down > s.thresholds.TakeoffRatio*s.targetAltitude {
			return s.waypointTransition()
		}
	case Waypoint:
		if math.Hypot(s.target.North-msg.North, s.target.East-msg.East) < s.thresholds.WaypointRadius {
			if len(s.waypoints) > 0 {
				return s.waypointTransition()
			}
			if math.Hypot(s.localVelocity.North, s.localVelocity.East) < s.thresholds.LandingSpeed {
				return s.landingTransition()
			}
		}
	}

	return []types.Message{}
}

func (s *state) handleLocalVelocity(msg types.LocalVelocity) []types.Message {
	s.localVelocity = msg

	if s.missionState == Landing {
		// both guards: barometric altitude over home and local down
		if s.globalPosition.Alt-s.homePosition.Alt < s.thresholds.HomeAltitudeTolerance {
			if math.Abs(s.localPosition.Down) < s.thresholds.LocalAltitudeTolerance {
				return s.disarmingTransition()
			}
		}
	}

	return []types.Message{}
}

func (s *state) handleGlobalPosition(msg types.GlobalPosition) []types.Message {
	s.globalPosition = msg
	return []types.Message{}
}

func (s *state) handleHomePosition(msg types.HomePosition) []types.Message {
	s.homePosition = msg.GlobalPosition
	return []types.Message{}
}

func (s *state) handleVehicleState(msg types.VehicleState) []types.Message {
	s.vehicleState = msg
	if !s.inMission {
		return []types.Message{}
	}

	switch s.missionState {
	case Manual:
		return s.armingTransition()
	case Arming:
		if msg.Armed {
			return s.planningTransition()
		}
	case Disarming:
		if !msg.Armed && !msg.Guided {
			return s.manualTransition()
		}
	}

	return []types.Message{}
}

func (s *state) handlePlanCompleted(msg types.PlanCompleted) []types.Message {
	if s.missionState != Planning {
		log.Printf("Flight: plan result ignored in %v", s.missionState)
		return []types.Message{}
	}
	if s.aborted {
		return s.abortOnGround()
	}

	log.Printf("Flight: plan has %d waypoints, cost %.2f", len(msg.Waypoints), msg.Cost)
	s.waypoints = append(s.waypoints[:0], msg.Waypoints...)
	return s.takeoffTransition(msg.Home, msg.Waypoints)
}

func (s *state) handlePlanFailed(msg types.PlanFailed) []types.Message {
	if s.missionState != Planning {
		log.Printf("Flight: plan result ignored in %v", s.missionState)
		return []types.Message{}
	}

	log.Printf("Flight: planning failed: %s", msg.Reason)
	if !s.aborted {
		s.aborted = true
		s.abortReason = msg.Reason
	}
	return s.abortOnGround()
}

func (s *state) handleStartMission(msg types.StartMission) []types.Message {
	if s.missionState != Manual {
		log.Printf("Flight: mission already running (%v)", s.missionState)
		return []types.Message{}
	}

	s.inMission = true
	return s.armingTransition()
}

func (s *state) handleAbortMission(msg types.AbortMission) []types.Message {
	log.Printf("Flight: abort requested in %v: %s", s.missionState, msg.Reason)
	if s.missionState != Manual && !s.aborted {
		s.aborted = true
		s.abortReason = msg.Reason
	}

	switch s.missionState {
	case Manual:
		s.inMission = false
		return []types.Message{s.missionEnded(true, msg.Reason)}
	case Arming:
		return s.disarmingTransition()
	case Takeoff, Waypoint:
		s.waypoints = s.waypoints[:0]
		return s.landingTransition()
	}

	// PLANNING waits for the plan result, LANDING and DISARMING finish
	return []types.Message{}
}

// Transitions

func (s *state) armingTransition() []types.Message {
	s.aborted = false
	s.abortReason = ""
	return append(s.setState(Arming),
		s.createMessage("arm", types.Arm{}),
		s.createMessage("take-control", types.TakeControl{}),
	)
}

func (s *state) planningTransition() []types.Message {
	return append(s.setState(Planning),
		s.createMessage("plan-request", types.PlanRequest{Position: s.globalPosition}),
	)
}

func (s *state) takeoffTransition(home types.GlobalPosition, waypoints []types.Waypoint) []types.Message {
	return append(s.setState(Takeoff),
		s.createMessage("set-home-position", types.SetHomePosition{Lon: home.Lon, Lat: home.Lat, Alt: 0}),
		s.createMessage("send-waypoints", types.SendWaypoints{Waypoints: waypoints}),
		s.createMessage("take-off", types.TakeOff{Altitude: s.targetAltitude}),
	)
}

func (s *state) waypointTransition() []types.Message {
	if len(s.waypoints) == 0 {
		return s.landingTransition()
	}

	s.target = s.waypoints[0]
	s.waypoints = s.waypoints[1:]
	log.Printf("Flight: target position %+v", s.target)

	return append(s.setState(Waypoint),
		s.createMessage("command-position", types.CommandPosition{Target: s.target}),
	)
}

func (s *state) landingTransition() []types.Message {
	return append(s.setState(Landing), s.createMessage("land", types.Land{}))
}

func (s *state) disarmingTransition() []types.Message {
	return append(s.setState(Disarming),
		s.createMessage("disarm", types.Disarm{}),
		s.createMessage("release-control", types.ReleaseControl{}),
	)
}

func (s *state) manualTransition() []types.Message {
	s.inMission = false
	return append(s.setState(Manual), s.missionEnded(s.aborted, s.abortReason))
}

// abortOnGround ends a mission that never left the ground; the vehicle is
// armed and under our control.
func (s *state) abortOnGround() []types.Message {
	s.inMission = false
	return append(s.setState(Manual),
		s.createMessage("disarm", types.Disarm{}),
		s.createMessage("release-control", types.ReleaseControl{}),
		s.missionEnded(true, s.abortReason),
	)
}

func (s *state) setState(next MissionState) []types.Message {
	prev := s.missionState
	s.missionState = next
	log.Printf("Flight: %v -> %v", prev, next)
	return []types.Message{
		s.createMessage("mission-state-changed", types.MissionStateChanged{From: prev.String(), To: next.String()}),
	}
}

func (s *state) missionEnded(aborted bool, reason string) types.Message {
	return s.createMessage("mission-ended", types.MissionEnded{Aborted: aborted, Reason: reason})
}

func (s *state) createMessage(messageType string, msg interface{}) types.Message {
	return types.CreateMessage(messageType, s.me, s.me, msg)
}

package flight

import (
	"context"
	"log"
	"sync"

	"github.com/pkg/errors"
	"github.com/tiiuae/motion_planning/internal/config"
	"github.com/tiiuae/motion_planning/internal/types"
	"github.com/vmihailenco/msgpack/v5"
)

// Vehicle is the flight controller the state machine drives.
type Vehicle interface {
	Arm() error
	Disarm() error
	TakeControl() error
	ReleaseControl() error
	Takeoff(altitude float64) error
	Land() error
	CommandPosition(north, east, altitude, heading float64) error
	SetHomePosition(lon, lat, alt float64) error
	SendWaypoints(data []byte) error
}

type flight struct {
	me      string
	inbox   chan types.Message
	vehicle Vehicle
	state   *state
}

func New(deviceID string, vehicle Vehicle, mission config.Mission, thresholds config.Flight) types.MessageHandler {
	return &flight{
		me:      deviceID,
		inbox:   make(chan types.Message, 100),
		vehicle: vehicle,
		state:   newState(deviceID, mission.TargetAltitude, thresholds),
	}
}

func (f *flight) Run(ctx context.Context, wg *sync.WaitGroup, post types.PostFn) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			log.Println("Flight shutting down")
			return
		case msg := <-f.inbox:
			publishMessages(f.vehicle, post, f.handleMessage(msg))
		}
	}
}

func (f *flight) Receive(message types.Message) {
	switch message.Message.(type) {
	case types.LocalPosition, types.LocalVelocity, types.GlobalPosition, types.HomePosition, types.VehicleState,
		types.PlanCompleted, types.PlanFailed, types.StartMission, types.AbortMission:
		f.inbox <- message
	}
}

func (f *flight) handleMessage(msg types.Message) []types.Message {
	switch m := msg.Message.(type) {
	case types.LocalPosition:
		return f.state.handleLocalPosition(m)
	case types.LocalVelocity:
		return f.state.handleLocalVelocity(m)
	case types.GlobalPosition:
		return f.state.handleGlobalPosition(m)
	case types.HomePosition:
		return f.state.handleHomePosition(m)
	case types.VehicleState:
		return f.state.handleVehicleState(m)
	case types.PlanCompleted:
		return f.state.handlePlanCompleted(m)
	case types.PlanFailed:
		return f.state.handlePlanFailed(m)
	case types.StartMission:
		return f.state.handleStartMission(m)
	case types.AbortMission:
		return f.state.handleAbortMission(m)
	}

	return []types.Message{}
}

// publishMessages sends vehicle commands to the flight controller and posts
// every message on the bus. A failed command is logged; the state machine
// keeps waiting for telemetry.
func publishMessages(vehicle Vehicle, post types.PostFn, messages []types.Message) {
	for _, msg := range messages {
		var err error
		switch m := msg.Message.(type) {
		case types.Arm:
			err = vehicle.Arm()
		case types.Disarm:
			err = vehicle.Disarm()
		case types.TakeControl:
			err = vehicle.TakeControl()
		case types.ReleaseControl:
			err = vehicle.ReleaseControl()
		case types.TakeOff:
			err = vehicle.Takeoff(m.Altitude)
		case types.Land:
			err = vehicle.Land()
		case types.CommandPosition:
			err = vehicle.CommandPosition(m.Target.North, m.Target.East, m.Target.Altitude, m.Target.Heading)
		case types.SetHomePosition:
			err = vehicle.SetHomePosition(m.Lon, m.Lat, m.Alt)
		case types.SendWaypoints:
			var data []byte
			data, err = EncodeWaypoints(m.Waypoints)
			if err == nil {
				err = vehicle.SendWaypoints(data)
			}
		}
		if err != nil {
			log.Printf("Flight: %s failed: %v", msg.MessageType, err)
		}
		post(msg)
	}
}

// EncodeWaypoints serializes waypoints as a msgpack array of
// [north, east, altitude, heading] arrays.
func EncodeWaypoints(waypoints []types.Waypoint) ([]byte, error) {
	b, err := msgpack.Marshal(waypoints)
	if err != nil {
		return nil, errors.WithMessage(err, "Could not encode waypoints")
	}
	return b, nil
}

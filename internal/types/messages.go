package types

// Telemetry

// LocalPosition is the vehicle position in the local NED frame (metres).
type LocalPosition struct {
	North float64 `json:"north"`
	East  float64 `json:"east"`
	Down  float64 `json:"down"`
}

// LocalVelocity is the vehicle velocity in the local NED frame (m/s).
type LocalVelocity struct {
	North float64 `json:"north"`
	East  float64 `json:"east"`
	Down  float64 `json:"down"`
}

type GlobalPosition struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt"`
}

type HomePosition struct {
	GlobalPosition
}

type VehicleState struct {
	Armed  bool `json:"armed"`
	Guided bool `json:"guided"`
}

// Planning

// Waypoint is a world-frame target pose. It is encoded as a 4 element
// array [north, east, altitude, heading] in msgpack.
type Waypoint struct {
	_msgpack struct{} `msgpack:",as_array"`

	North    float64 `json:"north"`
	East     float64 `json:"east"`
	Altitude float64 `json:"alt"`
	Heading  float64 `json:"heading"`
}

type PlanRequest struct {
	Position GlobalPosition `json:"position"`
}

type PlanCompleted struct {
	Home      GlobalPosition `json:"home"`
	Waypoints []Waypoint     `json:"waypoints"`
	Cost      float64        `json:"cost"`
}

type PlanFailed struct {
	Reason string `json:"reason"`
}

// Vehicle commands

type Arm struct{}

type Disarm struct{}

type TakeControl struct{}

type ReleaseControl struct{}

type TakeOff struct {
	Altitude float64 `json:"alt"`
}

type Land struct{}

type CommandPosition struct {
	Target Waypoint `json:"target"`
}

type SetHomePosition struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
	Alt float64 `json:"alt"`
}

type SendWaypoints struct {
	Waypoints []Waypoint `json:"waypoints"`
}

// Mission lifecycle

type StartMission struct{}

type AbortMission struct {
	Reason string `json:"reason"`
}

type MissionStateChanged struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type MissionEnded struct {
	Aborted bool   `json:"aborted"`
	Reason  string `json:"reason"`
}

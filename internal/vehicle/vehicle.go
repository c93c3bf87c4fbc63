package vehicle

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/tiiuae/motion_planning/internal/types"
)

const (
	qos    = 1
	retain = false
)

// Client is the part of mqtt.Client the adapter uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
}

type controlCommand struct {
	Command   string
	Payload   string
	Timestamp time.Time
}

// Vehicle talks to the flight controller bridge over MQTT. Commands go out
// on /devices/<id>/commands/control, waypoint blobs on
// /devices/<id>/commands/waypoints and telemetry comes in on
// /devices/<id>/telemetry/<kind>, where it is posted on the bus.
type Vehicle struct {
	client   Client
	deviceID string
	timeout  time.Duration
}

func New(client Client, deviceID string, timeout time.Duration) *Vehicle {
	return &Vehicle{client, deviceID, timeout}
}

func (v *Vehicle) Run(ctx context.Context, wg *sync.WaitGroup, post types.PostFn) {
	wg.Add(1)
	defer wg.Done()

	prefix := fmt.Sprintf("/devices/%s/telemetry/", v.deviceID)
	log.Printf("Subscribing to MQTT telemetry")
	token := v.client.Subscribe(prefix+"#", qos, func(client mqtt.Client, msg mqtt.Message) {
		v.handleTelemetry(prefix, msg, post)
	})
	if !token.WaitTimeout(v.timeout) {
		log.Printf("Telemetry subscription timed out: %v", ErrTelemetryTimeout)
	} else if err := token.Error(); err != nil {
		log.Printf("Error on subscribe: %v", err)
	}

	<-ctx.Done()
	v.client.Unsubscribe(prefix + "#")
	log.Println("Vehicle shutting down")
}

func (v *Vehicle) Receive(message types.Message) {
}

func (v *Vehicle) handleTelemetry(prefix string, msg mqtt.Message, post types.PostFn) {
	kind := strings.TrimPrefix(msg.Topic(), prefix)
	m, err := decodeTelemetry(kind, msg.Payload())
	if err != nil {
		log.Printf("Telemetry %s: %v", kind, err)
		return
	}
	post(types.CreateMessage(kind, v.deviceID, v.deviceID, m))
}

func decodeTelemetry(kind string, payload []byte) (interface{}, error) {
	var err error
	switch kind {
	case "local-position":
		var m types.LocalPosition
		err = json.Unmarshal(payload, &m)
		return m, errors.WithMessage(err, "Could not unmarshal payload")
	case "local-velocity":
		var m types.LocalVelocity
		err = json.Unmarshal(payload, &m)
		return m, errors.WithMessage(err, "Could not unmarshal payload")
	case "global-position":
		var m types.GlobalPosition
		err = json.Unmarshal(payload, &m)
		return m, errors.WithMessage(err, "Could not unmarshal payload")
	case "home-position":
		var m types.HomePosition
		err = json.Unmarshal(payload, &m)
		return m, errors.WithMessage(err, "Could not unmarshal payload")
	case "vehicle-state":
		var m types.VehicleState
		err = json.Unmarshal(payload, &m)
		return m, errors.WithMessage(err, "Could not unmarshal payload")
	}

	return nil, errors.Errorf("unknown telemetry kind %q", kind)
}

func (v *Vehicle) Arm() error            { return v.control("arm", nil) }
func (v *Vehicle) Disarm() error         { return v.control("disarm", nil) }
func (v *Vehicle) TakeControl() error    { return v.control("take-control", nil) }
func (v *Vehicle) ReleaseControl() error { return v.control("release-control", nil) }
func (v *Vehicle) Land() error           { return v.control("land", nil) }

func (v *Vehicle) Takeoff(altitude float64) error {
	return v.control("takeoff", types.TakeOff{Altitude: altitude})
}

func (v *Vehicle) CommandPosition(north, east, altitude, heading float64) error {
	return v.control("command-position", types.Waypoint{North: north, East: east, Altitude: altitude, Heading: heading})
}

func (v *Vehicle) SetHomePosition(lon, lat, alt float64) error {
	return v.control("set-home-position", types.SetHomePosition{Lon: lon, Lat: lat, Alt: alt})
}

func (v *Vehicle) SendWaypoints(data []byte) error {
	return v.publish(fmt.Sprintf("/devices/%s/commands/waypoints", v.deviceID), data)
}

func (v *Vehicle) control(command string, payload interface{}) error {
	cmd := controlCommand{Command: command, Timestamp: time.Now().UTC()}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return errors.WithMessagef(err, "Could not marshal %s payload", command)
		}
		cmd.Payload = string(b)
	}

	b, err := json.Marshal(cmd)
	if err != nil {
		return errors.WithMessagef(err, "Could not marshal %s", command)
	}
	return errors.WithMessage(v.publish(fmt.Sprintf("/devices/%s/commands/control", v.deviceID), b), command)
}

func (v *Vehicle) publish(topic string, payload []byte) error {
	tok := v.client.Publish(topic, qos, retain, payload)
	if !tok.WaitTimeout(v.timeout) {
		return errors.Errorf("Could not publish to %s within %v", topic, v.timeout)
	}
	return tok.Error()
}

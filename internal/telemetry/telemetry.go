package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	uuid "github.com/google/uuid"
	"github.com/tiiuae/motion_planning/internal/types"
)

const (
	qos    = 1
	retain = false
)

// Publisher is the part of mqtt.Client the handler uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type missionTelemetry struct {
	Timestamp int64
	MessageID string

	StateUpdated bool
	State        string

	LocationUpdated bool
	Lat             float64
	Lon             float64
	Alt             float64
	North           float64
	East            float64
	Down            float64

	PlanUpdated        bool
	PlanCost           float64
	WaypointsTotal     int
	WaypointsRemaining int
	Target             types.Waypoint
}

type missionEvent struct {
	Timestamp   time.Time   `json:"timestamp"`
	MessageID   string      `json:"message_id"`
	MessageType string      `json:"message_type"`
	Message     interface{} `json:"message"`
}

// telemetry publishes a mission summary to /devices/<id>/events/telemetry
// ten times a second when something changed, and state changes and mission
// results to /devices/<id>/events/mission as they happen.
type telemetry struct {
	client   Publisher
	deviceID string
	events   chan types.Message

	mu      sync.Mutex
	sent    bool
	current missionTelemetry
}

func New(client Publisher, deviceID string) types.MessageHandler {
	return &telemetry{
		client:   client,
		deviceID: deviceID,
		events:   make(chan types.Message, 10),
		sent:     true,
		current:  missionTelemetry{State: "MANUAL"},
	}
}

func (t *telemetry) Run(ctx context.Context, wg *sync.WaitGroup, post types.PostFn) {
	wg.Add(1)
	defer wg.Done()

	telemetryTopic := fmt.Sprintf("/devices/%s/events/telemetry", t.deviceID)
	eventTopic := fmt.Sprintf("/devices/%s/events/mission", t.deviceID)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-t.events:
			b, err := json.Marshal(missionEvent{msg.Timestamp, msg.ID, msg.MessageType, msg.Message})
			if err != nil {
				log.Printf("Could not marshal %s: %v", msg.MessageType, err)
				continue
			}
			t.client.Publish(eventTopic, qos, retain, b)
		case <-time.After(100 * time.Millisecond):
			b, ok := t.snapshot()
			if !ok {
				// there's no new data to send
				break
			}
			t.client.Publish(telemetryTopic, qos, retain, b)
		}
	}
}

func (t *telemetry) Receive(message types.Message) {
	switch m := message.Message.(type) {
	case types.MissionStateChanged:
		t.update(func(c *missionTelemetry) {
			c.State = m.To
			c.StateUpdated = true
		})
		t.queueEvent(message)
	case types.MissionEnded:
		t.queueEvent(message)
	case types.GlobalPosition:
		t.update(func(c *missionTelemetry) {
			c.Lat, c.Lon, c.Alt = m.Lat, m.Lon, m.Alt
			c.LocationUpdated = true
		})
	case types.LocalPosition:
		t.update(func(c *missionTelemetry) {
			c.North, c.East, c.Down = m.North, m.East, m.Down
			c.LocationUpdated = true
		})
	case types.PlanCompleted:
		t.update(func(c *missionTelemetry) {
			c.PlanCost = m.Cost
			c.WaypointsTotal = len(m.Waypoints)
			c.WaypointsRemaining = len(m.Waypoints)
			c.PlanUpdated = true
		})
		t.queueEvent(message)
	case types.PlanFailed:
		t.queueEvent(message)
	case types.CommandPosition:
		t.update(func(c *missionTelemetry) {
			c.Target = m.Target
			if c.WaypointsRemaining > 0 {
				c.WaypointsRemaining--
			}
			c.PlanUpdated = true
		})
	}
}

func (t *telemetry) update(fn func(c *missionTelemetry)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.current)
	t.sent = false
}

func (t *telemetry) queueEvent(message types.Message) {
	select {
	case t.events <- message:
	default:
		log.Printf("Telemetry event queue full, dropping %s", message.MessageType)
	}
}

// snapshot serializes the current telemetry and clears the update flags.
func (t *telemetry) snapshot() ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sent {
		return nil, false
	}

	t.current.Timestamp = time.Now().UnixNano() / 1000
	t.current.MessageID = uuid.New().String()
	b, err := json.Marshal(t.current)
	if err != nil {
		log.Printf("Could not marshal telemetry: %v", err)
		return nil, false
	}
	t.sent = true
	t.current.StateUpdated = false
	t.current.LocationUpdated = false
	t.current.PlanUpdated = false

	return b, true
}

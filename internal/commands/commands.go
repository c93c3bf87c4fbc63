package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/tiiuae/motion_planning/internal/types"
)

// Subscriber is the part of mqtt.Client the handler uses.
type Subscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
}

type controlCommand struct {
	Command   string
	Payload   string
	Timestamp time.Time
}

// commandHandler turns operator commands from
// /devices/<id>/commands/mission into bus messages.
type commandHandler struct {
	client   Subscriber
	deviceID string
}

func New(client Subscriber, deviceID string) types.MessageHandler {
	return &commandHandler{client, deviceID}
}

func (c *commandHandler) Run(ctx context.Context, wg *sync.WaitGroup, post types.PostFn) {
	wg.Add(1)
	defer wg.Done()

	topic := fmt.Sprintf("/devices/%s/commands/mission", c.deviceID)
	log.Printf("Subscribing to MQTT commands")
	token := c.client.Subscribe(topic, 0, func(client mqtt.Client, msg mqtt.Message) {
		handleCommand(msg.Payload(), c.deviceID, post)
	})
	if token.Wait() && token.Error() != nil {
		log.Printf("Error on subscribe: %v", token.Error())
	}

	<-ctx.Done()
	c.client.Unsubscribe(topic)
}

func (c *commandHandler) Receive(message types.Message) {
}

func handleCommand(payload []byte, deviceID string, post types.PostFn) {
	var cmd controlCommand
	err := json.Unmarshal(payload, &cmd)
	if err != nil {
		log.Printf("Could not unmarshal command: %v", err)
		return
	}

	switch cmd.Command {
	case "start-mission":
		log.Printf("Operator requesting to start the mission")
		post(types.CreateMessage("start-mission", "operator", deviceID, types.StartMission{}))
	case "abort-mission":
		log.Printf("Operator requesting to abort the mission")
		reason := cmd.Payload
		if reason == "" {
			reason = "operator abort"
		}
		post(types.CreateMessage("abort-mission", "operator", deviceID, types.AbortMission{Reason: reason}))
	default:
		log.Printf("Unknown command: %v", string(payload))
	}
}

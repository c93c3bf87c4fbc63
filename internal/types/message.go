package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is the envelope passed between handlers on the message bus.
// Message holds one of the typed structs in messages.go.
type Message struct {
	Timestamp   time.Time   `json:"timestamp"`
	From        string      `json:"from"`
	To          string      `json:"to"`
	ID          string      `json:"id"`
	MessageType string      `json:"message_type"`
	Message     interface{} `json:"message"`
}

// StringMessage is the wire form of Message where the payload is still
// serialized JSON.
type StringMessage struct {
	Timestamp   time.Time `json:"timestamp"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	ID          string    `json:"id"`
	MessageType string    `json:"message_type"`
	Message     string    `json:"message"`
}

// Serialize message payload to json for MQTT transport
func (message *Message) ToJsonMessage() (StringMessage, error) {
	b, err := json.Marshal(message.Message)
	if err != nil {
		return StringMessage{}, err
	}

	return StringMessage{
		Timestamp:   message.Timestamp,
		From:        message.From,
		To:          message.To,
		ID:          message.ID,
		MessageType: message.MessageType,
		Message:     string(b),
	}, nil
}

func (message *StringMessage) Replace(v interface{}) Message {
	return Message{
		message.Timestamp,
		message.From,
		message.To,
		message.ID,
		message.MessageType,
		v,
	}
}

func CreateMessage(messageType, from, to string, message interface{}) Message {
	return Message{
		time.Now().UTC(),
		from,
		to,
		uuid.New().String(),
		messageType,
		message,
	}
}

// CreateLocalMessage creates a message that never leaves this process.
func CreateLocalMessage(messageType string, message interface{}) Message {
	return CreateMessage(messageType, "self", "self", message)
}

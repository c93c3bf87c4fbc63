package types

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	received chan Message
	started  chan PostFn
}

func (r *recorder) Run(ctx context.Context, wg *sync.WaitGroup, post PostFn) {
	r.started <- post
}

func (r *recorder) Receive(message Message) {
	r.received <- message
}

func TestMessageBusFanOut(t *testing.T) {
	a := &recorder{make(chan Message, 10), make(chan PostFn, 1)}
	b := &recorder{make(chan Message, 10), make(chan PostFn, 1)}
	bus := NewMessageBus(make(chan Message, 10), a, b, NewLogger())

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	go bus.Run(ctx, wg)

	// a handler posts through the function it was started with
	post := <-a.started
	post(CreateLocalMessage("start-mission", StartMission{}))

	for _, r := range []*recorder{a, b} {
		select {
		case msg := <-r.received:
			if _, ok := msg.Message.(StartMission); !ok || msg.From != "self" || msg.ID == "" {
				t.Errorf("received %+v", msg)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("message not delivered")
		}
	}

	cancel()
	wg.Wait()
}

func TestToJsonMessage(t *testing.T) {
	msg := CreateMessage("mission-ended", "drone1", "operator", MissionEnded{Aborted: true, Reason: "wind"})

	s, err := msg.ToJsonMessage()
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != msg.ID || s.MessageType != "mission-ended" || s.Message != `{"aborted":true,"reason":"wind"}` {
		t.Errorf("string message = %+v", s)
	}

	var ended MissionEnded
	if err := json.Unmarshal([]byte(s.Message), &ended); err != nil {
		t.Fatal(err)
	}
	back := s.Replace(ended)
	if back.ID != msg.ID || back.From != "drone1" || back.Message != msg.Message {
		t.Errorf("replaced = %+v", back)
	}
}

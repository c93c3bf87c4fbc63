package types

import (
	"context"
	"log"
	"sync"
)

type PostFn = func(msg Message)

// MessageHandler is a component attached to the bus. Receive must not block
// for long: handlers queue incoming messages into their own inbox and
// process them in the goroutine started by Run.
type MessageHandler interface {
	Run(ctx context.Context, wg *sync.WaitGroup, post PostFn)
	Receive(message Message)
}

type MessageBus struct {
	bus       chan Message
	receivers []MessageHandler
}

func NewMessageBus(bus chan Message, receivers ...MessageHandler) *MessageBus {
	return &MessageBus{bus, receivers}
}

// Post queues a message for delivery to every receiver.
func (mb *MessageBus) Post(msg Message) {
	busLen := len(mb.bus)
	busCapacity := cap(mb.bus)
	if busLen > busCapacity/2 {
		log.Printf("WARNING: Bus capacity over 50%% [ %d / %d ]", busLen, busCapacity)
	}
	mb.bus <- msg
}

func (mb *MessageBus) Run(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	defer wg.Done()

	for _, x := range mb.receivers {
		go x.Run(ctx, wg, mb.Post)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-mb.bus:
			for _, x := range mb.receivers {
				x.Receive(msg)
			}
		}
	}
}

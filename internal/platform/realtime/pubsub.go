package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	EventAnswer   = "answer"
	EventVote     = "vote"
	EventAccepted = "accepted"
)

// Event is the frame pushed to a question room.
type Event struct {
	Event      string      `json:"event"`
	QuestionID string      `json:"questionId"`
	Payload    interface{} `json:"payload,omitempty"`
}

// Publisher sends question events through Redis so every API instance's hub sees them.
type Publisher struct {
	rdb    redis.Cmdable
	prefix string
}

func NewPublisher(rdb redis.Cmdable, prefix string) *Publisher {
	return &Publisher{rdb: rdb, prefix: prefix}
}

func (p *Publisher) Publish(ctx context.Context, questionID, event string, payload interface{}) error {
	data, err := json.Marshal(Event{Event: event, QuestionID: questionID, Payload: payload})
	if err != nil {
		return fmt.Errorf("Publisher.Publish: marshal: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.prefix+questionID, data).Err(); err != nil {
		return fmt.Errorf("Publisher.Publish: %w", err)
	}
	return nil
}

// Subscriber relays published question events into a Hub.
type Subscriber struct {
	rdb    *redis.Client
	hub    *Hub
	prefix string
	log    *logrus.Entry
}

func NewSubscriber(rdb *redis.Client, hub *Hub, prefix string, log *logrus.Entry) *Subscriber {
	return &Subscriber{rdb: rdb, hub: hub, prefix: prefix, log: log.WithField("component", "realtime_subscriber")}
}

// Run blocks until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	ps := s.rdb.PSubscribe(ctx, s.prefix+"*")
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("Subscriber.Run: psubscribe: %w", err)
	}
	s.log.WithField("pattern", s.prefix+"*").Info("realtime subscriber started")

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("realtime subscriber stopping")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.Relay(msg.Channel, msg.Payload)
		}
	}
}

// Relay forwards one published payload to the room its channel names.
func (s *Subscriber) Relay(channel, payload string) int {
	questionID := strings.TrimPrefix(channel, s.prefix)
	if questionID == "" || questionID == channel {
		return 0
	}
	return s.hub.Broadcast(RoomName(questionID), []byte(payload))
}

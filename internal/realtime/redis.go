package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrNoDate is returned when publishing an event whose images carry no date.
var ErrNoDate = errors.New("change event has no date")

// RedisFeed implements Feed over Redis pub/sub with one channel per date,
// so filtering by date happens on the server.
type RedisFeed struct {
	rdb    *redis.Client
	prefix string
	log    zerolog.Logger
}

// NewRedisFeed creates a feed publishing on "<prefix>:<date>" channels.
func NewRedisFeed(rdb *redis.Client, prefix string, logger zerolog.Logger) *RedisFeed {
	if prefix == "" {
		prefix = "reservations"
	}
	return &RedisFeed{
		rdb:    rdb,
		prefix: prefix,
		log:    logger.With().Str("component", "realtime").Logger(),
	}
}

// Channel returns the channel name for date.
func (f *RedisFeed) Channel(date string) string {
	return fmt.Sprintf("%s:%s", f.prefix, date)
}

// Publish sends event on the channel of its date.
func (f *RedisFeed) Publish(ctx context.Context, event ChangeEvent) error {
	date := event.Date()
	if date == "" {
		return ErrNoDate
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := f.rdb.Publish(ctx, f.Channel(date), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscribe opens a subscription for date. It returns once Redis has
// confirmed the subscription.
func (f *RedisFeed) Subscribe(ctx context.Context, date string) (Subscription, error) {
	channel := f.Channel(date)
	ps := f.rdb.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	sub := &redisSubscription{
		ps:     ps,
		events: make(chan ChangeEvent, 64),
		done:   make(chan struct{}),
	}
	go sub.pump(f.log.With().Str("channel", channel).Logger())
	return sub, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	events chan ChangeEvent
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) Events() <-chan ChangeEvent {
	return s.events
}

// Close unsubscribes. No event is delivered after Close returns.
func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

func (s *redisSubscription) pump(log zerolog.Logger) {
	defer close(s.events)
	messages := s.ps.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Msg("dropping malformed change event")
				continue
			}
			select {
			case s.events <- event:
			case <-s.done:
				return
			}
		}
	}
}

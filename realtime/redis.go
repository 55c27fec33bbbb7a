package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"civicsync/models"
)

// RedisProvider subscribes to push topics through Redis pub/sub.
type RedisProvider struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewRedisProvider creates a provider backed by client.
func NewRedisProvider(client redis.UniversalClient, logger *slog.Logger) *RedisProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisProvider{client: client, logger: logger}
}

// Subscribe waits for Redis to confirm the subscription before returning.
func (p *RedisProvider) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	ps := p.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, &models.NetworkError{Op: "redis subscribe " + topic, Err: err}
	}

	sub := &redisSubscription{
		pubsub: ps,
		events: make(chan StatusEvent),
		stop:   make(chan struct{}),
		logger: p.logger.With("topic", topic),
	}
	go sub.pump(ps.Channel())
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan StatusEvent
	stop   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func (s *redisSubscription) Events() <-chan StatusEvent { return s.events }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		err = s.pubsub.Close()
	})
	return err
}

func (s *redisSubscription) pump(messages <-chan *redis.Message) {
	defer close(s.events)
	for {
		select {
		case <-s.stop:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			ev, err := DecodeStatusEvent([]byte(msg.Payload))
			if err != nil {
				s.logger.Warn("malformed push payload", "error", err)
				continue
			}
			select {
			case s.events <- ev:
			case <-s.stop:
				return
			}
		}
	}
}

// RedisPublisher announces status changes on the push topic.
type RedisPublisher struct {
	client redis.UniversalClient
}

func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// PublishStatus sends ev to every subscriber of TopicStatusUpdated.
func (p *RedisPublisher) PublishStatus(ctx context.Context, ev StatusEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode status event: %w", err)
	}
	if err := p.client.Publish(ctx, TopicStatusUpdated, payload).Err(); err != nil {
		return &models.NetworkError{Op: "redis publish " + TopicStatusUpdated, Err: err}
	}
	return nil
}

// DecodeStatusEvent parses a push payload.
func DecodeStatusEvent(data []byte) (StatusEvent, error) {
	var ev StatusEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return StatusEvent{}, fmt.Errorf("decode status event: %w", err)
	}
	if ev.ID == "" {
		return StatusEvent{}, fmt.Errorf("decode status event: %w: missing id", models.ErrInvalidInput)
	}
	return ev, nil
}

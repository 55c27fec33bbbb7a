// Package realtime keeps an issue store in step with status changes pushed
// by the authority.
//
// A Channel is owned by the view that needs live updates. It is opened when
// the view becomes active and closed when it goes away, so handlers never
// pile up across activations. Delivery is best effort: the channel does not
// buffer or replay, and a full fetch after reconnecting is the way back to a
// consistent store.
package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"civicsync/models"
)

// TopicStatusUpdated is the push topic carrying status changes.
const TopicStatusUpdated = "statusUpdated"

// StatusEvent is the payload published on TopicStatusUpdated.
type StatusEvent struct {
	ID     string             `json:"id"`
	Status models.IssueStatus `json:"status"`
}

// Subscription is a live stream of events from a Provider. Events is
// closed when the stream ends, either through Close or a disconnect.
type Subscription interface {
	Events() <-chan StatusEvent
	Close() error
}

// Provider opens subscriptions on the push transport.
type Provider interface {
	Subscribe(ctx context.Context, topic string) (Subscription, error)
}

// Patcher applies a status change to the local cache.
type Patcher interface {
	PatchStatus(id string, status models.IssueStatus) (bool, error)
}

// Channel applies pushed status events to a store in receipt order.
type Channel struct {
	provider Provider
	store    Patcher
	logger   *slog.Logger

	mu   sync.Mutex
	sub  Subscription
	done chan struct{}
}

// NewChannel creates a closed channel.
func NewChannel(provider Provider, store Patcher, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	done := make(chan struct{})
	close(done)
	return &Channel{
		provider: provider,
		store:    store,
		logger:   logger.With("component", "realtime"),
		done:     done,
	}
}

// Open subscribes to TopicStatusUpdated. Opening an open channel is a
// no-op, so a single handler is active per activation.
func (c *Channel) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != nil {
		return nil
	}

	sub, err := c.provider.Subscribe(ctx, TopicStatusUpdated)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicStatusUpdated, err)
	}

	c.sub = sub
	c.done = make(chan struct{})
	go c.run(sub, c.done)

	c.logger.Info("subscribed", "topic", TopicStatusUpdated)
	return nil
}

// Close unsubscribes and waits until no further event will be applied.
func (c *Channel) Close() error {
	c.mu.Lock()
	sub, done := c.sub, c.done
	c.sub = nil
	c.mu.Unlock()

	if sub == nil {
		return nil
	}

	err := sub.Close()
	<-done
	c.logger.Info("unsubscribed", "topic", TopicStatusUpdated)
	return err
}

// Done is closed when the current subscription ends. A closed channel
// reports an already closed Done.
func (c *Channel) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Active reports whether a subscription is open.
func (c *Channel) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub != nil
}

func (c *Channel) run(sub Subscription, done chan struct{}) {
	defer close(done)

	for ev := range sub.Events() {
		c.apply(ev)
	}

	c.mu.Lock()
	if c.sub == sub {
		c.sub = nil
		c.logger.Warn("push stream ended", "topic", TopicStatusUpdated)
	}
	c.mu.Unlock()
}

func (c *Channel) apply(ev StatusEvent) {
	if ev.ID == "" {
		c.logger.Warn("dropping event without id", "status", ev.Status)
		return
	}
	changed, err := c.store.PatchStatus(ev.ID, ev.Status)
	if err != nil {
		c.logger.Warn("dropping event", "id", ev.ID, "status", ev.Status, "error", err)
		return
	}
	if changed {
		c.logger.Debug("status patched", "id", ev.ID, "status", ev.Status)
	}
}

package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/a1gato/olimpiad/internal/models"
)

// Publisher is the write-side of the change feed. Services publish an event
// after every successful table write.
type Publisher interface {
	Publish(ctx context.Context, event models.TableEvent)
}

// Feed fans table-change events out to in-process subscribers. When a Redis
// client is configured, events are bridged through a pub/sub channel so
// writes from other instances propagate as well; without one the feed
// dispatches locally. Subscriptions are cancellable registrations with
// explicit teardown, so a disconnecting dashboard never leaks its channel.
type Feed struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger

	mu     sync.Mutex
	subs   map[int]chan models.TableEvent
	nextID int
}

// NewFeed constructs a Feed. client may be nil for in-process-only fan-out.
func NewFeed(client *redis.Client, channel string, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		client:  client,
		channel: channel,
		logger:  logger,
		subs:    make(map[int]chan models.TableEvent),
	}
}

// Publish announces a row change. With Redis configured the event travels
// through pub/sub and Run delivers it; otherwise it is dispatched directly.
func (f *Feed) Publish(ctx context.Context, event models.TableEvent) {
	if f.client == nil {
		f.dispatch(event)
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		f.logger.Warn("marshal table event failed", zap.Error(err))
		return
	}
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		f.logger.Warn("publish table event failed",
			zap.String("table", event.Table),
			zap.String("action", event.Action),
			zap.Error(err))
	}
}

// Run consumes the Redis channel and dispatches events to subscribers until
// the context is cancelled. It is a no-op without a Redis client.
func (f *Feed) Run(ctx context.Context) {
	if f.client == nil {
		return
	}
	pubsub := f.client.Subscribe(ctx, f.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event models.TableEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				f.logger.Warn("decode table event failed", zap.Error(err))
				continue
			}
			f.dispatch(event)
		}
	}
}

// Subscribe registers a listener and returns its channel together with a
// teardown function. Callers must invoke the teardown when done.
func (f *Feed) Subscribe() (<-chan models.TableEvent, func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	ch := make(chan models.TableEvent, 16)
	f.subs[id] = ch
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// SubscriberCount reports the number of active subscriptions.
func (f *Feed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Feed) dispatch(event models.TableEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, sub := range f.subs {
		select {
		case sub <- event:
		default:
			// Slow consumer; drop rather than block the feed.
			f.logger.Warn("event subscriber backlogged, dropping event", zap.Int("subscriber", id))
		}
	}
}

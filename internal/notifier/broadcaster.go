// Package notifier fans "new records" events out to subscribed consumers.
// Delivery is decoupled from storage and from transport specifics: the
// sync cycle hands a batch to the Broadcaster and moves on.
package notifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"factsync/internal/domain"
)

// Message actions on the wire. ActionPostsRemoved is part of the protocol
// for future use; the store's deletion ban means this process never emits
// it.
const (
	ActionNewPosts     = "new_posts"
	ActionPostsRemoved = "posts_removed"
)

// PostsMessage is the payload delivered to subscribers.
type PostsMessage struct {
	Action    string        `json:"action"`
	Posts     []domain.Post `json:"posts"`
	Timestamp time.Time     `json:"timestamp"`
}

// Subscriber receives new-post batches. Implementations own their
// transport (message queue, websocket, ...).
type Subscriber interface {
	Name() string
	NotifyNewPosts(ctx context.Context, msg PostsMessage) error
}

// deliveryTimeout bounds each subscriber's delivery attempt.
const deliveryTimeout = 30 * time.Second

// Broadcaster delivers each batch to every subscriber in its own
// goroutine. A slow or failing subscriber never stalls the sync loop or
// the other subscribers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers []Subscriber
	logger      *slog.Logger
}

func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{logger: logger}
}

// Subscribe registers a subscriber. Safe to call concurrently with
// PublishNew.
func (b *Broadcaster) Subscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, sub)
}

// PublishNew fans the batch out and returns immediately. The deliveries
// outlive the caller's context deadline; each gets its own bounded one.
func (b *Broadcaster) PublishNew(ctx context.Context, posts []domain.Post) {
	if len(posts) == 0 {
		return
	}

	msg := PostsMessage{
		Action:    ActionNewPosts,
		Posts:     posts,
		Timestamp: time.Now().UTC(),
	}

	b.mu.RLock()
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, sub := range subs {
		go func(sub Subscriber) {
			deliveryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
			defer cancel()

			if err := sub.NotifyNewPosts(deliveryCtx, msg); err != nil {
				b.logger.Warn("subscriber delivery failed",
					"subscriber", sub.Name(),
					"posts", len(msg.Posts),
					"error", err,
				)
			}
		}(sub)
	}
}

package bus

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

type key interface {
	comparable
}

type message interface {
	any
}

type Message[K key, M message] struct {
	Key     K
	Message M
}

type Publisher[M message] func(ctx context.Context, msg M)
type Subscriber[K key, M message] func(ctx context.Context) <-chan Message[K, M]

// Bus delivers published messages to subscribers in publish order.
// A single worker drains the queue, so no reordering happens between publishers and subscribers.
type Bus[K key, M message] struct {
	log   *zap.Logger
	ready chan struct{}

	ch         chan Message[K, M]
	keySubs    *xsync.MapOf[K, map[chan Message[K, M]]<-chan struct{}]
	globalSubs *xsync.MapOf[chan Message[K, M], <-chan struct{}]
}

type options struct {
	queueSize int
}

type Option func(*options)

// WithQueueSize sets how many messages Publish can hand off before it waits for the worker.
func WithQueueSize(n int) Option {
	return func(o *options) {
		o.queueSize = n
	}
}

func NewBus[K key, M message](logger *zap.Logger, opts ...Option) *Bus[K, M] {
	o := options{queueSize: 64}
	for _, opt := range opts {
		opt(&o)
	}
	return &Bus[K, M]{
		log:   logger,
		ready: make(chan struct{}),

		ch:         make(chan Message[K, M], o.queueSize),
		keySubs:    xsync.NewMapOf[K, map[chan Message[K, M]]<-chan struct{}](),
		globalSubs: xsync.NewMapOf[chan Message[K, M], <-chan struct{}](),
	}
}

func (b *Bus[K, M]) Start(ctx context.Context) error {
	select {
	case <-b.ready:
		return fmt.Errorf("bus already started")
	default:
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-b.ch:
				b.process(ctx, msg)
			}
		}
	}()
	close(b.ready)
	return nil
}

func (b *Bus[K, M]) Ready() <-chan struct{} {
	return b.ready
}

// Publish hands msg off to the bus. It returns once the message is queued, not delivered.
func (b *Bus[K, M]) Publish(ctx context.Context, key K, msg M) {
	select {
	case <-ctx.Done():
		b.log.Debug("publish cancelled", zap.Any("key", key))
	case b.ch <- Message[K, M]{key, msg}:
	}
}

func (b *Bus[K, M]) CreatePublisher(key K) Publisher[M] {
	return func(ctx context.Context, msg M) {
		b.Publish(ctx, key, msg)
	}
}

func (b *Bus[K, M]) CreateSubscriber(key ...K) Subscriber[K, M] {
	return func(ctx context.Context) <-chan Message[K, M] {
		return b.Subscribe(ctx, key...)
	}
}

func (b *Bus[K, M]) process(ctx context.Context, msg Message[K, M]) {
	b.globalSubs.Range(func(sub chan Message[K, M], done <-chan struct{}) bool {
		return deliver(ctx, sub, done, msg)
	})
	subs, ok := b.keySubs.Load(msg.Key)
	if !ok {
		return
	}
	for sub, done := range subs {
		if !deliver(ctx, sub, done, msg) {
			return
		}
	}
}

func deliver[K key, M message](ctx context.Context, sub chan Message[K, M], done <-chan struct{}, msg Message[K, M]) bool {
	select {
	case <-ctx.Done():
		return false
	case <-done:
	case sub <- msg:
	}
	return true
}

// Subscribe returns a channel receiving messages for the given keys, or all messages when no key is given.
// Delivery to the channel stops when ctx is done. Subscribers must keep draining it until then.
func (b *Bus[K, M]) Subscribe(ctx context.Context, key ...K) <-chan Message[K, M] {
	ch := make(chan Message[K, M])
	if len(key) == 0 {
		b.globalSubs.Store(ch, ctx.Done())
		go func() {
			<-ctx.Done()
			b.globalSubs.Delete(ch)
		}()
		return ch
	}
	for _, k := range key {
		b.keySubs.Compute(k, func(val map[chan Message[K, M]]<-chan struct{}, ok bool) (map[chan Message[K, M]]<-chan struct{}, bool) {
			next := make(map[chan Message[K, M]]<-chan struct{}, len(val)+1)
			for sub, done := range val {
				next[sub] = done
			}
			next[ch] = ctx.Done()
			return next, false
		})
	}
	go func() {
		<-ctx.Done()
		for _, k := range key {
			b.keySubs.Compute(k, func(val map[chan Message[K, M]]<-chan struct{}, ok bool) (map[chan Message[K, M]]<-chan struct{}, bool) {
				next := make(map[chan Message[K, M]]<-chan struct{}, len(val))
				for sub, done := range val {
					if sub != ch {
						next[sub] = done
					}
				}
				return next, len(next) == 0
			})
		}
	}()
	return ch
}

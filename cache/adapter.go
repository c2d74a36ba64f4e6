package cache

import (
	"context"
	"errors"
	"time"

	"github.com/kasuganosora/battlecore/cache/local"
	cacheredis "github.com/kasuganosora/battlecore/cache/redis"
	"github.com/kasuganosora/battlecore/config"
)

// Cache defines the KV / Hash / List operations.
type Cache interface {
	// KV
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Hash
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// List
	LPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LTrim(ctx context.Context, key string, start, stop int64) error
}

// Message is a received pub/sub message.
type Message struct {
	Channel string
	Payload string
}

// PubSub defines channel publish/subscribe operations.
type PubSub interface {
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error)
}

// IsNotFound reports whether err is a missing key from either backend.
func IsNotFound(err error) bool {
	return errors.Is(err, local.ErrNotFound) || errors.Is(err, cacheredis.ErrNotFound)
}

// Backend bundles a Cache and a PubSub sharing one connection.
type Backend struct {
	Cache  Cache
	PubSub PubSub
	close  []func() error
}

// Close releases the backend's resources.
func (b *Backend) Close() error {
	var errs []error
	for _, fn := range b.close {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// New returns a Backend on Redis if RedisAddr is set, otherwise on the
// in-process LocalCache and LocalPubSub.
func New(cfg config.CacheConfig) (*Backend, error) {
	if cfg.RedisAddr != "" {
		client, err := cacheredis.NewClient(cacheredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{
			Cache:  client,
			PubSub: &redisPubSubAdapter{ps: client},
			close:  []func() error{client.Close},
		}, nil
	}

	c, err := local.NewCache(local.Config{GCInterval: cfg.LocalGCInterval})
	if err != nil {
		return nil, err
	}
	ps := local.NewPubSub(cfg.LocalPubSubBuf)
	return &Backend{
		Cache:  c,
		PubSub: &localPubSubAdapter{ps: ps},
		close:  []func() error{ps.Close, c.Close},
	}, nil
}

// ---- adapters to bridge sub-package message types to cache.Message ----

// forward relays a backend's messages as *Message until in is closed or
// done is.
func forward[T any](in <-chan T, done <-chan struct{}, conv func(T) *Message) <-chan *Message {
	out := make(chan *Message, cap(in))
	go func() {
		defer close(out)
		for msg := range in {
			select {
			case out <- conv(msg):
			case <-done:
				return
			}
		}
	}()
	return out
}

// subscribeWith runs a backend subscription under its own cancellable
// context, so the relay stops with it.
func subscribeWith[T any](ctx context.Context, sub func(context.Context) (<-chan T, func(), error), conv func(T) *Message) (<-chan *Message, func(), error) {
	sctx, stop := context.WithCancel(ctx)
	in, unsubscribe, err := sub(sctx)
	if err != nil {
		stop()
		return nil, nil, err
	}
	cancel := func() {
		stop()
		unsubscribe()
	}
	return forward(in, sctx.Done(), conv), cancel, nil
}

type localPubSubAdapter struct {
	ps *local.LocalPubSub
}

func (a *localPubSubAdapter) Publish(ctx context.Context, channel, message string) error {
	return a.ps.Publish(ctx, channel, message)
}

func (a *localPubSubAdapter) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	return subscribeWith(ctx, func(sctx context.Context) (<-chan *local.LocalMessage, func(), error) {
		return a.ps.Subscribe(sctx, channels...)
	}, func(m *local.LocalMessage) *Message {
		return &Message{Channel: m.Channel, Payload: m.Payload}
	})
}

type redisPubSubAdapter struct {
	ps *cacheredis.Client
}

func (a *redisPubSubAdapter) Publish(ctx context.Context, channel, message string) error {
	return a.ps.Publish(ctx, channel, message)
}

func (a *redisPubSubAdapter) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	return subscribeWith(ctx, func(sctx context.Context) (<-chan *cacheredis.RedisMessage, func(), error) {
		return a.ps.Subscribe(sctx, channels...)
	}, func(m *cacheredis.RedisMessage) *Message {
		return &Message{Channel: m.Channel, Payload: m.Payload}
	})
}

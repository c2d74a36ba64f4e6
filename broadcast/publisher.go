package broadcast

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kasuganosora/battlecore/cache"
	"github.com/kasuganosora/battlecore/game/battle"
)

const (
	channelPrefix = "battle:"
	// RecentKey lists the IDs of the latest finished battles, newest first.
	RecentKey     = "battles:recent"
	recentHistory = 100
)

// Channel is the pub/sub channel carrying a battle's events.
func Channel(battleID string) string { return channelPrefix + battleID }

// StatusKey is the hash holding a battle's latest seq, type and turn.
func StatusKey(battleID string) string { return channelPrefix + battleID + ":status" }

// SnapshotKey holds a finished battle's final snapshot as JSON.
func SnapshotKey(battleID string) string { return channelPrefix + battleID + ":snapshot" }

// Envelope is the JSON message published for every battle event.
type Envelope struct {
	BattleID string          `json:"battle_id"`
	Seq      int             `json:"seq"`
	Turn     int             `json:"turn"`
	Type     string          `json:"type"`
	Event    json.RawMessage `json:"event"`
}

// Options tunes the Publisher. Zero values pick the defaults.
type Options struct {
	QueueSize   int
	SnapshotTTL time.Duration
}

// Publisher is a battle.Sink that relays events to pub/sub subscribers and
// keeps per-battle status in the cache. Notify never blocks: events are
// queued for a background worker and dropped when the queue is full.
type Publisher struct {
	cache   cache.Cache
	pubsub  cache.PubSub
	ch      chan battle.Notification
	stopCh  chan struct{}
	wg      sync.WaitGroup
	logger  *zap.Logger
	ttl     time.Duration
	dropped atomic.Int64
}

// New creates a Publisher and starts its background worker.
func New(c cache.Cache, ps cache.PubSub, logger *zap.Logger, opts Options) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = 24 * time.Hour
	}
	p := &Publisher{
		cache:  c,
		pubsub: ps,
		ch:     make(chan battle.Notification, opts.QueueSize),
		stopCh: make(chan struct{}),
		logger: logger,
		ttl:    opts.SnapshotTTL,
	}
	p.wg.Add(1)
	go p.worker()
	return p
}

// Notify queues n for publishing.
func (p *Publisher) Notify(n battle.Notification) {
	select {
	case p.ch <- n:
	default:
		p.dropped.Add(1)
		p.logger.Warn("broadcast queue full, dropping event",
			zap.String("battle_id", n.BattleID), zap.Int("seq", n.Seq))
	}
}

// Dropped is the number of events lost to a full queue.
func (p *Publisher) Dropped() int64 { return p.dropped.Load() }

// StoreSnapshot writes a battle's final state, lets its status expire along
// with it and records the battle in the recent list.
func (p *Publisher) StoreSnapshot(ctx context.Context, snap battle.BattleSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := p.cache.Set(ctx, SnapshotKey(snap.ID), string(raw), p.ttl); err != nil {
		return err
	}
	if err := p.cache.Expire(ctx, StatusKey(snap.ID), p.ttl); err != nil && !cache.IsNotFound(err) {
		return err
	}
	if err := p.cache.LPush(ctx, RecentKey, snap.ID); err != nil {
		return err
	}
	return p.cache.LTrim(ctx, RecentKey, 0, recentHistory-1)
}

// LoadSnapshot reads back a snapshot written by StoreSnapshot.
func (p *Publisher) LoadSnapshot(ctx context.Context, battleID string) (*battle.BattleSnapshot, error) {
	raw, err := p.cache.Get(ctx, SnapshotKey(battleID))
	if err != nil {
		return nil, err
	}
	var snap battle.BattleSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Stop publishes the remaining queued events and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (p *Publisher) Stop(_ context.Context) {
	select {
	case <-p.stopCh:
	default:
		close(p.stopCh)
	}
	p.wg.Wait()
}

func (p *Publisher) worker() {
	defer p.wg.Done()
	for {
		select {
		case n := <-p.ch:
			p.publish(n)
		case <-p.stopCh:
			// Drain remaining events.
			for {
				select {
				case n := <-p.ch:
					p.publish(n)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) publish(n battle.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	typ := n.Event.EventType()
	payload, err := json.Marshal(n.Event)
	if err != nil {
		p.logger.Error("broadcast encode event failed",
			zap.String("battle_id", n.BattleID), zap.String("type", typ), zap.Error(err))
		return
	}
	env, _ := json.Marshal(Envelope{BattleID: n.BattleID, Seq: n.Seq, Turn: n.Turn, Type: typ, Event: payload})
	if err := p.pubsub.Publish(ctx, Channel(n.BattleID), string(env)); err != nil {
		p.logger.Warn("broadcast publish failed", zap.String("battle_id", n.BattleID), zap.Error(err))
	}

	status := map[string]string{
		"seq":  strconv.Itoa(n.Seq),
		"turn": strconv.Itoa(n.Turn),
		"type": typ,
	}
	if end, ok := n.Event.(battle.EventBattleEnd); ok {
		status["result"] = end.Result.String()
	}
	if err := p.cache.HSet(ctx, StatusKey(n.BattleID), status); err != nil {
		p.logger.Warn("broadcast status update failed", zap.String("battle_id", n.BattleID), zap.Error(err))
		return
	}
	if _, ok := n.Event.(battle.EventBattleEnd); ok {
		if err := p.cache.Expire(ctx, StatusKey(n.BattleID), p.ttl); err != nil {
			p.logger.Warn("broadcast status expire failed", zap.String("battle_id", n.BattleID), zap.Error(err))
		}
	}
}

// Watch subscribes to one battle's envelopes. The returned channel closes
// when cancel is called or ctx ends, whether or not the reader keeps up.
func Watch(ctx context.Context, ps cache.PubSub, battleID string) (<-chan Envelope, func(), error) {
	wctx, stop := context.WithCancel(ctx)
	msgs, unsubscribe, err := ps.Subscribe(wctx, Channel(battleID))
	if err != nil {
		stop()
		return nil, nil, err
	}
	out := make(chan Envelope, cap(msgs))
	go func() {
		defer close(out)
		for m := range msgs {
			var env Envelope
			if json.Unmarshal([]byte(m.Payload), &env) != nil {
				continue
			}
			select {
			case out <- env:
			case <-wctx.Done():
				return
			}
		}
	}()
	cancel := func() {
		stop()
		unsubscribe()
	}
	return out, cancel, nil
}

package draft

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	applog "github.com/careerforge/backend/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventChannelPrefix = "careers:draft:events:"

// Event announces a new draft state for a company. Snapshot is nil when the
// draft was cleared (published or discarded).
type Event struct {
	CompanyID string    `json:"company_id"`
	Snapshot  *Snapshot `json:"snapshot"`
}

// Broadcaster fans draft changes out to every interested preview context.
// Delivery is layered: an in-process subscriber registry for clients on this
// instance, a per-company Redis pub/sub channel for other instances, and a
// fingerprint-gated poll of the store as the correctness backstop against
// missed events. The fingerprint gate also suppresses redundant deliveries
// when the same state arrives over more than one channel.
type Broadcaster struct {
	store     Store
	rdb       *redis.Client
	pollEvery time.Duration

	mu       sync.Mutex
	subs     map[string]map[chan Event]struct{}
	lastSeen map[string]string // company id -> last delivered fingerprint

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBroadcaster starts the poller and, when a Redis client is given, the
// cross-instance pub/sub consumer. Call Close to stop both.
func NewBroadcaster(store Store, rdb *redis.Client, pollEvery time.Duration) *Broadcaster {
	if pollEvery <= 0 {
		pollEvery = 500 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Broadcaster{
		store:     store,
		rdb:       rdb,
		pollEvery: pollEvery,
		subs:      make(map[string]map[chan Event]struct{}),
		lastSeen:  make(map[string]string),
		cancel:    cancel,
	}

	b.wg.Add(1)
	go b.pollLoop(ctx)

	if rdb != nil {
		b.wg.Add(1)
		go b.consumeLoop(ctx)
	}

	return b
}

// Subscribe registers a listener for one company's draft changes. The
// returned channel is buffered; events are dropped rather than blocking the
// broadcaster when the listener falls behind.
func (b *Broadcaster) Subscribe(companyID string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[companyID] == nil {
		b.subs[companyID] = make(map[chan Event]struct{})
	}
	b.subs[companyID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener and closes its channel
func (b *Broadcaster) Unsubscribe(companyID string, ch chan Event) {
	b.mu.Lock()
	if set, ok := b.subs[companyID]; ok {
		if _, ok := set[ch]; ok {
			delete(set, ch)
			close(ch)
		}
		if len(set) == 0 {
			delete(b.subs, companyID)
			delete(b.lastSeen, companyID)
		}
	}
	b.mu.Unlock()
}

// Publish announces a draft change: immediate in-process delivery, then the
// Redis channel for other instances. Errors publishing to Redis are logged,
// not surfaced - the poller covers the gap.
func (b *Broadcaster) Publish(ctx context.Context, ev Event) {
	b.deliver(ev)

	if b.rdb == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := b.rdb.Publish(ctx, eventChannelPrefix+ev.CompanyID, data).Err(); err != nil {
		applog.Get().Warn("draft event publish failed",
			zap.String("company_id", ev.CompanyID),
			zap.Error(err),
		)
	}
}

// Close stops the poller and pub/sub consumer and closes all subscriber
// channels.
func (b *Broadcaster) Close() {
	b.cancel()
	b.wg.Wait()

	b.mu.Lock()
	for companyID, set := range b.subs {
		for ch := range set {
			close(ch)
		}
		delete(b.subs, companyID)
	}
	b.mu.Unlock()
}

// deliver fans an event out to local subscribers, gated by fingerprint so a
// state observed twice (poller + pub/sub, or two identical saves) fires once.
// Sends happen under the mutex: they are non-blocking, and Unsubscribe closes
// channels under the same mutex, so a send can never hit a closed channel.
func (b *Broadcaster) deliver(ev Event) {
	fp := ev.Snapshot.Fingerprint()

	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.subs[ev.CompanyID]
	if !ok {
		// Remember the state so a later subscriber's poll baseline is current
		b.lastSeen[ev.CompanyID] = fp
		return
	}
	if b.lastSeen[ev.CompanyID] == fp {
		return
	}
	b.lastSeen[ev.CompanyID] = fp

	for ch := range set {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: skip rather than stall the broadcaster
		}
	}
}

// pollLoop re-reads the store for every watched company and fires an event
// when the fingerprint changed. This is the fallback channel: it catches
// writes from processes that never reached us over pub/sub.
func (b *Broadcaster) pollLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		b.mu.Lock()
		watched := make([]string, 0, len(b.subs))
		for companyID := range b.subs {
			watched = append(watched, companyID)
		}
		b.mu.Unlock()

		for _, companyID := range watched {
			snap, ok, err := b.store.Load(ctx, companyID)
			if err != nil {
				continue
			}
			if !ok {
				snap = nil
			}
			b.deliver(Event{CompanyID: companyID, Snapshot: snap})
		}
	}
}

// consumeLoop receives events published by other instances
func (b *Broadcaster) consumeLoop(ctx context.Context) {
	defer b.wg.Done()

	pubsub := b.rdb.PSubscribe(ctx, eventChannelPrefix+"*")
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
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			b.deliver(ev)
		}
	}
}

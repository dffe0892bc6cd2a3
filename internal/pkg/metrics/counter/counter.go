// Package counter keeps checkout outcome counters in a redis hash per event,
// with one field per currency.
package counter

import (
	"context"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

type Event string

const (
	CheckoutStarted   Event = "started"
	CheckoutCompleted Event = "completed"
	CheckoutFailed    Event = "failed"
	WebhookDuplicate  Event = "webhook_duplicate"
)

// Events lists every counted event in display order.
var Events = []Event{CheckoutStarted, CheckoutCompleted, CheckoutFailed, WebhookDuplicate}

// TotalField is used when the caller does not know the currency.
const TotalField = "total"

const keyPrefix = "checkout:counters:"

// Recorder increments and reads outcome counters.
type Recorder interface {
	Add(ctx context.Context, event Event, field string) error
	Snapshot(ctx context.Context) (map[Event]map[string]int64, error)
}

// New returns a redis-backed recorder, or an in-process one when client is nil.
func New(client *redis.Client) Recorder {
	if client == nil {
		return NewMemory()
	}
	return &RedisRecorder{client: client}
}

func normalizeField(field string) string {
	field = strings.ToUpper(strings.TrimSpace(field))
	if field == "" {
		return TotalField
	}
	return field
}

// RedisRecorder shares counters between instances.
type RedisRecorder struct {
	client *redis.Client
}

// Add increments the counter for event and field
func (r *RedisRecorder) Add(ctx context.Context, event Event, field string) error {
	return r.client.HIncrBy(ctx, keyPrefix+string(event), normalizeField(field), 1).Err()
}

// Snapshot reads every counter hash in one pipeline.
func (r *RedisRecorder) Snapshot(ctx context.Context) (map[Event]map[string]int64, error) {
	pipe := r.client.Pipeline()
	cmds := make(map[Event]*redis.MapStringStringCmd, len(Events))
	for _, ev := range Events {
		cmds[ev] = pipe.HGetAll(ctx, keyPrefix+string(ev))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	out := make(map[Event]map[string]int64, len(Events))
	for ev, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil && err != redis.Nil {
			return nil, err
		}
		out[ev] = parseCounts(data)
	}
	return out, nil
}

// MemoryRecorder is only correct for a single instance.
type MemoryRecorder struct {
	mu     sync.Mutex
	counts map[Event]map[string]int64
}

func NewMemory() *MemoryRecorder {
	return &MemoryRecorder{counts: make(map[Event]map[string]int64)}
}

func (m *MemoryRecorder) Add(_ context.Context, event Event, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts[event] == nil {
		m.counts[event] = make(map[string]int64)
	}
	m.counts[event][normalizeField(field)]++
	return nil
}

func (m *MemoryRecorder) Snapshot(_ context.Context) (map[Event]map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Event]map[string]int64, len(Events))
	for _, ev := range Events {
		fields := make(map[string]int64, len(m.counts[ev]))
		for k, v := range m.counts[ev] {
			fields[k] = v
		}
		out[ev] = fields
	}
	return out, nil
}

package planupdate

import (
	"sync"

	"sitehub/internal/core/plans"
)

type Event interface {
	Blog() int64
}

// PlansUpdated is published after a site's plans were stored
type PlansUpdated struct {
	BlogID int64            `json:"blog_id"`
	Plans  []plans.SitePlan `json:"plans"`
}

func (e PlansUpdated) Blog() int64 { return e.BlogID }

type PlansUpdateFailed struct {
	BlogID int64 `json:"blog_id"`
	Err    error `json:"-"`
}

func (e PlansUpdateFailed) Blog() int64 { return e.BlogID }

// Bus fans plan events out to the subscribers of the same blog.
// Slow subscribers miss events instead of blocking the publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int64]map[chan Event]struct{}
	buffer int
}

func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus{
		subs:   make(map[int64]map[chan Event]struct{}),
		buffer: buffer,
	}
}

// Subscribe returns the event channel for blogID and the function that unsubscribes it
func (b *Bus) Subscribe(blogID int64) (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	if b.subs[blogID] == nil {
		b.subs[blogID] = make(map[chan Event]struct{})
	}
	b.subs[blogID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(blogID, ch) })
	}
}

func (b *Bus) unsubscribe(blogID int64, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[blogID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(b.subs, blogID)
	}
	close(ch)
}

// Publish returns how many subscribers received ev
func (b *Bus) Publish(ev Event) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for ch := range b.subs[ev.Blog()] {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

func (b *Bus) Subscribers(blogID int64) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[blogID])
}

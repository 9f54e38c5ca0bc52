package stock

import (
	"sync"
	"time"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// Snapshot is the whole item collection at one point in time.
// Items is shared between subscribers and must be treated as read-only.
type Snapshot struct {
	Seq   uint64
	At    time.Time
	Items []models.StockItem
}

// Feed fans snapshots out to subscribers. Every subscriber holds at most one pending snapshot;
// a newer snapshot replaces an unread one, so slow readers only ever see the latest state and
// publishers never block.
type Feed struct {
	mu     sync.Mutex
	subs   map[uint64]chan Snapshot
	nextID uint64
	seq    uint64
	latest *Snapshot

	onSubscribers func(int)
}

// NewFeed returns an empty feed. onSubscribers, when set, is called with the subscriber count
// after every change to it.
func NewFeed(onSubscribers func(int)) *Feed {
	return &Feed{subs: make(map[uint64]chan Snapshot), onSubscribers: onSubscribers}
}

// Publish stores items as the latest snapshot and offers it to every subscriber.
func (f *Feed) Publish(items []models.StockItem, at time.Time) Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	snap := Snapshot{Seq: f.seq, At: at, Items: items}
	f.latest = &snap
	for _, ch := range f.subs {
		offer(ch, snap)
	}
	return snap
}

// Latest returns the most recent snapshot, if any was published.
func (f *Feed) Latest() (Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == nil {
		return Snapshot{}, false
	}
	return *f.latest, true
}

// Subscribe registers a new subscriber. The latest snapshot, when there is one, is already
// waiting on the returned channel. cancel closes the channel and may be called more than once.
func (f *Feed) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	if f.latest != nil {
		ch <- *f.latest
	}
	count := len(f.subs)
	f.mu.Unlock()
	f.reportSubscribers(count)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			close(ch)
			count := len(f.subs)
			f.mu.Unlock()
			f.reportSubscribers(count)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of open subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Feed) reportSubscribers(n int) {
	if f.onSubscribers != nil {
		f.onSubscribers(n)
	}
}

// offer must be called with the feed lock held, which makes the publisher the only sender.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- snap
}

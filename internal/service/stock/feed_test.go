package stock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

func TestFeedLatestWins(t *testing.T) {
	var counts []int
	feed := NewFeed(func(n int) { counts = append(counts, n) })

	ch, cancel := feed.Subscribe()
	for i := 0; i < 5; i++ {
		feed.Publish(make([]models.StockItem, i), time.Now())
	}

	snap := <-ch
	assert.Equal(t, uint64(5), snap.Seq)
	assert.Len(t, snap.Items, 4)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, []int{1, 0}, counts)
}

func TestFeedLateSubscriberGetsLatest(t *testing.T) {
	feed := NewFeed(nil)
	_, ok := feed.Latest()
	assert.False(t, ok)

	feed.Publish([]models.StockItem{{ID: "a"}}, time.Now())

	ch, cancel := feed.Subscribe()
	defer cancel()
	snap := <-ch
	assert.Equal(t, "a", snap.Items[0].ID)
}

func TestFeedConcurrentPublishAndCancel(t *testing.T) {
	feed := NewFeed(nil)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		ch, cancel := feed.Subscribe()
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range ch {
			}
		}()
		go func() {
			defer wg.Done()
			time.Sleep(time.Millisecond)
			cancel()
		}()
	}

	for i := 0; i < 200; i++ {
		feed.Publish(nil, time.Now())
	}
	wg.Wait()
	require.Equal(t, 0, feed.Subscribers())
}

package live

import (
	"sync"
	"testing"

	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_CallsInSubscriptionOrder(t *testing.T) {
	n := NewNotifier(logger.Noop())
	var order []string

	n.Subscribe(func(m string) { order = append(order, "a:"+m) })
	n.Subscribe(func(m string) { order = append(order, "b:"+m) })
	n.Subscribe(func(m string) { order = append(order, "c:"+m) })

	n.Publish(MetricCPU)

	assert.Equal(t, []string{"a:cpu_percent", "b:cpu_percent", "c:cpu_percent"}, order)
}

func TestNotifier_PanickingListenerIsIsolated(t *testing.T) {
	log := logger.NewBufferLogger()
	n := NewNotifier(log)
	var got []string

	n.Subscribe(func(string) { panic("boom") })
	n.Subscribe(func(m string) { got = append(got, m) })

	require.NotPanics(t, func() { n.Publish(MetricMemory) })

	assert.Equal(t, []string{MetricMemory}, got)
	assert.True(t, log.HasLevel("error"))
}

func TestNotifier_UnsubscribeStopsDelivery(t *testing.T) {
	n := NewNotifier(logger.Noop())
	calls := 0

	unsubscribe := n.Subscribe(func(string) { calls++ })
	n.Publish(MetricCPU)
	unsubscribe()
	n.Publish(MetricCPU)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, n.Len())
}

func TestNotifier_UnsubscribeIsIdempotent(t *testing.T) {
	n := NewNotifier(logger.Noop())

	unsubA := n.Subscribe(func(string) {})
	n.Subscribe(func(string) {})

	unsubA()
	unsubA()

	assert.Equal(t, 1, n.Len())
}

func TestNotifier_UnsubscribeDuringPublish(t *testing.T) {
	n := NewNotifier(logger.Noop())
	var unsubB func()
	var got []string

	n.Subscribe(func(m string) {
		got = append(got, "a")
		unsubB()
	})
	unsubB = n.Subscribe(func(string) { got = append(got, "b") })
	n.Subscribe(func(string) { got = append(got, "c") })

	n.Publish(MetricDisk)

	assert.Equal(t, []string{"a", "c"}, got, "b was removed before its turn")
	assert.Equal(t, 2, n.Len())
}

func TestNotifier_UnsubscribeFromAnotherGoroutine(t *testing.T) {
	n := NewNotifier(logger.Noop())
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	var mu sync.Mutex
	var got []string

	n.Subscribe(func(string) {
		entered <- struct{}{}
		<-release
	})
	unsubB := n.Subscribe(func(m string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, m)
	})

	published := make(chan struct{})
	go func() {
		n.Publish(MetricCPU)
		close(published)
	}()
	<-entered
	unsubB()
	close(release)
	<-published

	n.Publish(MetricMemory)

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, got, "b left before the publish reached it")
}

func TestNotifier_SubscribeDuringPublishWaitsForNextEvent(t *testing.T) {
	n := NewNotifier(logger.Noop())
	lateCalls := 0
	subscribed := false

	n.Subscribe(func(string) {
		if !subscribed {
			subscribed = true
			n.Subscribe(func(string) { lateCalls++ })
		}
	})

	n.Publish(MetricCPU)
	assert.Equal(t, 0, lateCalls)

	n.Publish(MetricCPU)
	assert.Equal(t, 1, lateCalls)
}

func TestNotifier_ConcurrentUse(t *testing.T) {
	n := NewNotifier(logger.Noop())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := n.Subscribe(func(string) {})
			unsub()
		}()
		go func() {
			defer wg.Done()
			n.Publish(MetricRequests)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, n.Len())
}

package live

import (
	"sync"
	"sync/atomic"

	"github.com/rileyhilliard/pulse/internal/logger"
)

// Listener receives the name of a metric that just gained a sample.
type Listener func(metric string)

type subscription struct {
	id       uint64
	listener Listener
	active   atomic.Bool
}

// Notifier fans "sample appended" events out to subscribers, synchronously
// and in subscription order.
type Notifier struct {
	mu     sync.Mutex
	nextID uint64
	subs   []*subscription
	log    logger.Logger
}

// NewNotifier creates a notifier. A nil logger uses logger.Default().
func NewNotifier(log logger.Logger) *Notifier {
	return &Notifier{log: logger.OrDefault(log)}
}

// Subscribe registers listener and returns an idempotent unsubscribe func.
// After unsubscribe returns no later Publish calls the listener. A Publish
// already in progress skips it only when unsubscribe ran on the publishing
// goroutine, for example from inside a listener. An unsubscribe from another
// goroutine may race one in-flight call.
func (n *Notifier) Subscribe(listener Listener) (unsubscribe func()) {
	sub := &subscription{listener: listener}
	sub.active.Store(true)

	n.mu.Lock()
	n.nextID++
	sub.id = n.nextID
	n.subs = append(n.subs, sub)
	n.mu.Unlock()

	return func() { n.remove(sub) }
}

func (n *Notifier) remove(sub *subscription) {
	if !sub.active.Swap(false) {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for i, s := range n.subs {
		if s == sub {
			// Copy rather than shift in place: Publish may be iterating
			// over a slice that shares this backing array.
			next := make([]*subscription, 0, len(n.subs)-1)
			next = append(next, n.subs[:i]...)
			n.subs = append(next, n.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of active subscribers.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Publish calls every subscriber with metric. A panicking listener is
// recovered and logged; the remaining listeners still run.
func (n *Notifier) Publish(metric string) {
	n.mu.Lock()
	subs := n.subs
	n.mu.Unlock()

	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		n.invoke(sub, metric)
	}
}

func (n *Notifier) invoke(sub *subscription, metric string) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error("listener %d panicked on %s: %v", sub.id, metric, r)
		}
	}()
	sub.listener(metric)
}

// Package sse pushes content change notifications to browsers over
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/rtfm/internal/models"
)

// Event types.
const (
	TypeDocChanged    = "doc.changed"
	TypeNavUpdated    = "nav.updated"
	TypeSyncCompleted = "sync.completed"
)

const heartbeatInterval = 30 * time.Second

// Event is one message broadcast to every client.
type Event struct {
	Type string
	Data any
}

// DocChange is the payload of a doc.changed event.
type DocChange struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// Broker fans events out to connected clients.
//
// A single event loop goroutine owns the client set and the nav throttle
// state; public methods talk to it over channels.
type Broker struct {
	navMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	docCh         chan DocChange
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker that emits at most one nav.updated per
// navThrottle. A change that lands inside the window is flushed when the
// window ends, so the last nav change is never lost.
func NewBroker(navThrottle time.Duration) *Broker {
	if navThrottle <= 0 {
		navThrottle = 2 * time.Second
	}

	b := &Broker{
		navMin:        navThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		docCh:         make(chan DocChange, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var (
		lastNav  time.Time
		navTimer *time.Timer
		navDue   <-chan time.Time
	)

	broadcast := func(event Event) {
		raw, err := encode(event)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// slow client; drop rather than block the loop
			}
		}
	}

	navUpdated := func() {
		lastNav = time.Now()
		broadcast(Event{Type: TypeNavUpdated, Data: struct{}{}})
	}

	for {
		select {
		case <-b.stopCh:
			if navTimer != nil {
				navTimer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case change := <-b.docCh:
			broadcast(Event{Type: TypeDocChanged, Data: change})

			if wait := b.navMin - time.Since(lastNav); wait <= 0 {
				navUpdated()
			} else if navDue == nil {
				navTimer = time.NewTimer(wait)
				navDue = navTimer.C
			}

		case <-navDue:
			navDue = nil
			navUpdated()

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

func encode(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), nil
}

// Close stops the event loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a new client.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish broadcasts event as is.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishDocChange broadcasts doc.changed and a throttled nav.updated.
// Its signature matches watcher.Callback.
func (b *Broker) PublishDocChange(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.docCh <- DocChange{Path: path, Kind: kind}:
	case <-b.stopped:
	}
}

// PublishSync announces a completed repository sync.
func (b *Broker) PublishSync(info models.CommitInfo) {
	b.Publish(Event{Type: TypeSyncCompleted, Data: info})
}

// ServeHTTP streams events to one client (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}

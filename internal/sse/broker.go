// Package sse implements Server-Sent Events: a broadcast broker for catalog
// updates and a single-response stream writer.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// EventCatalogUpdated announces that a new snapshot replaced the old one.
const EventCatalogUpdated = "catalog.updated"

// Event represents an SSE event.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Format renders an event in wire form.
func Format(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), nil
}

// CatalogUpdate is the payload of EventCatalogUpdated.
type CatalogUpdate struct {
	LastUpdated string `json:"lastUpdated"`
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns the client set and the catalog throttle
// state. Public methods talk to it through channels.
type Broker struct {
	catalogMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	catalogCh     chan CatalogUpdate
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker. Catalog updates closer together than
// catalogThrottle collapse into one trailing event carrying the latest payload.
func NewBroker(catalogThrottle time.Duration) *Broker {
	if catalogThrottle <= 0 {
		catalogThrottle = 2 * time.Second
	}
	b := &Broker{
		catalogMin:    catalogThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		catalogCh:     make(chan CatalogUpdate, 16),
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
		lastCatalog time.Time
		pending     *CatalogUpdate
		trailing    *time.Timer
		trailingC   <-chan time.Time
	)

	broadcast := func(event Event) {
		raw, err := Format(event)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than stall the loop.
			}
		}
	}
	sendCatalog := func(u CatalogUpdate) {
		lastCatalog = time.Now()
		broadcast(Event{Type: EventCatalogUpdated, Data: u})
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
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

		case u := <-b.catalogCh:
			wait := b.catalogMin - time.Since(lastCatalog)
			if wait <= 0 && pending == nil {
				sendCatalog(u)
				continue
			}
			pending = &u
			if trailing == nil {
				if wait <= 0 {
					wait = time.Millisecond
				}
				trailing = time.NewTimer(wait)
				trailingC = trailing.C
			}

		case <-trailingC:
			trailing, trailingC = nil, nil
			if pending != nil {
				sendCatalog(*pending)
				pending = nil
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
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

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishCatalog announces a new snapshot, throttled.
func (b *Broker) PublishCatalog(lastUpdated string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.catalogCh <- CatalogUpdate{LastUpdated: lastUpdated}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stream, err := NewStream(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := stream.WriteRaw(msg); err != nil {
				return
			}
		}
	}
}

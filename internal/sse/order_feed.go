package sse

import (
	"context"
	"sync"

	"ms-storefront/internal/models"
)

const clientBuffer = 10

// OrderFeed fans new orders out to admin dashboards. Subscribers either see
// every order or only orders for one event.
type OrderFeed struct {
	allClients     []chan models.OrderWithTickets
	allClientMutex sync.RWMutex

	eventClients     map[int64][]chan models.OrderWithTickets
	eventClientMutex sync.RWMutex
}

func NewOrderFeed() *OrderFeed {
	return &OrderFeed{eventClients: make(map[int64][]chan models.OrderWithTickets)}
}

// Subscribe registers a client until ctx is done. A nil eventID subscribes
// to all orders. The channel is closed on unsubscribe.
func (f *OrderFeed) Subscribe(ctx context.Context, eventID *int64) <-chan models.OrderWithTickets {
	ch := make(chan models.OrderWithTickets, clientBuffer)

	if eventID == nil {
		f.allClientMutex.Lock()
		f.allClients = append(f.allClients, ch)
		f.allClientMutex.Unlock()
		go func() {
			<-ctx.Done()
			f.removeAllClient(ch)
		}()
		return ch
	}

	id := *eventID
	f.eventClientMutex.Lock()
	f.eventClients[id] = append(f.eventClients[id], ch)
	f.eventClientMutex.Unlock()
	go func() {
		<-ctx.Done()
		f.removeEventClient(id, ch)
	}()
	return ch
}

// Publish never blocks; a client whose buffer is full misses the entry.
func (f *OrderFeed) Publish(entry models.OrderWithTickets) {
	f.allClientMutex.RLock()
	for _, ch := range f.allClients {
		select {
		case ch <- entry:
		default:
		}
	}
	f.allClientMutex.RUnlock()

	if entry.EventID == nil {
		return
	}
	f.eventClientMutex.RLock()
	for _, ch := range f.eventClients[*entry.EventID] {
		select {
		case ch <- entry:
		default:
		}
	}
	f.eventClientMutex.RUnlock()
}

func (f *OrderFeed) removeAllClient(ch chan models.OrderWithTickets) {
	f.allClientMutex.Lock()
	defer f.allClientMutex.Unlock()
	for i, c := range f.allClients {
		if c == ch {
			f.allClients = append(f.allClients[:i], f.allClients[i+1:]...)
			close(ch)
			return
		}
	}
}

func (f *OrderFeed) removeEventClient(eventID int64, ch chan models.OrderWithTickets) {
	f.eventClientMutex.Lock()
	defer f.eventClientMutex.Unlock()

	clients := f.eventClients[eventID]
	for i, c := range clients {
		if c == ch {
			f.eventClients[eventID] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}
	if len(f.eventClients[eventID]) == 0 {
		delete(f.eventClients, eventID)
	}
}

func (f *OrderFeed) ClientCount() int {
	f.allClientMutex.RLock()
	defer f.allClientMutex.RUnlock()
	return len(f.allClients)
}

func (f *OrderFeed) EventClientCount(eventID int64) int {
	f.eventClientMutex.RLock()
	defer f.eventClientMutex.RUnlock()
	return len(f.eventClients[eventID])
}

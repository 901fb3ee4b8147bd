package ws

import (
	"encoding/json"
	"sync"
)

// Event is a notification pushed to dashboard clients. Username is empty for
// channel-wide broadcasts; when set, only that user's connections receive it.
type Event struct {
	ID       string `json:"id"`
	Channel  string `json:"channel"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message"`
}

// Hub maintains the set of active clients keyed by notification channel
// (kitchen, bar, shisha, cashier, order, ...).
type Hub struct {
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan Event

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
	}
}

// Run starts the hub's main loop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.channel] == nil {
				h.rooms[client.channel] = make(map[*Client]bool)
			}
			h.rooms[client.channel][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.channel]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.channel)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.Channel]

			message, err := json.Marshal(event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				// Targeted events only reach the named user's connections.
				if event.Username != "" && client.username != event.Username {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister.
					close(client.send)
					delete(h.rooms[event.Channel], client)
					if len(h.rooms[event.Channel]) == 0 {
						delete(h.rooms, event.Channel)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for delivery to the channel's room. Callers fire
// it after their transaction commits.
func (h *Hub) Broadcast(event Event) {
	h.broadcast <- event
}

package ws

import (
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, channel, username string) *Client {
	return &Client{
		hub:      hub,
		channel:  channel,
		username: username,
		send:     make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, "kitchen", "chef")

	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms["kitchen"] == nil {
		t.Fatal("channel room not created")
	}
	if !hub.rooms["kitchen"][client] {
		t.Fatal("client not registered in channel room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, "bar", "barman")

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms["bar"] != nil {
		t.Fatal("channel room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	kitchenClient := mockClient(hub, "kitchen", "chef")
	barClient := mockClient(hub, "bar", "barman")

	hub.register <- kitchenClient
	hub.register <- barClient
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(Event{
		ID:      "evt-1",
		Channel: "kitchen",
		Message: "New order placed for kitchen",
	})

	select {
	case msg := <-kitchenClient.send:
		var event Event
		if err := json.Unmarshal(msg, &event); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if event.Message != "New order placed for kitchen" {
			t.Errorf("message: got %q", event.Message)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("kitchen client did not receive broadcast")
	}

	select {
	case msg := <-barClient.send:
		t.Fatalf("bar client should not receive kitchen broadcast, got %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTargetedEventOnlyReachesNamedUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	amaka := mockClient(hub, "order", "amaka")
	tunde := mockClient(hub, "order", "tunde")

	hub.register <- amaka
	hub.register <- tunde
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(Event{
		ID:       "evt-2",
		Channel:  "order",
		Username: "amaka",
		Message:  "Order ORD-1 at table T4 status has been updated to 'In Progress'",
	})

	select {
	case <-amaka.send:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("named user did not receive targeted event")
	}

	select {
	case msg := <-tunde.send:
		t.Fatalf("other user should not receive targeted event, got %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChannelBroadcastReachesAllUsers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c1 := mockClient(hub, "cashier", "ada")
	c2 := mockClient(hub, "cashier", "bola")

	hub.register <- c1
	hub.register <- c2
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(Event{
		ID:      "evt-3",
		Channel: "cashier",
		Message: "tunde just sent a new order to the cashier from table T4",
	})

	for _, c := range []*Client{c1, c2} {
		select {
		case <-c.send:
		case <-time.After(100 * time.Millisecond):
			t.Fatal("cashier client did not receive broadcast")
		}
	}
}

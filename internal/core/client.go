package core

// Client is a connected chat participant as seen by the core layer.
// Nick and RoomID are set by the hub on a successful join and are only
// touched from the hub goroutine.
type Client struct {
	ID     string
	Nick   string
	RoomID string
	Events chan *Event
}

// NewClient constructs a client with an initialized event channel.
func NewClient(id string) *Client {
	return &Client{
		ID:     id,
		Events: make(chan *Event, 32),
	}
}

// Send queues an event for delivery, dropping it if the client's buffer is
// full. Returns false when dropped.
func (c *Client) Send(event *Event) bool {
	select {
	case c.Events <- event:
		return true
	default:
		// Drop if slow consumer.
		return false
	}
}

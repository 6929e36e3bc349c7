package notify

import (
	"context"  // Dial and join deadlines
	"errors"   // Sentinel errors
	"net/http" // Dial headers
	"sync"     // Write serialization

	"github.com/goccy/go-json"     // Raw payloads
	"github.com/gorilla/websocket" // Websocket transport
)

// ErrJoinRejected is returned when the hub refuses the admin token
var ErrJoinRejected = errors.New("admin join rejected")

// Client is an admin-side connection to the hub. Every received frame is
// dispatched to the handlers subscribed to its event.
type Client struct {
	conn     *websocket.Conn
	registry *Registry
	writeMu  sync.Mutex
	done     chan struct{}
	err      error
}

// Dial connects to the hub at url and starts reading frames
func Dial(ctx context.Context, url string, header http.Header) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	c := &Client{conn: conn, registry: NewRegistry(), done: make(chan struct{})}
	go c.readLoop()
	return c, nil
}

// Subscribe registers h for event; see Registry.Subscribe
func (c *Client) Subscribe(event string, h Handler) func() {
	return c.registry.Subscribe(event, h)
}

// Join sends the admin token and waits for the hub's answer
func (c *Client) Join(ctx context.Context, token string) error {
	result := make(chan error, 1)
	offJoined := c.Subscribe(EventJoined, func(json.RawMessage) {
		select {
		case result <- nil:
		default:
		}
	})
	defer offJoined()
	offError := c.Subscribe(EventError, func(json.RawMessage) {
		select {
		case result <- ErrJoinRejected:
		default:
		}
	})
	defer offError()

	if err := c.send(Frame{Event: EventJoinAdmin, Token: token}); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-c.done:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the connection ends
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns why the connection ended, once Done is closed
func (c *Client) Err() error {
	select {
	case <-c.done:
		if c.err == nil {
			return ErrSessionClosed
		}
		return c.err
	default:
		return nil
	}
}

// Close ends the connection
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *Client) send(f Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.err = err
			return
		}
		f, err := decodeFrame(msg)
		if err != nil {
			continue
		}
		c.registry.Dispatch(f.Event, f.Data)
	}
}

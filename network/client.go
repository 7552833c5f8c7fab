package network

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/automoto/transformsync/shared/messages"
	"github.com/coder/websocket"
	"github.com/go-logr/logr"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
)

type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateError
)

func (s ClientState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrNotConnected is returned when sending without a live connection.
var ErrNotConnected = errors.New("not connected")

// Client is the observer's WebSocket connection to an authority server.
// Router callbacks run on necs goroutines, so they only push into bounded
// channels; the render tick drains them. All other shared fields are
// protected by mu.
type Client struct {
	mu sync.RWMutex

	state     ClientState
	lastError error
	conn      *websocket.Conn
	objects   []string // Bootstrap targets requested on connect; empty asks for all
	requested bool
	logger    logr.Logger

	snapshotCh  chan messages.TransformSnapshot
	bootstrapCh chan messages.BootstrapResponse
}

// NewClient creates a disconnected client. queueSize bounds the number of
// snapshots held between render ticks.
func NewClient(queueSize int, logger logr.Logger) *Client {
	return &Client{
		state:       StateDisconnected,
		logger:      logger.WithName("client"),
		snapshotCh:  make(chan messages.TransformSnapshot, queueSize),
		bootstrapCh: make(chan messages.BootstrapResponse, queueSize),
	}
}

// Connect dials the server in a background goroutine. Once connected it sends
// a single bootstrap request per listed object, or one request for every
// object when none are listed.
func (c *Client) Connect(address string, objects ...string) {
	c.mu.Lock()
	c.state = StateConnecting
	c.lastError = nil
	c.objects = objects
	c.requested = false
	c.mu.Unlock()

	router.OnConnect(func(_ *router.NetworkClient) {
		c.logger.Info("Connected to server", "address", address)
		c.mu.Lock()
		c.state = StateConnected
		c.mu.Unlock()
		c.maybeBootstrap()
	})

	router.On(func(_ *router.NetworkClient, msg messages.TransformSnapshot) {
		select {
		case c.snapshotCh <- msg:
		default:
			// The snapshot path is lossy; a full queue drops the newest arrival.
			recordDropped(msg.ObjectID)
		}
	})

	router.On(func(_ *router.NetworkClient, msg messages.BootstrapResponse) {
		select {
		case c.bootstrapCh <- msg:
		default:
			c.logger.Error(nil, "Bootstrap queue full, response lost", "object", msg.ObjectID)
		}
	})

	router.OnDisconnect(func(_ *router.NetworkClient, err error) {
		c.logger.Info("Disconnected", "reason", err)
		c.mu.Lock()
		if c.state != StateError {
			c.state = StateDisconnected
		}
		c.conn = nil
		c.mu.Unlock()
	})

	router.OnError(func(_ *router.NetworkClient, err error) {
		c.logger.Error(err, "Router error")
	})

	go func() {
		transport := transports.NewWsClientTransport("ws://" + address)
		err := transport.Start(func(conn *websocket.Conn) {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
			c.maybeBootstrap()
		})
		if err != nil {
			c.setError(fmt.Errorf("connection failed: %w", err))
		}
	}()
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.state = StateDisconnected
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.CloseNow()
	}

	router.ResetRouter()
}

func (c *Client) State() ClientState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// RequestBootstrap implements Requester.
func (c *Client) RequestBootstrap(req messages.BootstrapRequest) error {
	return c.SendMessage(req)
}

func (c *Client) SendMessage(msg any) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	payload, err := router.Serialize(msg)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	return conn.Write(context.Background(), websocket.MessageBinary, payload)
}

// maybeBootstrap sends the bootstrap requests once both the router has seen
// the connection and the transport has handed over the socket, whichever
// happens last.
func (c *Client) maybeBootstrap() {
	c.mu.Lock()
	if c.requested || c.conn == nil || c.state != StateConnected {
		c.mu.Unlock()
		return
	}
	c.requested = true
	targets := c.objects
	c.mu.Unlock()

	if len(targets) == 0 {
		targets = []string{""}
	}
	for _, id := range targets {
		if err := c.RequestBootstrap(messages.BootstrapRequest{ObjectID: id}); err != nil {
			c.setError(fmt.Errorf("failed to send bootstrap request: %w", err))
			return
		}
	}
}

func (c *Client) setError(err error) {
	c.logger.Error(err, "Client error")
	c.mu.Lock()
	c.state = StateError
	c.lastError = err
	c.mu.Unlock()
}

// DrainSnapshots returns all pending snapshots in arrival order, non-blocking.
func (c *Client) DrainSnapshots() []messages.TransformSnapshot {
	return drainChan(c.snapshotCh)
}

// DrainBootstraps returns all pending bootstrap responses, non-blocking.
func (c *Client) DrainBootstraps() []messages.BootstrapResponse {
	return drainChan(c.bootstrapCh)
}

func drainChan[T any](ch chan T) []T {
	var out []T
	for {
		select {
		case v := <-ch:
			out = append(out, v)
		default:
			return out
		}
	}
}

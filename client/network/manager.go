package network

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/olafr/tafl-client/client/events"
	"github.com/olafr/tafl-client/pkg/log"
	"github.com/olafr/tafl-client/pkg/messages"
)

const (
	// DefaultConnectTimeout bounds connection establishment.
	DefaultConnectTimeout = 5 * time.Second
	// DefaultAckTimeout bounds each request/ack call.
	DefaultAckTimeout = 20 * time.Second
)

// ChannelManager maintains one connection to the server's game channel
// and performs request/ack calls over it. Push notifications received
// on the channel are published on the event bus. Calls settle exactly
// once: acks arriving after a call has timed out are dropped.
type ChannelManager struct {
	serverAddr     string
	dialer         Dialer
	connectParams  messages.ConnectParams
	bus            *events.Bus
	connectTimeout time.Duration
	ackTimeout     time.Duration

	lock    sync.Mutex
	conn    Conn
	attempt *connectAttempt
	pending map[string]chan callResult
}

type connectAttempt struct {
	done chan struct{}
	err  error
}

type callResult struct {
	ack *messages.Ack
	err error
}

type NewChannelManagerOptions struct {
	ServerAddr    string
	Dialer        Dialer
	ConnectParams messages.ConnectParams
	Bus           *events.Bus
	// ConnectTimeout and AckTimeout default to the package constants
	// when zero.
	ConnectTimeout time.Duration
	AckTimeout     time.Duration
}

// NewChannelManager creates a new channel manager.
func NewChannelManager(opts NewChannelManagerOptions) *ChannelManager {
	connectTimeout := opts.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = DefaultConnectTimeout
	}
	ackTimeout := opts.AckTimeout
	if ackTimeout == 0 {
		ackTimeout = DefaultAckTimeout
	}
	return &ChannelManager{
		serverAddr:     opts.ServerAddr,
		dialer:         opts.Dialer,
		connectParams:  opts.ConnectParams,
		bus:            opts.Bus,
		connectTimeout: connectTimeout,
		ackTimeout:     ackTimeout,
		pending:        make(map[string]chan callResult),
	}
}

// Events returns the bus carrying the channel's push notifications.
func (m *ChannelManager) Events() *events.Bus {
	return m.bus
}

// EnsureConnected returns immediately if the channel is connected.
// Otherwise it initiates (or joins) a connection attempt and waits for
// it, bounded by the connect timer. Whichever of attempt outcome and
// timer happens first is honored.
func (m *ChannelManager) EnsureConnected(ctx context.Context) error {
	m.lock.Lock()
	if m.conn != nil {
		m.lock.Unlock()
		return nil
	}
	attempt := m.attempt
	if attempt == nil {
		attempt = &connectAttempt{done: make(chan struct{})}
		m.attempt = attempt
		go m.connect(attempt)
	}
	m.lock.Unlock()

	select {
	case <-attempt.done:
		return attempt.err
	case <-time.After(m.connectTimeout):
		return &ErrConnectTimeout{}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *ChannelManager) connect(attempt *connectAttempt) {
	log.Info("Connecting to game channel at %s", m.serverAddr)
	conn, err := m.dialer.Dial(context.Background(), m.serverAddr)
	if err == nil {
		err = m.sendHello(conn)
		if err != nil {
			conn.Close()
		}
	}

	m.lock.Lock()
	if err == nil {
		m.conn = conn
		go m.readLoop(conn)
	}
	m.attempt = nil
	m.lock.Unlock()

	attempt.err = err
	close(attempt.done)
}

func (m *ChannelManager) sendHello(conn Conn) error {
	payload, err := json.Marshal(m.connectParams)
	if err != nil {
		return fmt.Errorf("failed to marshal connect params: %v", err)
	}
	return conn.Send(&messages.Message{
		Event:   messages.EventConnect,
		Payload: payload,
	})
}

// Call performs a request/ack exchange. It first awaits connection
// establishment, then sends the request tagged with a per-call ID and
// waits for the correlated ack or the ack timer, whichever is first.
// No retries are performed.
func (m *ChannelManager) Call(ctx context.Context, event string, payload interface{}, out interface{}) error {
	if err := m.EnsureConnected(ctx); err != nil {
		return &ErrNotConnected{Reason: err}
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %v", event, err)
	}

	id := uuid.NewString()
	resultChan := make(chan callResult, 1)

	m.lock.Lock()
	conn := m.conn
	if conn == nil {
		m.lock.Unlock()
		return &ErrNotConnected{Reason: fmt.Errorf("connection lost")}
	}
	m.pending[id] = resultChan
	m.lock.Unlock()

	msg := &messages.Message{
		ID:      id,
		Event:   event,
		Payload: b,
	}
	if err := conn.Send(msg); err != nil {
		m.unregister(id)
		return &ErrNotConnected{Reason: err}
	}

	select {
	case result := <-resultChan:
		if result.err != nil {
			return &ErrNotConnected{Reason: result.err}
		}
		return m.settle(event, result.ack, out)
	case <-time.After(m.ackTimeout):
		m.unregister(id)
		return &ErrAckTimeout{Event: event}
	case <-ctx.Done():
		m.unregister(id)
		return ctx.Err()
	}
}

func (m *ChannelManager) settle(event string, ack *messages.Ack, out interface{}) error {
	if !ack.OK {
		return &ErrServerRejected{Reason: ack.Error}
	}
	if out != nil {
		if err := json.Unmarshal(ack.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal %s ack data: %v", event, err)
		}
	}
	return nil
}

func (m *ChannelManager) unregister(id string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.pending, id)
}

func (m *ChannelManager) readLoop(conn Conn) {
	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			m.teardown(conn, err)
			return
		}

		switch msg.Event {
		case messages.EventAck:
			ack, err := messages.ParseAck(msg)
			if err != nil {
				log.Error("Failed to parse ack: %v", err)
				continue
			}
			m.routeAck(ack)
		default:
			log.Trace("Received push notification %s", msg.Event)
			m.bus.Publish(msg.Event, msg.Payload)
		}
	}
}

func (m *ChannelManager) routeAck(ack *messages.Ack) {
	m.lock.Lock()
	resultChan, ok := m.pending[ack.ID]
	if ok {
		delete(m.pending, ack.ID)
	}
	m.lock.Unlock()

	if !ok {
		// The call already settled, typically by timing out.
		log.Debug("Dropping late ack for call %s", ack.ID)
		return
	}
	resultChan <- callResult{ack: ack}
}

// teardown clears the connection and fails all in-flight calls so the
// next EnsureConnected re-dials.
func (m *ChannelManager) teardown(conn Conn, err error) {
	log.Warn("Game channel connection lost: %v", err)
	conn.Close()

	m.lock.Lock()
	if m.conn == conn {
		m.conn = nil
	}
	pending := m.pending
	m.pending = make(map[string]chan callResult)
	m.lock.Unlock()

	for _, resultChan := range pending {
		resultChan <- callResult{err: err}
	}
}

// Close closes the channel connection if one is established.
func (m *ChannelManager) Close() error {
	m.lock.Lock()
	conn := m.conn
	m.conn = nil
	m.lock.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

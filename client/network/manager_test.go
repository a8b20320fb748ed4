package network

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/olafr/tafl-client/client/events"
	"github.com/olafr/tafl-client/pkg/messages"
	"github.com/olafr/tafl-client/pkg/tafl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	incoming  chan *messages.Message
	sentCh    chan *messages.Message
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan *messages.Message, 16),
		sentCh:   make(chan *messages.Message, 16),
		closed:   make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (*messages.Message, error) {
	select {
	case msg := <-c.incoming:
		return msg, nil
	case <-c.closed:
		return nil, fmt.Errorf("connection closed")
	}
}

func (c *fakeConn) Send(msg *messages.Message) error {
	select {
	case <-c.closed:
		return fmt.Errorf("connection closed")
	default:
	}
	c.sentCh <- msg
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// nextRequest returns the next sent message that is not the connect
// hello.
func (c *fakeConn) nextRequest(t *testing.T) *messages.Message {
	t.Helper()
	for {
		select {
		case msg := <-c.sentCh:
			if msg.Event == messages.EventConnect {
				continue
			}
			return msg
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for a request")
		}
	}
}

func (c *fakeConn) deliverAck(t *testing.T, ack *messages.Ack) {
	t.Helper()
	payload, err := json.Marshal(ack)
	require.NoError(t, err)
	c.incoming <- &messages.Message{Event: messages.EventAck, Payload: payload}
}

type fakeDialer struct {
	conn  *fakeConn
	err   error
	delay time.Duration

	lock  sync.Mutex
	dials int
}

func (d *fakeDialer) Dial(ctx context.Context, serverAddr string) (Conn, error) {
	d.lock.Lock()
	d.dials++
	d.lock.Unlock()
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.dials
}

func newTestManager(dialer Dialer, ackTimeout time.Duration) *ChannelManager {
	return NewChannelManager(NewChannelManagerOptions{
		ServerAddr:     "ws://test/channel/game",
		Dialer:         dialer,
		ConnectParams:  messages.ConnectParams{ClientSessionID: "session-1"},
		Bus:            events.NewBus(),
		ConnectTimeout: 100 * time.Millisecond,
		AckTimeout:     ackTimeout,
	})
}

func TestChannelManager_EnsureConnectedIsIdempotent(t *testing.T) {
	dialer := &fakeDialer{conn: newFakeConn()}
	manager := newTestManager(dialer, time.Second)

	require.NoError(t, manager.EnsureConnected(context.Background()))
	require.NoError(t, manager.EnsureConnected(context.Background()))
	assert.Equal(t, 1, dialer.dialCount())
}

func TestChannelManager_EnsureConnectedTimeout(t *testing.T) {
	dialer := &fakeDialer{conn: newFakeConn(), delay: 500 * time.Millisecond}
	manager := newTestManager(dialer, time.Second)

	err := manager.EnsureConnected(context.Background())
	assert.IsType(t, &ErrConnectTimeout{}, err)
}

func TestChannelManager_CallBeforeConnectFails(t *testing.T) {
	dialer := &fakeDialer{err: fmt.Errorf("connection refused")}
	manager := newTestManager(dialer, time.Second)

	err := manager.Call(context.Background(), messages.EventJoin, &messages.JoinRequest{GameID: "game-1"}, nil)
	notConnected := &ErrNotConnected{}
	require.ErrorAs(t, err, &notConnected)
	assert.ErrorContains(t, notConnected.Reason, "connection refused")
}

func TestChannelManager_CallResolvesWithAckData(t *testing.T) {
	conn := newFakeConn()
	manager := newTestManager(&fakeDialer{conn: conn}, time.Second)

	go func() {
		req := conn.nextRequest(t)
		data, _ := json.Marshal(&tafl.GameSnapshot{ID: "game-1", Version: 3})
		conn.deliverAck(t, &messages.Ack{ID: req.ID, OK: true, Data: data})
	}()

	snapshot := &tafl.GameSnapshot{}
	err := manager.Call(context.Background(), messages.EventJoin, &messages.JoinRequest{GameID: "game-1"}, snapshot)
	require.NoError(t, err)
	assert.Equal(t, "game-1", snapshot.ID)
	assert.Equal(t, uint64(3), snapshot.Version)
}

func TestChannelManager_CallFailsOnRejection(t *testing.T) {
	conn := newFakeConn()
	manager := newTestManager(&fakeDialer{conn: conn}, time.Second)

	go func() {
		req := conn.nextRequest(t)
		conn.deliverAck(t, &messages.Ack{ID: req.ID, OK: false, Error: "illegal_move"})
	}()

	err := manager.Call(context.Background(), messages.EventMovePlay, &messages.PlayMoveRequest{GameID: "game-1"}, nil)
	rejected := &ErrServerRejected{}
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "illegal_move", rejected.Reason)
}

func TestChannelManager_LateAckIsDropped(t *testing.T) {
	conn := newFakeConn()
	manager := newTestManager(&fakeDialer{conn: conn}, 50*time.Millisecond)

	err := manager.Call(context.Background(), messages.EventMovePlay, &messages.PlayMoveRequest{GameID: "game-1"}, nil)
	ackTimeout := &ErrAckTimeout{}
	require.ErrorAs(t, err, &ackTimeout)
	assert.Equal(t, messages.EventMovePlay, ackTimeout.Event)

	// The ack arriving after settlement is discarded, and the pending
	// table holds nothing for it.
	req := conn.nextRequest(t)
	conn.deliverAck(t, &messages.Ack{ID: req.ID, OK: true})
	assert.Eventually(t, func() bool {
		manager.lock.Lock()
		defer manager.lock.Unlock()
		return len(manager.pending) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestChannelManager_PushesReachTheBus(t *testing.T) {
	conn := newFakeConn()
	manager := newTestManager(&fakeDialer{conn: conn}, time.Second)

	received := make(chan json.RawMessage, 1)
	manager.Events().Subscribe(messages.EventTurnNote, func(payload json.RawMessage) {
		received <- payload
	})

	require.NoError(t, manager.EnsureConnected(context.Background()))
	payload, _ := json.Marshal(&messages.TurnNote{Message: "shieldwall broken"})
	conn.incoming <- &messages.Message{Event: messages.EventTurnNote, Payload: payload}

	select {
	case got := <-received:
		assert.JSONEq(t, string(payload), string(got))
	case <-time.After(time.Second):
		t.Fatal("push notification never reached the bus")
	}
}

func TestChannelManager_ConnectionLossFailsInFlightCalls(t *testing.T) {
	conn := newFakeConn()
	manager := newTestManager(&fakeDialer{conn: conn}, time.Second)

	go func() {
		conn.nextRequest(t)
		conn.Close()
	}()

	err := manager.Call(context.Background(), messages.EventJoin, &messages.JoinRequest{GameID: "game-1"}, nil)
	notConnected := &ErrNotConnected{}
	assert.ErrorAs(t, err, &notConnected)
}

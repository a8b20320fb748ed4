package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/olafr/tafl-client/pkg/messages"
)

// Conn is a message-oriented connection to the game channel.
type Conn interface {
	// ReadMessage blocks until the next message arrives.
	ReadMessage() (*messages.Message, error)
	// Send writes a message to the channel.
	Send(msg *messages.Message) error
	// Close closes the connection.
	Close() error
}

// Dialer establishes connections to the game channel.
type Dialer interface {
	Dial(ctx context.Context, serverAddr string) (Conn, error)
}

// WSDialer dials the game channel over WebSocket.
type WSDialer struct{}

func NewWSDialer() *WSDialer {
	return &WSDialer{}
}

func (d *WSDialer) Dial(ctx context.Context, serverAddr string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, serverAddr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %v", err)
	}
	return &WSConn{conn: conn}, nil
}

// WSConn wraps a WebSocket connection in the channel codec.
type WSConn struct {
	conn      *websocket.Conn
	writeLock sync.Mutex
}

func (c *WSConn) ReadMessage() (*messages.Message, error) {
	_, b, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	msg, err := messages.DeserializeMessage(b)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}
	return msg, nil
}

func (c *WSConn) Send(msg *messages.Message) error {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	// gorilla/websocket does not allow concurrent writers.
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	if err := c.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}
	return nil
}

func (c *WSConn) Close() error {
	return c.conn.Close()
}

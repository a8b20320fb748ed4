package network

import "fmt"

// ErrConnectTimeout is returned when connection establishment does not
// settle before the connect timer elapses.
type ErrConnectTimeout struct{}

func (e *ErrConnectTimeout) Error() string {
	return "timed out waiting for connection"
}

// ErrNotConnected is returned when a call cannot be made because the
// channel could not be established. Reason carries the underlying
// connection error.
type ErrNotConnected struct {
	Reason error
}

func (e *ErrNotConnected) Error() string {
	return fmt.Sprintf("not connected: %v", e.Reason)
}

// ErrAckTimeout is returned when a call's ack timer elapses before the
// server acknowledges the request.
type ErrAckTimeout struct {
	Event string
}

func (e *ErrAckTimeout) Error() string {
	return fmt.Sprintf("timed out waiting for ack: %s", e.Event)
}

// ErrServerRejected is returned when the server acknowledges a request
// with a failure envelope.
type ErrServerRejected struct {
	Reason string
}

func (e *ErrServerRejected) Error() string {
	return fmt.Sprintf("server rejected request: %s", e.Reason)
}

package messages

import (
	"encoding/json"
	"testing"

	"github.com/olafr/tafl-client/pkg/tafl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeMessage(t *testing.T) {
	payload, err := json.Marshal(&PlayMoveRequest{
		GameID: "game-1",
		From:   tafl.Square{Row: 3, Col: 4},
		To:     tafl.Square{Row: 4, Col: 4},
	})
	require.NoError(t, err)

	msg := &Message{
		ID:      "call-1",
		Event:   EventMovePlay,
		Payload: payload,
	}

	b, err := SerializeMessage(msg)
	require.NoError(t, err)

	got, err := DeserializeMessage(b)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, msg.Event, got.Event)
	assert.JSONEq(t, string(msg.Payload), string(got.Payload))
}

func TestParseAck(t *testing.T) {
	payload, err := json.Marshal(&Ack{ID: "call-1", OK: false, Error: "illegal_move"})
	require.NoError(t, err)

	ack, err := ParseAck(&Message{Event: EventAck, Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, "call-1", ack.ID)
	assert.False(t, ack.OK)
	assert.Equal(t, "illegal_move", ack.Error)

	_, err = ParseAck(&Message{Event: EventState})
	assert.Error(t, err)
}

package messages

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// SerializeMessage encodes a message as zstd-compressed JSON for the
// wire.
func SerializeMessage(m *Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %v", err)
	}
	return compress(b)
}

// DeserializeMessage decodes a wire frame produced by SerializeMessage.
func DeserializeMessage(data []byte) (*Message, error) {
	b, err := decompress(data)
	if err != nil {
		return nil, err
	}
	message := &Message{}
	if err := json.Unmarshal(b, message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %v", err)
	}
	return message, nil
}

// ParseAck unpacks the ack envelope carried by an EventAck message.
func ParseAck(m *Message) (*Ack, error) {
	if m.Event != EventAck {
		return nil, fmt.Errorf("message is not an ack: %s", m.Event)
	}
	ack := &Ack{}
	if err := json.Unmarshal(m.Payload, ack); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ack: %v", err)
	}
	return ack, nil
}

func compress(b []byte) ([]byte, error) {
	compressed := bytes.NewBuffer(nil)
	compWriter, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	if _, err := compWriter.Write(b); err != nil {
		return nil, fmt.Errorf("failed to compress frame: %v", err)
	}
	if err := compWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %v", err)
	}
	return compressed.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	compReader, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer compReader.Close()
	b, err := io.ReadAll(compReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read decompressed frame: %v", err)
	}
	return b, nil
}

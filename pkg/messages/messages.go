package messages

import (
	"encoding/json"

	"github.com/olafr/tafl-client/pkg/tafl"
)

// Request/ack events (client -> server, single correlated response).
const (
	EventConnect        = "connect"
	EventJoin           = "join"
	EventGameNew        = "game:new"
	EventGameChangeDiff = "game:change:diff"
	EventMovePlay       = "move:play"
)

// EventAck carries the response envelope for a request/ack event.
const EventAck = "ack"

// Push events (server -> client, no response expected).
const (
	EventState       = "state"
	EventMoveResult  = "move:result"
	EventTurnNote    = "turn:note"
	EventBotThinking = "bot:thinking"
	EventGameOver    = "game:over"
)

// Message is the generic envelope for everything sent over the game
// channel. ID correlates a request with its ack and is empty on pushes.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Ack is the response envelope for a request/ack event.
type Ack struct {
	ID    string          `json:"id"`
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// ConnectParams authenticates the channel at connect time. Everything
// besides ClientSessionID is opaque passthrough for the server.
type ConnectParams struct {
	ClientSessionID string `json:"clientSessionId"`
	Platform        string `json:"platform"`
	Language        string `json:"language"`
	ScreenWidth     int    `json:"screenWidth"`
	ScreenHeight    int    `json:"screenHeight"`
	ColorDepth      int    `json:"colorDepth"`
	Timezone        string `json:"timezone"`
}

type JoinRequest struct {
	GameID string `json:"gameId"`
}

type NewGameRequest struct {
	GameID     string          `json:"gameId,omitempty"`
	HumanSide  tafl.Side       `json:"humanSide"`
	Difficulty tafl.Difficulty `json:"difficulty"`
}

type ChangeDifficultyRequest struct {
	GameID     string          `json:"gameId"`
	Difficulty tafl.Difficulty `json:"difficulty"`
}

type PlayMoveRequest struct {
	GameID string      `json:"gameId"`
	From   tafl.Square `json:"from"`
	To     tafl.Square `json:"to"`
}

// MoveResult describes a move that was just applied to the game.
type MoveResult struct {
	Side     tafl.Side     `json:"side"`
	From     tafl.Square   `json:"from"`
	To       tafl.Square   `json:"to"`
	Captures []tafl.Square `json:"captures,omitempty"`
}

type TurnNote struct {
	Message string `json:"message"`
}

type BotThinking struct {
	Active bool `json:"active"`
}

type GameOver struct {
	WinnerSide tafl.Side `json:"winnerSide"`
}

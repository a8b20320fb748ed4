package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/olafr/tafl-client/client/events"
	"github.com/olafr/tafl-client/client/identity"
	"github.com/olafr/tafl-client/pkg/log"
	"github.com/olafr/tafl-client/pkg/messages"
	"github.com/olafr/tafl-client/pkg/tafl"
)

// Channel performs request/ack calls over the game channel.
type Channel interface {
	Call(ctx context.Context, event string, payload interface{}, out interface{}) error
}

// EventSource exposes the channel's push notifications.
type EventSource interface {
	Subscribe(event string, handler events.Handler) *events.Subscription
}

// Controller owns the canonical game snapshot and every piece of state
// derived from it: the move log, the selection, the loading/submitting
// flags and the pending-bot-opening coordination flag. Snapshots are
// accepted only from state pushes and resolved calls, and are swapped
// in wholesale. No other component mutates this state.
type Controller struct {
	channel Channel
	locator identity.Locator
	store   identity.Store

	lock              sync.Mutex
	snapshot          *tafl.GameSnapshot
	selectedOrigin    *tafl.Square
	logEntries        []string
	errorMessage      string
	resultMessage     string
	loading           bool
	submitting        bool
	pendingBotOpening bool
	setupPromptOpen   bool

	subs []*events.Subscription
}

// Flags are the ephemeral request-lifecycle booleans derived by the
// controller.
type Flags struct {
	Loading           bool
	Submitting        bool
	PendingBotOpening bool
}

type NewControllerOptions struct {
	Channel Channel
	Events  EventSource
	Locator identity.Locator
	Store   identity.Store
}

// NewController creates a controller and subscribes it to the game
// channel's push notifications.
func NewController(opts NewControllerOptions) *Controller {
	c := &Controller{
		channel: opts.Channel,
		locator: opts.Locator,
		store:   opts.Store,
	}
	c.subs = []*events.Subscription{
		opts.Events.Subscribe(messages.EventState, c.handleState),
		opts.Events.Subscribe(messages.EventMoveResult, c.handleMoveResult),
		opts.Events.Subscribe(messages.EventTurnNote, c.handleTurnNote),
		opts.Events.Subscribe(messages.EventBotThinking, c.handleBotThinking),
		opts.Events.Subscribe(messages.EventGameOver, c.handleGameOver),
	}
	return c
}

// Close cancels the controller's push subscriptions.
func (c *Controller) Close() {
	for _, sub := range c.subs {
		sub.Cancel()
	}
}

// Bootstrap resolves the game to resume and joins it. Without a known
// game identifier it opens the setup prompt instead.
func (c *Controller) Bootstrap(ctx context.Context) error {
	id, ok := identity.ResolveGameID(c.locator, c.store)
	if !ok {
		c.lock.Lock()
		c.setupPromptOpen = true
		c.lock.Unlock()
		log.Info("No game to resume, opening setup")
		return nil
	}
	log.Info("Resuming game %s", id)
	return c.Join(ctx, id)
}

// Join re-joins a known game by identifier.
func (c *Controller) Join(ctx context.Context, gameID string) error {
	c.lock.Lock()
	c.loading = true
	c.errorMessage = ""
	c.lock.Unlock()

	snapshot := &tafl.GameSnapshot{}
	req := &messages.JoinRequest{GameID: gameID}
	if err := c.channel.Call(ctx, messages.EventJoin, req, snapshot); err != nil {
		c.fail(err)
		return err
	}
	c.acceptSnapshot(snapshot)
	return nil
}

// NewGame requests a fresh game. When the non-human side moves first
// the pending-bot-opening flag goes up before the request is even
// sent, covering the window until the bot's opening move is observed.
func (c *Controller) NewGame(ctx context.Context, humanSide tafl.Side, difficulty tafl.Difficulty) error {
	// Attackers always have the first move.
	botOpens := humanSide != tafl.SideAttackers

	c.lock.Lock()
	c.loading = true
	c.submitting = true
	c.pendingBotOpening = botOpens
	c.errorMessage = ""
	gameID := ""
	if c.snapshot != nil {
		gameID = c.snapshot.ID
	}
	c.lock.Unlock()

	snapshot := &tafl.GameSnapshot{}
	req := &messages.NewGameRequest{
		GameID:     gameID,
		HumanSide:  humanSide,
		Difficulty: difficulty,
	}
	if err := c.channel.Call(ctx, messages.EventGameNew, req, snapshot); err != nil {
		c.lock.Lock()
		c.pendingBotOpening = false
		c.setupPromptOpen = true
		c.lock.Unlock()
		c.fail(err)
		return err
	}
	c.acceptSnapshot(snapshot)
	return nil
}

// ChangeDifficulty changes the bot difficulty of the current game.
func (c *Controller) ChangeDifficulty(ctx context.Context, difficulty tafl.Difficulty) error {
	c.lock.Lock()
	if c.snapshot == nil {
		c.lock.Unlock()
		return nil
	}
	gameID := c.snapshot.ID
	c.submitting = true
	c.errorMessage = ""
	c.lock.Unlock()

	snapshot := &tafl.GameSnapshot{}
	req := &messages.ChangeDifficultyRequest{GameID: gameID, Difficulty: difficulty}
	if err := c.channel.Call(ctx, messages.EventGameChangeDiff, req, snapshot); err != nil {
		c.fail(err)
		return err
	}
	c.acceptSnapshot(snapshot)
	return nil
}

func (c *Controller) playMove(ctx context.Context, gameID string, from, to tafl.Square) error {
	snapshot := &tafl.GameSnapshot{}
	req := &messages.PlayMoveRequest{GameID: gameID, From: from, To: to}
	if err := c.channel.Call(ctx, messages.EventMovePlay, req, snapshot); err != nil {
		c.fail(err)
		return err
	}
	c.acceptSnapshot(snapshot)
	return nil
}

// acceptSnapshot swaps in a new canonical snapshot and rederives the
// dependent state.
func (c *Controller) acceptSnapshot(snapshot *tafl.GameSnapshot) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.snapshot != nil && c.snapshot.ID == snapshot.ID && snapshot.Version < c.snapshot.Version {
		log.Debug("Ignoring stale snapshot for game %s (version %d < %d)",
			snapshot.ID, snapshot.Version, c.snapshot.Version)
		return
	}

	gameChanged := c.snapshot == nil || c.snapshot.ID != snapshot.ID
	c.snapshot = snapshot

	if gameChanged {
		log.Info("Switched to game %s", snapshot.ID)
		c.rebuildLog(snapshot)
		c.resultMessage = ""
	}

	// Snapshot arrival is itself evidence the in-flight action
	// completed, unless we are still waiting for the bot's opening
	// move. Only the failure text resets here: the final outcome
	// announced by the game-over push stays up until the next game.
	c.errorMessage = ""
	c.selectedOrigin = nil
	c.setupPromptOpen = false
	c.locator.SetActiveGame(snapshot.ID)
	c.store.SetActiveGame(snapshot.ID)

	if c.pendingBotOpening {
		if botOpeningVisible(snapshot) {
			c.pendingBotOpening = false
			c.loading = false
			c.submitting = false
		}
	} else {
		c.loading = false
		c.submitting = false
	}
}

// botOpeningVisible reports whether the snapshot's history already
// shows the bot's opening move for a bot-opens game.
func botOpeningVisible(snapshot *tafl.GameSnapshot) bool {
	return snapshot.HumanSide == tafl.SideDefenders && len(snapshot.History) > 0
}

// fail translates a failed call into user-facing state. Every failure
// path clears the request flags so the UI can never stay blocked.
func (c *Controller) fail(err error) {
	log.Error("Request failed: %v", err)
	c.lock.Lock()
	defer c.lock.Unlock()
	c.errorMessage = failureText(err)
	c.loading = false
	c.submitting = false
}

func (c *Controller) handleState(payload json.RawMessage) {
	snapshot := &tafl.GameSnapshot{}
	if err := json.Unmarshal(payload, snapshot); err != nil {
		log.Error("Failed to unmarshal state push: %v", err)
		return
	}
	if snapshot.ID == "" || !snapshot.HumanSide.Valid() {
		log.Warn("Ignoring state push outside the known schema")
		return
	}
	c.acceptSnapshot(snapshot)
}

func (c *Controller) handleMoveResult(payload json.RawMessage) {
	result := &messages.MoveResult{}
	if err := json.Unmarshal(payload, result); err != nil {
		log.Error("Failed to unmarshal move result push: %v", err)
		return
	}
	if !result.Side.Valid() {
		log.Warn("Ignoring move result with unknown side %q", result.Side)
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.appendLog(formatMove(result.Side, result.From, result.To, len(result.Captures)))
}

func (c *Controller) handleTurnNote(payload json.RawMessage) {
	note := &messages.TurnNote{}
	if err := json.Unmarshal(payload, note); err != nil {
		log.Error("Failed to unmarshal turn note push: %v", err)
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.appendLog(note.Message)
}

func (c *Controller) handleGameOver(payload json.RawMessage) {
	over := &messages.GameOver{}
	if err := json.Unmarshal(payload, over); err != nil {
		log.Error("Failed to unmarshal game over push: %v", err)
		return
	}
	if !over.WinnerSide.Valid() {
		log.Warn("Ignoring game over with unknown side %q", over.WinnerSide)
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.appendLog(formatVictory(over.WinnerSide))
	c.resultMessage = victoryText(over.WinnerSide)
}

// handleBotThinking mirrors the thinking indicator onto the loading
// flag while the bot's opening move is pending, and treats the
// active-to-inactive transition as the opening having completed.
func (c *Controller) handleBotThinking(payload json.RawMessage) {
	thinking := &messages.BotThinking{}
	if err := json.Unmarshal(payload, thinking); err != nil {
		log.Error("Failed to unmarshal bot thinking push: %v", err)
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.pendingBotOpening {
		return
	}
	c.loading = thinking.Active
	if !thinking.Active {
		c.pendingBotOpening = false
		c.submitting = false
	}
}

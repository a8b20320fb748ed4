package session

import "github.com/olafr/tafl-client/pkg/tafl"

// Snapshot returns a copy of the canonical snapshot, or nil before the
// first one is accepted.
func (c *Controller) Snapshot() *tafl.GameSnapshot {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.snapshot == nil {
		return nil
	}
	return c.snapshot.Copy()
}

// GameID returns the identifier of the current game, if any.
func (c *Controller) GameID() (string, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.snapshot == nil {
		return "", false
	}
	return c.snapshot.ID, true
}

// Flags returns the current request-lifecycle flags.
func (c *Controller) Flags() Flags {
	c.lock.Lock()
	defer c.lock.Unlock()
	return Flags{
		Loading:           c.loading,
		Submitting:        c.submitting,
		PendingBotOpening: c.pendingBotOpening,
	}
}

// Selection returns the selected origin square and the legal
// destinations for it. The destination set is empty whenever nothing
// is selected.
func (c *Controller) Selection() (*tafl.Square, []tafl.Square) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.selectedOrigin == nil || c.snapshot == nil {
		return nil, nil
	}
	origin := *c.selectedOrigin
	var destinations []tafl.Square
	for _, m := range c.snapshot.MovesFrom(origin) {
		destinations = append(destinations, m.To)
	}
	return &origin, destinations
}

// LogEntries returns the formatted move log, newest first.
func (c *Controller) LogEntries() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]string(nil), c.logEntries...)
}

// UserMessage returns the current user-facing message. A transient
// failure takes precedence over the announced game outcome, which
// stays visible until the next game starts.
func (c *Controller) UserMessage() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.errorMessage != "" {
		return c.errorMessage
	}
	return c.resultMessage
}

// SetupPromptOpen reports whether the new-game setup prompt should be
// shown.
func (c *Controller) SetupPromptOpen() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.setupPromptOpen
}

package session

import (
	"fmt"
	"time"

	"github.com/olafr/tafl-client/pkg/tafl"
)

// maxLogEntries caps the move log at the most recent entries.
const maxLogEntries = 40

// timeNow is swapped out in tests.
var timeNow = time.Now

// appendLog prepends one formatted entry, newest first. Callers must
// hold the controller lock.
func (c *Controller) appendLog(line string) {
	entry := fmt.Sprintf("%s  %s", timeNow().Format("15:04:05"), line)
	c.logEntries = append([]string{entry}, c.logEntries...)
	if len(c.logEntries) > maxLogEntries {
		c.logEntries = c.logEntries[:maxLogEntries]
	}
}

// rebuildLog replaces the log wholesale from a snapshot's move
// history. Callers must hold the controller lock.
func (c *Controller) rebuildLog(snapshot *tafl.GameSnapshot) {
	c.logEntries = nil
	for _, record := range snapshot.History {
		c.appendLog(formatMove(record.Side, record.From, record.To, len(record.Captures)))
	}
}

func formatMove(side tafl.Side, from, to tafl.Square, captures int) string {
	line := fmt.Sprintf("%s %s to %s", sideLabel(side), from, to)
	if captures > 0 {
		line += fmt.Sprintf(", capturing %d", captures)
	}
	return line
}

func formatVictory(winner tafl.Side) string {
	return fmt.Sprintf("%s win the game", sideLabel(winner))
}

func sideLabel(side tafl.Side) string {
	if side == tafl.SideAttackers {
		return "Attackers"
	}
	return "Defenders"
}

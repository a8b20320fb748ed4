package session

import (
	"context"

	"github.com/olafr/tafl-client/pkg/tafl"
)

// HandleCellClick interprets one board-cell click against the
// canonical state. It is a strict two-click model: the first click
// selects an own, movable piece; the second either plays a move,
// switches the selection, or clears it. Clicks are ignored unless it
// is the human's turn in a running game.
//
// When a legal destination is clicked the selection is cleared before
// the move request is even issued; the next accepted snapshot is the
// sole source of truth for the resulting board.
func (c *Controller) HandleCellClick(ctx context.Context, sq tafl.Square) error {
	c.lock.Lock()
	snapshot := c.snapshot
	if snapshot == nil || !snapshot.HumanToMove() || c.submitting {
		c.lock.Unlock()
		return nil
	}

	if c.selectedOrigin == nil {
		if selectable(snapshot, sq) {
			origin := sq
			c.selectedOrigin = &origin
		}
		c.lock.Unlock()
		return nil
	}

	origin := *c.selectedOrigin
	if sq == origin {
		c.selectedOrigin = nil
		c.lock.Unlock()
		return nil
	}

	if isDestination(snapshot, origin, sq) {
		c.selectedOrigin = nil
		c.submitting = true
		gameID := snapshot.ID
		c.lock.Unlock()
		return c.playMove(ctx, gameID, origin, sq)
	}

	if selectable(snapshot, sq) {
		next := sq
		c.selectedOrigin = &next
	} else {
		c.selectedOrigin = nil
	}
	c.lock.Unlock()
	return nil
}

// selectable reports whether the square holds a piece of the human
// side with at least one legal move originating there.
func selectable(snapshot *tafl.GameSnapshot, sq tafl.Square) bool {
	piece := snapshot.Board.At(sq)
	if !piece.BelongsTo(snapshot.HumanSide) {
		return false
	}
	return len(snapshot.MovesFrom(sq)) > 0
}

func isDestination(snapshot *tafl.GameSnapshot, origin, sq tafl.Square) bool {
	for _, m := range snapshot.MovesFrom(origin) {
		if m.To == sq {
			return true
		}
	}
	return false
}

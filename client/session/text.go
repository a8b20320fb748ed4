package session

import (
	"fmt"

	"github.com/olafr/tafl-client/client/network"
	"github.com/olafr/tafl-client/pkg/tafl"
)

// Known server rejection codes.
const (
	rejectIllegalMove  = "illegal_move"
	rejectGameNotFound = "game_not_found"
	rejectGameOver     = "game_over"
)

// failureText maps a failed call to user-facing text. Unknown reasons
// fall back to a generic message so no server codes leak into the UI.
func failureText(err error) string {
	switch e := err.(type) {
	case *network.ErrAckTimeout:
		return "The move is taking longer than expected. Please try again."
	case *network.ErrConnectTimeout:
		return "Could not reach the game server."
	case *network.ErrNotConnected:
		return "Could not reach the game server."
	case *network.ErrServerRejected:
		switch e.Reason {
		case rejectIllegalMove:
			return "That move is not valid for the current state."
		case rejectGameNotFound:
			return "That game could not be found."
		case rejectGameOver:
			return "The game is already over."
		}
		return "Something went wrong. Please try again."
	}
	return "Something went wrong. Please try again."
}

func victoryText(winner tafl.Side) string {
	return fmt.Sprintf("The %s win!", sideLabel(winner))
}

package session

import (
	"context"
	"testing"

	"github.com/olafr/tafl-client/pkg/messages"
	"github.com/olafr/tafl-client/pkg/tafl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// selectionSnapshot builds an in-progress game where the human plays
// the defenders and has a movable defender, a movable king, and a
// stuck defender on the board.
func selectionSnapshot() *tafl.GameSnapshot {
	snapshot := testSnapshot(1)
	snapshot.HumanSide = tafl.SideDefenders
	snapshot.ToMove = tafl.SideDefenders
	snapshot.Seats = map[tafl.Side]tafl.SeatKind{
		tafl.SideAttackers: tafl.SeatBot,
		tafl.SideDefenders: tafl.SeatHuman,
	}
	snapshot.Board[5][5] = tafl.PieceKing
	snapshot.Board[5][4] = tafl.PieceDefender
	snapshot.Board[7][7] = tafl.PieceDefender // no legal moves
	snapshot.Board[0][3] = tafl.PieceAttacker
	snapshot.LegalMoves = []tafl.Move{
		{From: tafl.Square{Row: 5, Col: 5}, To: tafl.Square{Row: 4, Col: 5}},
		{From: tafl.Square{Row: 5, Col: 4}, To: tafl.Square{Row: 5, Col: 3}},
		{From: tafl.Square{Row: 5, Col: 4}, To: tafl.Square{Row: 5, Col: 2}},
	}
	return snapshot
}

func selected(t *testing.T, controller *Controller) *tafl.Square {
	t.Helper()
	origin, _ := controller.Selection()
	return origin
}

func TestSelection_IgnoredWhenNotHumanTurn(t *testing.T) {
	controller, bus, _, _ := newTestController(&fakeChannel{})
	snapshot := selectionSnapshot()
	snapshot.ToMove = tafl.SideAttackers
	publishState(t, bus, snapshot)

	require.NoError(t, controller.HandleCellClick(context.Background(), tafl.Square{Row: 5, Col: 4}))
	assert.Nil(t, selected(t, controller))
}

func TestSelection_IgnoredWhenGameOver(t *testing.T) {
	controller, bus, _, _ := newTestController(&fakeChannel{})
	snapshot := selectionSnapshot()
	snapshot.Phase = tafl.PhaseGameOver
	winner := tafl.SideAttackers
	snapshot.Winner = &winner
	publishState(t, bus, snapshot)

	require.NoError(t, controller.HandleCellClick(context.Background(), tafl.Square{Row: 5, Col: 4}))
	assert.Nil(t, selected(t, controller))
}

func TestSelection_PicksOwnMovablePieces(t *testing.T) {
	tests := []struct {
		name   string
		click  tafl.Square
		expect bool
	}{
		{
			name:   "movable defender",
			click:  tafl.Square{Row: 5, Col: 4},
			expect: true,
		},
		{
			name:   "the king belongs to the defenders",
			click:  tafl.Square{Row: 5, Col: 5},
			expect: true,
		},
		{
			name:  "defender without legal moves",
			click: tafl.Square{Row: 7, Col: 7},
		},
		{
			name:  "opponent piece",
			click: tafl.Square{Row: 0, Col: 3},
		},
		{
			name:  "empty square",
			click: tafl.Square{Row: 9, Col: 9},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller, bus, _, _ := newTestController(&fakeChannel{})
			publishState(t, bus, selectionSnapshot())

			require.NoError(t, controller.HandleCellClick(context.Background(), tt.click))

			origin := selected(t, controller)
			if tt.expect {
				require.NotNil(t, origin)
				assert.Equal(t, tt.click, *origin)
			} else {
				assert.Nil(t, origin)
			}
		})
	}
}

func TestSelection_ClickingOriginDeselects(t *testing.T) {
	controller, bus, _, _ := newTestController(&fakeChannel{})
	publishState(t, bus, selectionSnapshot())
	origin := tafl.Square{Row: 5, Col: 4}

	require.NoError(t, controller.HandleCellClick(context.Background(), origin))
	require.NotNil(t, selected(t, controller))

	require.NoError(t, controller.HandleCellClick(context.Background(), origin))
	assert.Nil(t, selected(t, controller))
}

func TestSelection_SwitchesToAnotherOwnPiece(t *testing.T) {
	controller, bus, _, _ := newTestController(&fakeChannel{})
	publishState(t, bus, selectionSnapshot())

	require.NoError(t, controller.HandleCellClick(context.Background(), tafl.Square{Row: 5, Col: 4}))
	require.NoError(t, controller.HandleCellClick(context.Background(), tafl.Square{Row: 5, Col: 5}))

	origin := selected(t, controller)
	require.NotNil(t, origin)
	assert.Equal(t, tafl.Square{Row: 5, Col: 5}, *origin)
}

func TestSelection_UnrelatedSquareClearsSelection(t *testing.T) {
	controller, bus, _, _ := newTestController(&fakeChannel{})
	publishState(t, bus, selectionSnapshot())

	require.NoError(t, controller.HandleCellClick(context.Background(), tafl.Square{Row: 5, Col: 4}))
	require.NoError(t, controller.HandleCellClick(context.Background(), tafl.Square{Row: 9, Col: 9}))

	assert.Nil(t, selected(t, controller))
}

func TestSelection_DestinationClickPlaysMove(t *testing.T) {
	channel := &fakeChannel{}
	controller, bus, _, _ := newTestController(channel)
	snapshot := selectionSnapshot()
	publishState(t, bus, snapshot)

	next := snapshot.Copy()
	next.Version = 2
	next.ToMove = tafl.SideAttackers
	channel.respond = respondSnapshot(next)

	require.NoError(t, controller.HandleCellClick(context.Background(), tafl.Square{Row: 5, Col: 4}))
	require.NoError(t, controller.HandleCellClick(context.Background(), tafl.Square{Row: 5, Col: 3}))

	calls := channel.recorded()
	require.Len(t, calls, 1)
	req, ok := calls[0].Payload.(*messages.PlayMoveRequest)
	require.True(t, ok)
	assert.Equal(t, tafl.Square{Row: 5, Col: 4}, req.From)
	assert.Equal(t, tafl.Square{Row: 5, Col: 3}, req.To)
	assert.Nil(t, selected(t, controller))
}

func TestSelection_IgnoredWhileSubmitting(t *testing.T) {
	controller, bus, _, _ := newTestController(&fakeChannel{})
	publishState(t, bus, selectionSnapshot())

	controller.lock.Lock()
	controller.submitting = true
	controller.lock.Unlock()

	require.NoError(t, controller.HandleCellClick(context.Background(), tafl.Square{Row: 5, Col: 4}))
	assert.Nil(t, selected(t, controller))
}

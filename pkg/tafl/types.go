package tafl

import "fmt"

// BoardSize is the side length of the board grid.
const BoardSize = 11

type Side string

const (
	SideAttackers Side = "attackers"
	SideDefenders Side = "defenders"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideAttackers {
		return SideDefenders
	}
	return SideAttackers
}

func (s Side) Valid() bool {
	return s == SideAttackers || s == SideDefenders
}

type Phase string

const (
	PhaseInProgress Phase = "in_progress"
	PhaseGameOver   Phase = "game_over"
)

// PieceKind identifies what occupies a board square. The empty string
// means the square is vacant.
type PieceKind string

const (
	PieceNone     PieceKind = ""
	PieceAttacker PieceKind = "attacker"
	PieceDefender PieceKind = "defender"
	PieceKing     PieceKind = "king"
)

// BelongsTo returns true if the piece is controlled by the given side.
func (p PieceKind) BelongsTo(side Side) bool {
	switch p {
	case PieceAttacker:
		return side == SideAttackers
	case PieceDefender, PieceKing:
		return side == SideDefenders
	}
	return false
}

type SeatKind string

const (
	SeatHuman SeatKind = "human"
	SeatBot   SeatKind = "bot"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Square is a zero-based board coordinate.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s Square) InBounds() bool {
	return s.Row >= 0 && s.Row < BoardSize && s.Col >= 0 && s.Col < BoardSize
}

// String renders the square in algebraic notation, e.g. "a1" for the
// bottom-left square.
func (s Square) String() string {
	if !s.InBounds() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return fmt.Sprintf("%c%d", 'a'+s.Col, BoardSize-s.Row)
}

// Board is a fixed-size grid of piece markers, row-major.
type Board [BoardSize][BoardSize]PieceKind

// At returns the piece on the given square, or PieceNone when the square
// is out of bounds.
func (b *Board) At(sq Square) PieceKind {
	if !sq.InBounds() {
		return PieceNone
	}
	return b[sq.Row][sq.Col]
}

// Move is a server-computed legal move candidate. Captures previews the
// squares that would be taken if the move is played.
type Move struct {
	From     Square   `json:"from"`
	To       Square   `json:"to"`
	Captures []Square `json:"captures,omitempty"`
}

// MoveRecord is one entry of a game's move history.
type MoveRecord struct {
	Turn          int         `json:"turn"`
	Side          Side        `json:"side"`
	From          Square      `json:"from"`
	To            Square      `json:"to"`
	Captures      []Square    `json:"captures,omitempty"`
	CapturedKinds []PieceKind `json:"capturedKinds,omitempty"`
}

// GameSnapshot is the full, server-authored description of one game
// session. Snapshots replace each other wholesale and are never patched.
type GameSnapshot struct {
	// ID identifies the game session.
	ID string `json:"id"`
	// Version is monotonically non-decreasing per game ID.
	Version uint64 `json:"version"`
	Phase   Phase  `json:"phase"`
	ToMove  Side   `json:"toMove"`
	Board   Board  `json:"board"`
	// KingMoved is set once the king has left its starting square.
	KingMoved bool `json:"kingMoved"`
	// HumanSide is the side controlled by this client's player.
	HumanSide Side `json:"humanSide"`
	// Seats maps each side to who controls it.
	Seats map[Side]SeatKind `json:"seats"`
	// Winner is set iff Phase is PhaseGameOver.
	Winner     *Side      `json:"winner,omitempty"`
	Difficulty Difficulty `json:"difficulty"`
	// LegalMoves is only meaningful while Phase is PhaseInProgress.
	LegalMoves []Move       `json:"legalMoves,omitempty"`
	History    []MoveRecord `json:"history,omitempty"`
}

// MovesFrom returns the legal moves originating on the given square.
func (s *GameSnapshot) MovesFrom(sq Square) []Move {
	var moves []Move
	for _, m := range s.LegalMoves {
		if m.From == sq {
			moves = append(moves, m)
		}
	}
	return moves
}

// HumanToMove returns true if the human-controlled side has the turn.
func (s *GameSnapshot) HumanToMove() bool {
	return s.Phase == PhaseInProgress && s.ToMove == s.HumanSide
}

// Copy returns a deep copy of the snapshot.
func (s *GameSnapshot) Copy() *GameSnapshot {
	c := *s
	if s.Winner != nil {
		winner := *s.Winner
		c.Winner = &winner
	}
	if s.Seats != nil {
		c.Seats = make(map[Side]SeatKind, len(s.Seats))
		for side, seat := range s.Seats {
			c.Seats[side] = seat
		}
	}
	c.LegalMoves = make([]Move, len(s.LegalMoves))
	for i, m := range s.LegalMoves {
		c.LegalMoves[i] = m.copy()
	}
	c.History = make([]MoveRecord, len(s.History))
	for i, r := range s.History {
		c.History[i] = r.copy()
	}
	return &c
}

func (m Move) copy() Move {
	c := m
	c.Captures = append([]Square(nil), m.Captures...)
	return c
}

func (r MoveRecord) copy() MoveRecord {
	c := r
	c.Captures = append([]Square(nil), r.Captures...)
	c.CapturedKinds = append([]PieceKind(nil), r.CapturedKinds...)
	return c
}

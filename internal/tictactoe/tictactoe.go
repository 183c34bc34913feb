// Package tictactoe implements the board game embedded on the site and an
// unbeatable minimax opponent.
package tictactoe

import (
	"errors"
	"fmt"
	"strings"
)

// Mark is the content of a cell.
type Mark byte

const (
	Empty Mark = 0
	X     Mark = 'X'
	O     Mark = 'O'
)

func (m Mark) String() string {
	if m == Empty {
		return ""
	}
	return string(m)
}

// Opponent returns the other player's mark.
func (m Mark) Opponent() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	}
	return Empty
}

var (
	ErrOutOfRange = errors.New("cell out of range")
	ErrOccupied   = errors.New("cell already taken")
	ErrGameOver   = errors.New("game is over")
	ErrBadBoard   = errors.New("malformed board")
)

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Board cells are numbered 0-8 row by row.
type Board [9]Mark

// ParseBoard reads nine cells of X, O, or one of "-", "." and " " for empty.
func ParseBoard(s string) (Board, error) {
	var b Board
	if len(s) != 9 {
		return b, fmt.Errorf("%w: want 9 cells, got %d", ErrBadBoard, len(s))
	}
	for i := 0; i < 9; i++ {
		switch c := s[i]; c {
		case 'X', 'x':
			b[i] = X
		case 'O', 'o':
			b[i] = O
		case '-', '.', ' ':
			b[i] = Empty
		default:
			return Board{}, fmt.Errorf("%w: unexpected %q", ErrBadBoard, c)
		}
	}
	return b, nil
}

// String encodes the board in ParseBoard format using "-" for empty cells.
func (b Board) String() string {
	var sb strings.Builder
	for _, m := range b {
		if m == Empty {
			sb.WriteByte('-')
		} else {
			sb.WriteByte(byte(m))
		}
	}
	return sb.String()
}

// Winner returns the winning mark and its line, or Empty and nil.
func (b Board) Winner() (Mark, []int) {
	for _, l := range lines {
		if m := b[l[0]]; m != Empty && m == b[l[1]] && m == b[l[2]] {
			return m, []int{l[0], l[1], l[2]}
		}
	}
	return Empty, nil
}

// Full reports whether no empty cell is left.
func (b Board) Full() bool {
	for _, m := range b {
		if m == Empty {
			return false
		}
	}
	return true
}

// Over reports whether the game has ended.
func (b Board) Over() bool {
	w, _ := b.Winner()
	return w != Empty || b.Full()
}

// Moves lists the empty cells in ascending order.
func (b Board) Moves() []int {
	var out []int
	for i, m := range b {
		if m == Empty {
			out = append(out, i)
		}
	}
	return out
}

// BestMove picks the cell with the highest minimax score for ai. Faster
// wins and slower losses score better; ties go to the lowest cell.
func BestMove(b Board, ai Mark) (int, error) {
	if ai != X && ai != O {
		return -1, fmt.Errorf("invalid mark %q", ai)
	}
	if b.Over() {
		return -1, ErrGameOver
	}
	best, bestScore := -1, -1<<31
	for _, cell := range b.Moves() {
		b[cell] = ai
		score := minimax(&b, 1, false, ai)
		b[cell] = Empty
		if score > bestScore {
			best, bestScore = cell, score
		}
	}
	return best, nil
}

func minimax(b *Board, depth int, maximizing bool, ai Mark) int {
	if w, _ := b.Winner(); w != Empty {
		if w == ai {
			return 10 - depth
		}
		return depth - 10
	}
	if b.Full() {
		return 0
	}

	mark := ai
	best := -1 << 31
	if !maximizing {
		mark = ai.Opponent()
		best = 1<<31 - 1
	}
	for i := range b {
		if b[i] != Empty {
			continue
		}
		b[i] = mark
		score := minimax(b, depth+1, !maximizing, ai)
		b[i] = Empty
		if maximizing && score > best || !maximizing && score < best {
			best = score
		}
	}
	return best
}

// Result describes the board after a turn.
type Result struct {
	Board  Board
	AIMove int
	Winner Mark
	Line   []int
	Draw   bool
}

// Over reports whether the turn ended the game.
func (r Result) Over() bool {
	return r.Winner != Empty || r.Draw
}

// Play applies the human move at cell and, unless that ends the game, the
// AI's reply. AIMove is -1 when the AI did not move.
func Play(b Board, human Mark, cell int) (Result, error) {
	if human != X && human != O {
		return Result{}, fmt.Errorf("invalid mark %q", human)
	}
	if cell < 0 || cell >= len(b) {
		return Result{}, fmt.Errorf("%w: %d", ErrOutOfRange, cell)
	}
	if b.Over() {
		return Result{}, ErrGameOver
	}
	if b[cell] != Empty {
		return Result{}, fmt.Errorf("%w: %d", ErrOccupied, cell)
	}

	b[cell] = human
	res := Result{Board: b, AIMove: -1}
	if !b.Over() {
		move, err := BestMove(b, human.Opponent())
		if err != nil {
			return Result{}, err
		}
		b[move] = human.Opponent()
		res.Board = b
		res.AIMove = move
	}
	res.Winner, res.Line = res.Board.Winner()
	res.Draw = res.Winner == Empty && res.Board.Full()
	return res, nil
}

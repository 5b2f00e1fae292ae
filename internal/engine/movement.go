package engine

import (
	"github.com/maxharris/polymono/internal/board"
	"github.com/maxharris/polymono/internal/models"
)

// MoveResult describes one token displacement.
type MoveResult struct {
	From     int  `json:"from"`
	To       int  `json:"to"`
	PassedGo bool `json:"passed_go"`
	Salary   int  `json:"salary,omitempty"`
}

// advance moves the player by spaces with wraparound. Negative spaces move
// backwards and never yield a negative position. The passed-start salary is
// credited exactly once, only for forward motion that crosses or lands on
// position 0.
func advance(p *models.Player, spaces int) MoveResult {
	from := p.Position
	to := ((from+spaces)%board.Size + board.Size) % board.Size
	res := MoveResult{From: from, To: to}
	if spaces > 0 && from+spaces >= board.Size {
		res.PassedGo = true
		res.Salary = goSalary
		p.Money += goSalary
	}
	p.Position = to
	return res
}

// distanceTo returns the forward distance from pos to target. A player already
// standing on the target travels the full loop, collecting the salary again.
func distanceTo(pos, target int) int {
	d := ((target-pos)%board.Size + board.Size) % board.Size
	if d == 0 {
		d = board.Size
	}
	return d
}

// nearestAhead returns the first of the given positions strictly ahead of pos,
// wrapping to the first one when none remain ahead. positions must be in
// board order.
func nearestAhead(pos int, positions []int) int {
	for _, p := range positions {
		if p > pos {
			return p
		}
	}
	return positions[0]
}

// sendToJail puts the player in jail: position forced to the jail space
// regardless of dice, jail-turn counter reset. No salary is ever credited on
// the way in.
func sendToJail(p *models.Player) {
	p.Position = board.JailPosition
	p.InJail = true
	p.JailTurns = 0
}

// releaseFromJail clears the jail state without moving the player.
func releaseFromJail(p *models.Player) {
	p.InJail = false
	p.JailTurns = 0
}

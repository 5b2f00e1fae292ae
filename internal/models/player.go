package models

import "github.com/google/uuid"

// Player is a seat in the session. Rows are created on lobby join and only
// deleted while the session is still in lobby; once the game starts a player
// that drops out is flagged bankrupt instead.
type Player struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	Position     int       `json:"position"` // board position, 0-39
	Money        int       `json:"money"`
	InJail       bool      `json:"in_jail"`
	JailTurns    int       `json:"jail_turns"` // consecutive turns spent jailed
	JailCards    int       `json:"get_out_of_jail_cards"`
	Bankrupt     bool      `json:"is_bankrupt"`
	TurnOrder    int       `json:"turn_order"`
	ReadyToStart bool      `json:"ready_to_start"` // lobby only
}

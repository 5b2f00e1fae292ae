package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus is the lifecycle state of the single persistent session.
type GameStatus string

const (
	GameStatusLobby      GameStatus = "lobby"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusCompleted  GameStatus = "completed"
)

// Game is the singleton session row. There is exactly one per deployment;
// it is never deleted, only reset back to lobby.
type Game struct {
	ID                int        `json:"id"`
	Status            GameStatus `json:"status"`
	CurrentTurnUserID *uuid.UUID `json:"current_turn_user_id,omitempty"`
	TurnDeadline      *time.Time `json:"turn_deadline,omitempty"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/maxharris/polymono/internal/models"
)

// Store is the durable state the engine operates on. internal/database
// implements it over postgres; tests use an in-memory implementation.
//
// Transact runs fn against a store view with transactional semantics: every
// mutation made through the view is applied atomically when fn returns nil and
// discarded entirely when it returns an error. All engine commands that mutate
// state run inside a single Transact call, so partial application is never
// observable (not even to concurrent readers).
type Store interface {
	Game(ctx context.Context) (*models.Game, error)
	UpdateGame(ctx context.Context, g *models.Game) error

	Players(ctx context.Context) ([]*models.Player, error)
	PlayerByID(ctx context.Context, id uuid.UUID) (*models.Player, error)
	PlayerByUserID(ctx context.Context, userID uuid.UUID) (*models.Player, error)
	CreatePlayer(ctx context.Context, p *models.Player) error
	UpdatePlayer(ctx context.Context, p *models.Player) error
	DeletePlayer(ctx context.Context, id uuid.UUID) error

	Properties(ctx context.Context) ([]*models.Property, error)
	PropertyByID(ctx context.Context, id int) (*models.Property, error)
	UpdateProperty(ctx context.Context, p *models.Property) error

	CreateTrade(ctx context.Context, t *models.Trade) error
	TradeByID(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	TradesForPlayer(ctx context.Context, playerID uuid.UUID) ([]*models.Trade, error)
	UpdateTrade(ctx context.Context, t *models.Trade) error
	DeleteTrade(ctx context.Context, id uuid.UUID) error

	Transact(ctx context.Context, fn func(Store) error) error
}

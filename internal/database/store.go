package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxharris/polymono/internal/engine"
	"github.com/maxharris/polymono/internal/models"
)

// querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// so the same query methods serve inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements engine.Store over postgres.
type Store struct {
	db   querier
	pool *pgxpool.Pool // nil inside a transaction
}

// NewStore wraps a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{db: pool, pool: pool}
}

// Transact runs fn in one database transaction. A Store already inside a
// transaction runs fn directly; the engine never nests beyond that.
func (s *Store) Transact(ctx context.Context, fn func(engine.Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&Store{db: tx})
	})
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, engine.ErrNotFound)
	}
	return err
}

const gameColumns = `id, status, current_turn_user_id, turn_deadline, started_at, completed_at`

func (s *Store) Game(ctx context.Context) (*models.Game, error) {
	var g models.Game
	err := s.db.QueryRow(ctx,
		`SELECT `+gameColumns+` FROM game WHERE id = 1`,
	).Scan(&g.ID, &g.Status, &g.CurrentTurnUserID, &g.TurnDeadline, &g.StartedAt, &g.CompletedAt)
	if err != nil {
		return nil, notFound(err, "game row")
	}
	return &g, nil
}

func (s *Store) UpdateGame(ctx context.Context, g *models.Game) error {
	_, err := s.db.Exec(ctx, `
		UPDATE game SET status = $2, current_turn_user_id = $3, turn_deadline = $4,
			started_at = $5, completed_at = $6
		WHERE id = $1`,
		g.ID, g.Status, g.CurrentTurnUserID, g.TurnDeadline, g.StartedAt, g.CompletedAt)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	return nil
}

const playerColumns = `id, user_id, username, position, money, in_jail, jail_turns, jail_cards, is_bankrupt, turn_order, ready_to_start`

func scanPlayer(row pgx.Row) (*models.Player, error) {
	var p models.Player
	err := row.Scan(&p.ID, &p.UserID, &p.Username, &p.Position, &p.Money,
		&p.InJail, &p.JailTurns, &p.JailCards, &p.Bankrupt, &p.TurnOrder, &p.ReadyToStart)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) Players(ctx context.Context) ([]*models.Player, error) {
	rows, err := s.db.Query(ctx, `SELECT `+playerColumns+` FROM players ORDER BY turn_order`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []*models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) PlayerByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	p, err := scanPlayer(s.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "player")
	}
	return p, nil
}

func (s *Store) PlayerByUserID(ctx context.Context, userID uuid.UUID) (*models.Player, error) {
	p, err := scanPlayer(s.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE user_id = $1`, userID))
	if err != nil {
		return nil, notFound(err, "player")
	}
	return p, nil
}

func (s *Store) CreatePlayer(ctx context.Context, p *models.Player) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO players (`+playerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.UserID, p.Username, p.Position, p.Money,
		p.InJail, p.JailTurns, p.JailCards, p.Bankrupt, p.TurnOrder, p.ReadyToStart)
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

func (s *Store) UpdatePlayer(ctx context.Context, p *models.Player) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE players SET username = $2, position = $3, money = $4, in_jail = $5,
			jail_turns = $6, jail_cards = $7, is_bankrupt = $8, turn_order = $9,
			ready_to_start = $10
		WHERE id = $1`,
		p.ID, p.Username, p.Position, p.Money, p.InJail,
		p.JailTurns, p.JailCards, p.Bankrupt, p.TurnOrder, p.ReadyToStart)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("player %s: %w", p.ID, engine.ErrNotFound)
	}
	return nil
}

func (s *Store) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	return nil
}

const propertyColumns = `id, position, name, kind, color_group, price, rent_values, house_cost, mortgage_value, house_count, is_mortgaged, owner_id`

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	err := row.Scan(&p.ID, &p.Position, &p.Name, &p.Kind, &p.ColorGroup, &p.Price,
		&p.Rent, &p.HouseCost, &p.MortgageValue, &p.HouseCount, &p.Mortgaged, &p.OwnerID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) Properties(ctx context.Context) ([]*models.Property, error) {
	rows, err := s.db.Query(ctx, `SELECT `+propertyColumns+` FROM properties ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var out []*models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) PropertyByID(ctx context.Context, id int) (*models.Property, error) {
	p, err := scanProperty(s.db.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "property")
	}
	return p, nil
}

func (s *Store) UpdateProperty(ctx context.Context, p *models.Property) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE properties SET house_count = $2, is_mortgaged = $3, owner_id = $4
		WHERE id = $1`,
		p.ID, p.HouseCount, p.Mortgaged, p.OwnerID)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("property %d: %w", p.ID, engine.ErrNotFound)
	}
	return nil
}

const tradeColumns = `id, proposer_id, recipient_id, offered, requested, status, created_at, updated_at`

func scanTrade(row pgx.Row) (*models.Trade, error) {
	var t models.Trade
	err := row.Scan(&t.ID, &t.ProposerID, &t.RecipientID, &t.Offered, &t.Requested,
		&t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateTrade(ctx context.Context, t *models.Trade) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trades (`+tradeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.ProposerID, t.RecipientID, t.Offered, t.Requested,
		t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create trade: %w", err)
	}
	return nil
}

func (s *Store) TradeByID(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	t, err := scanTrade(s.db.QueryRow(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "trade")
	}
	return t, nil
}

func (s *Store) TradesForPlayer(ctx context.Context, playerID uuid.UUID) ([]*models.Trade, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+tradeColumns+` FROM trades
		WHERE proposer_id = $1 OR recipient_id = $1
		ORDER BY created_at`, playerID)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var out []*models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTrade(ctx context.Context, t *models.Trade) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE trades SET offered = $2, requested = $3, status = $4, updated_at = $5
		WHERE id = $1`,
		t.ID, t.Offered, t.Requested, t.Status, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trade %s: %w", t.ID, engine.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteTrade(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM trades WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	return nil
}

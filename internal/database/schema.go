package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxharris/polymono/internal/board"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		username TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS game (
		id INT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'lobby',
		current_turn_user_id UUID,
		turn_deadline TIMESTAMPTZ,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id UUID PRIMARY KEY,
		user_id UUID UNIQUE NOT NULL,
		username TEXT NOT NULL,
		position INT NOT NULL DEFAULT 0,
		money INT NOT NULL DEFAULT 1500,
		in_jail BOOLEAN NOT NULL DEFAULT FALSE,
		jail_turns INT NOT NULL DEFAULT 0,
		jail_cards INT NOT NULL DEFAULT 0,
		is_bankrupt BOOLEAN NOT NULL DEFAULT FALSE,
		turn_order INT NOT NULL,
		ready_to_start BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS properties (
		id INT PRIMARY KEY,
		position INT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		color_group TEXT NOT NULL DEFAULT '',
		price INT NOT NULL DEFAULT 0,
		rent_values JSONB NOT NULL DEFAULT '[0,0,0,0,0,0,0]',
		house_cost INT NOT NULL DEFAULT 0,
		mortgage_value INT NOT NULL DEFAULT 0,
		house_count INT NOT NULL DEFAULT 0,
		is_mortgaged BOOLEAN NOT NULL DEFAULT FALSE,
		owner_id UUID REFERENCES players(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trades (
		id UUID PRIMARY KEY,
		proposer_id UUID NOT NULL REFERENCES players(id) ON DELETE CASCADE,
		recipient_id UUID NOT NULL REFERENCES players(id) ON DELETE CASCADE,
		offered JSONB NOT NULL,
		requested JSONB NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS game_actions (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID,
		action TEXT NOT NULL,
		detail JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates all tables and seeds the singleton game row and the 40
// board spaces. Static property fields are refreshed on every boot; live
// fields (owner, houses, mortgage) are left alone.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO game (id, status) VALUES (1, 'lobby') ON CONFLICT (id) DO NOTHING`,
		); err != nil {
			return fmt.Errorf("seed game row: %w", err)
		}

		for _, sp := range board.Catalog() {
			if _, err := tx.Exec(ctx, `
				INSERT INTO properties
					(id, position, name, kind, color_group, price, rent_values, house_cost, mortgage_value)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (id) DO UPDATE SET
					position = EXCLUDED.position,
					name = EXCLUDED.name,
					kind = EXCLUDED.kind,
					color_group = EXCLUDED.color_group,
					price = EXCLUDED.price,
					rent_values = EXCLUDED.rent_values,
					house_cost = EXCLUDED.house_cost,
					mortgage_value = EXCLUDED.mortgage_value`,
				sp.ID, sp.Position, sp.Name, string(sp.Kind), sp.ColorGroup,
				sp.Price, sp.Rent, sp.HouseCost, sp.MortgageValue,
			); err != nil {
				return fmt.Errorf("seed property %d: %w", sp.ID, err)
			}
		}
		return nil
	})
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxharris/polymono/internal/cache"
)

// InsertActionRecords persists a historian batch in a single transaction.
func InsertActionRecords(ctx context.Context, pool *pgxpool.Pool, records []cache.ActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if _, err := tx.Exec(ctx, `
				INSERT INTO game_actions (user_id, action, detail, created_at)
				VALUES ($1, $2, $3, $4)`,
				rec.UserID, rec.Action, rec.Detail, time.UnixMilli(rec.Timestamp),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert action batch: %w", err)
	}
	return nil
}

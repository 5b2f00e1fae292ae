// cmd/resetgame is a maintenance command that wipes the session back to an
// empty lobby: players and trades deleted, properties returned to the bank.
package main

import (
	"context"
	"log"

	_ "github.com/joho/godotenv/autoload"

	"github.com/maxharris/polymono/internal/database"
	"github.com/maxharris/polymono/internal/engine"
)

// nopPublisher discards events; there is no server process to observe them.
type nopPublisher struct{}

func (nopPublisher) Publish(engine.Event) {}

func main() {
	ctx := context.Background()

	pool, err := database.Connect(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	eng := engine.New(database.NewStore(pool), nopPublisher{}, nil)
	defer eng.Close()

	if err := eng.Reset(ctx); err != nil {
		log.Fatalf("reset: %v", err)
	}
	log.Println("session reset to lobby")
}

// cmd/server runs the game server: HTTP API, websocket event feed, and the
// rules engine over postgres, with action records queued to redis.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/maxharris/polymono/internal/auth"
	"github.com/maxharris/polymono/internal/cache"
	"github.com/maxharris/polymono/internal/database"
	"github.com/maxharris/polymono/internal/engine"
	"github.com/maxharris/polymono/internal/handlers"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	ctx := context.Background()

	pool, err := database.Connect(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	var actions engine.ActionLog
	rdb, err := cache.Connect(ctx)
	if err != nil {
		// The game runs without the historian; only the action trail is lost.
		logger.Warnf("redis unavailable, action recording disabled: %v", err)
	} else {
		defer rdb.Close()
		actions = cache.NewQueue(rdb)
	}

	tokens, err := auth.NewTokens()
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	hub := handlers.NewHub(logger)
	eng := engine.New(database.NewStore(pool), hub, actions)
	defer eng.Close()

	if raw := os.Getenv("TURN_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("parse TURN_TIMEOUT: %v", err)
		}
		eng.SetTurnTimeout(d)
	}
	if err := eng.Resume(ctx); err != nil {
		log.Fatalf("resume session: %v", err)
	}

	api := handlers.NewAPI(eng, database.NewStore(pool), tokens, hub, logger)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, api.Routes()); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

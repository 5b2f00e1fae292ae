// cmd/historian drains the redis action queue and batch-inserts the records
// into the game_actions table. It runs beside the game server so action
// persistence never sits on the request path.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/maxharris/polymono/internal/cache"
	"github.com/maxharris/polymono/internal/database"
)

func main() {
	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	flushDelay := time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	rdb, err := cache.Connect(ctx)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()
	queue := cache.NewQueue(rdb)

	log.Println("historian started")

	batch := make([]cache.ActionRecord, 0, batchSize)
	lastFlush := time.Now()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := database.InsertActionRecords(context.Background(), pool, batch); err != nil {
			log.Printf("[ERROR] flush batch of %d: %v", len(batch), err)
			return
		}
		log.Printf("flushed %d action records", len(batch))
		batch = batch[:0]
		lastFlush = time.Now()
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			log.Println("historian shutting down")
			return
		default:
		}

		// Short BLPop timeout so shutdown and the flush interval are honored
		// even when the queue is idle.
		rec, err := queue.Pop(ctx, time.Second)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Printf("[ERROR] pop: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if rec != nil {
			batch = append(batch, *rec)
		}
		if len(batch) >= batchSize || (len(batch) > 0 && time.Since(lastFlush) >= flushDelay) {
			flush()
		}
	}
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

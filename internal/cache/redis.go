// Package cache holds the redis-backed action queue feeding the historian.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the redis list the engine pushes action records onto.
var DefaultQueueName = "polymono_actions"

// ActionRecord is one completed game action, queued for asynchronous
// persistence into the game_actions table.
type ActionRecord struct {
	UserID    uuid.UUID      `json:"user_id"`
	Action    string         `json:"action"`
	Detail    map[string]any `json:"detail,omitempty"`
	Timestamp int64          `json:"timestamp"` // epoch millis
}

// Connect initializes a redis client from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func Connect(ctx context.Context) (*redis.Client, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   getEnvInt("REDIS_DB", 0),
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Queue pushes action records onto a redis list. It implements the engine's
// ActionLog interface.
type Queue struct {
	rdb  *redis.Client
	name string
}

// NewQueue wraps a redis client; the list name comes from
// HISTORIAN_QUEUE_NAME or DefaultQueueName.
func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb, name: getEnv("HISTORIAN_QUEUE_NAME", DefaultQueueName)}
}

// Record serializes and enqueues one action. Recording is best effort: a
// redis failure is logged, never surfaced to the game flow.
func (q *Queue) Record(ctx context.Context, action string, userID uuid.UUID, detail map[string]any) {
	rec := ActionRecord{
		UserID:    userID,
		Action:    action,
		Detail:    detail,
		Timestamp: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		logrus.Warnf("marshal action record: %v", err)
		return
	}
	if err := q.rdb.RPush(ctx, q.name, data).Err(); err != nil {
		logrus.Warnf("enqueue action record: %v", err)
	}
}

// Pop blocks up to timeout for the next queued record. A nil record with nil
// error means the wait timed out.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*ActionRecord, error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}
	var rec ActionRecord
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return nil, fmt.Errorf("invalid action record: %w", err)
	}
	return &rec, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
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

package redisStore

import (
	"context"
	"os"
	"time"

	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

type Store struct {
	client *redis.Client
	Type   int
	logger *logger_i.Logger
}

// NewStore dials redis for one logical database. Callers own the returned
// store and wire it where it's needed; the client closes when ctx ends.
func NewStore(ctx context.Context, dbType int) (*Store, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = config.RedisAddr
	}

	logger := logger_i.NewLogger("Redis Store")

	newClient := redis.NewClient(&redis.Options{
		Addr:                  addr,
		Password:              config.RedisPassword,
		DB:                    dbType,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := newClient.Ping(pingCtx).Err(); err != nil {
		logger.Error("Redis is offline: ", "error", err.Error())
		return nil, err
	}

	logger.Info("Redis Store init successfully", "db", dbType)

	newStore := &Store{
		client: newClient,
		Type:   dbType,
		logger: logger,
	}
	go newStore.closeOnDone(ctx)
	return newStore, nil
}

func (s *Store) closeOnDone(ctx context.Context) {
	<-ctx.Done()
	s.logger.Info("Closing Redis Store", "db", s.Type)
	if err := s.client.Close(); err != nil {
		s.logger.Error("Error closing redis client", "error", err)
	}
}

// Only in a _test.go file or behind a build tag
func NewTestStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		logger: logger_i.NewLogger("Redis Store"),
	}
}

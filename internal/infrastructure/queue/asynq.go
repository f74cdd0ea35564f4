package queue

import (
	"github.com/vramonlinebsc/hms/config"
	"github.com/vramonlinebsc/hms/internal/infrastructure/cache"

	"github.com/hibiken/asynq"
)

// RedisOpt returns the asynq connection settings. Jobs live in their own Redis DB.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cache.Addr(cfg),
		Password: cfg.Password,
		DB:       cfg.QueueDB,
	}
}

func NewClient(cfg config.RedisConfig) *asynq.Client {
	return asynq.NewClient(RedisOpt(cfg))
}

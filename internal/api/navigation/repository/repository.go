package navigationRepository

import (
	"FocusDetect/internal/entity"
	"FocusDetect/pkg/redis"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultSessionTTL = 24 * time.Hour

// Repository stores the UIState of each browser session.
type Repository interface {
	GetState(ctx context.Context, sessionID string) (entity.UIState, error)
	SetState(ctx context.Context, sessionID string, state entity.UIState) error
}

// New picks Redis when a client is given and the in-memory store otherwise.
func New(redisClient redis.IRedis, ttl time.Duration, log *logrus.Logger) Repository {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if redisClient != nil {
		return newRedisRepository(redisClient, ttl, log)
	}
	return newMemoryRepository(ttl, log)
}

package navigationRepository

import (
	"FocusDetect/internal/api/navigation"
	"FocusDetect/internal/entity"
	contextPkg "FocusDetect/pkg/context"
	"FocusDetect/pkg/redis"
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

const sessionKeyPrefix = "focusdetect:session:"

type redisRepository struct {
	client redis.IRedis
	ttl    time.Duration
	log    *logrus.Logger
}

func newRedisRepository(client redis.IRedis, ttl time.Duration, log *logrus.Logger) *redisRepository {
	return &redisRepository{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (r *redisRepository) GetState(ctx context.Context, sessionID string) (entity.UIState, error) {
	requestID := contextPkg.GetRequestID(ctx)

	val, err := r.client.GetAndRefresh(ctx, sessionKey(sessionID), r.ttl)
	if errors.Is(err, redis.ErrNotFound) {
		return entity.UIStateLanding, navigation.ErrSessionNotFound
	} else if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to read session state")
		return entity.UIStateLanding, err
	}

	state, ok := entity.ParseUIState(val)
	if !ok {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"value":      val,
		}).Warn("Discarding unrecognised session state")
		return entity.UIStateLanding, navigation.ErrSessionNotFound
	}

	return state, nil
}

func (r *redisRepository) SetState(ctx context.Context, sessionID string, state entity.UIState) error {
	if err := r.client.SetValue(ctx, sessionKey(sessionID), state.String(), r.ttl); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to store session state")
		return err
	}
	return nil
}

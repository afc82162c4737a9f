package navigationRepository

import (
	"FocusDetect/internal/api/navigation"
	"FocusDetect/internal/entity"
	contextPkg "FocusDetect/pkg/context"
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type sessionEntry struct {
	state     entity.UIState
	expiresAt time.Time
}

// memoryRepository expires entries lazily on read and sweeps the map on write
// once it has grown past sweepEvery entries since the last sweep. Reads and
// writes both restart an entry's TTL.
type memoryRepository struct {
	mu         sync.RWMutex
	sessions   map[string]sessionEntry
	ttl        time.Duration
	now        func() time.Time
	writes     int
	sweepEvery int
	log        *logrus.Logger
}

func newMemoryRepository(ttl time.Duration, log *logrus.Logger) *memoryRepository {
	return &memoryRepository{
		sessions:   make(map[string]sessionEntry),
		ttl:        ttl,
		now:        time.Now,
		sweepEvery: 1024,
		log:        log,
	}
}

// GetState returns the stored state and slides the session's expiry, so a
// session lives until it has been idle for the whole TTL.
func (r *memoryRepository) GetState(ctx context.Context, sessionID string) (entity.UIState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[sessionID]
	if !ok {
		return entity.UIStateLanding, navigation.ErrSessionNotFound
	}

	now := r.now()
	if now.After(entry.expiresAt) {
		delete(r.sessions, sessionID)

		if r.log != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"session_id": sessionID,
			}).Debug("Session expired")
		}
		return entity.UIStateLanding, navigation.ErrSessionNotFound
	}

	entry.expiresAt = now.Add(r.ttl)
	r.sessions[sessionID] = entry

	return entry.state, nil
}

func (r *memoryRepository) SetState(ctx context.Context, sessionID string, state entity.UIState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sessions[sessionID] = sessionEntry{state: state, expiresAt: now.Add(r.ttl)}

	r.writes++
	if r.writes >= r.sweepEvery {
		r.writes = 0
		for id, entry := range r.sessions {
			if now.After(entry.expiresAt) {
				delete(r.sessions, id)
			}
		}
	}

	return nil
}

func (r *memoryRepository) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

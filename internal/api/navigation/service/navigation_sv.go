package navigationService

import (
	"FocusDetect/internal/api/navigation"
	"FocusDetect/internal/entity"
	contextPkg "FocusDetect/pkg/context"
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// Current returns the session's view. New and expired sessions start on Landing.
func (s *navigationService) Current(ctx context.Context, sessionID string) (entity.UIState, error) {
	state, err := s.repo.GetState(ctx, sessionID)
	if errors.Is(err, navigation.ErrSessionNotFound) {
		return entity.UIStateLanding, nil
	} else if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to load session state")
		return entity.UIStateLanding, navigation.ErrInternalServerError
	}

	return state, nil
}

// Navigate moves the session to target. Any of the three views is a valid
// target; the transition table only decides which buttons a view shows.
func (s *navigationService) Navigate(ctx context.Context, sessionID string, target entity.UIState) (entity.UIState, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if !target.Valid() {
		return entity.UIStateLanding, navigation.ErrUnknownPage
	}

	from, err := s.Current(ctx, sessionID)
	if err != nil {
		return from, err
	}

	if err := s.repo.SetState(ctx, sessionID, target); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to store session state")
		return from, navigation.ErrInternalServerError
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": sessionID,
		"from":       from.String(),
		"to":         target.String(),
		"via_button": from.CanTransition(target),
	}).Debug("Navigated")

	return target, nil
}

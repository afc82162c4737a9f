package navigationService

import (
	navigationRepository "FocusDetect/internal/api/navigation/repository"
	"FocusDetect/internal/entity"
	"context"

	"github.com/sirupsen/logrus"
)

type INavigationService interface {
	Current(ctx context.Context, sessionID string) (entity.UIState, error)
	Navigate(ctx context.Context, sessionID string, target entity.UIState) (entity.UIState, error)
}

type navigationService struct {
	log  *logrus.Logger
	repo navigationRepository.Repository
}

func NewNavigationService(
	log *logrus.Logger,
	repo navigationRepository.Repository,
) INavigationService {
	return &navigationService{
		log:  log,
		repo: repo,
	}
}

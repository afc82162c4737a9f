package detectionService

import (
	"FocusDetect/internal/api/detection"
	"FocusDetect/pkg/detector"
	"FocusDetect/pkg/imagebuf"
	"FocusDetect/pkg/staging"
	"FocusDetect/pkg/utils"
	"context"
	"mime/multipart"

	"github.com/sirupsen/logrus"
)

const DefaultThreshold = 0.25

type IDetectionService interface {
	IngestUpload(ctx context.Context, file *multipart.FileHeader) (*detection.Image, error)
	IngestCapture(ctx context.Context, frame []byte) (*detection.Image, error)
	IngestBase64(ctx context.Context, payload string) (*detection.Image, error)
	Detect(ctx context.Context, buf *imagebuf.Buffer, threshold float64) (*detection.Result, error)
	Labels() map[int]string
	DefaultThreshold() float64
}

type detectionService struct {
	log              *logrus.Logger
	detector         detector.Detector
	stager           *staging.Stager
	utils            utils.IUtils
	defaultThreshold float64
}

func NewDetectionService(
	log *logrus.Logger,
	detector detector.Detector,
	stager *staging.Stager,
	utils utils.IUtils,
	defaultThreshold float64,
) IDetectionService {
	if defaultThreshold < 0 || defaultThreshold > 1 {
		defaultThreshold = DefaultThreshold
	}
	return &detectionService{
		log:              log,
		detector:         detector,
		stager:           stager,
		utils:            utils,
		defaultThreshold: defaultThreshold,
	}
}

func (s *detectionService) Labels() map[int]string {
	return s.detector.Labels()
}

func (s *detectionService) DefaultThreshold() float64 {
	return s.defaultThreshold
}

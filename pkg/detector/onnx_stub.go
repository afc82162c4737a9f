//go:build !gocv

package detector

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// newONNXDetector reports the missing model first so that a bad MODEL_PATH is
// diagnosed the same way with and without OpenCV.
func newONNXDetector(cfg Config, log *logrus.Logger) (Detector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}
	return nil, fmt.Errorf("%w: onnx backend requires building with -tags gocv", ErrBackendUnavailable)
}

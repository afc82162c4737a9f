package config

import (
	"FocusDetect/pkg/detector"

	"github.com/sirupsen/logrus"
)

// NewDetector loads the model once for the whole process.
func NewDetector(env Env, log *logrus.Logger) (detector.Detector, error) {
	cfg := detector.Config{
		Backend:      env.DetectorBackend,
		ModelPath:    env.ModelPath,
		InferenceURL: env.InferenceURL,
		WebSocketURL: env.InferenceWSURL,
		Labels:       env.DetectorLabels,
		NMSThreshold: env.NMSThreshold,
		InputSize:    env.ModelInputSize,
		Timeout:      env.DetectorTimeout,
	}

	log.WithFields(logrus.Fields{
		"backend": cfg.Backend,
		"labels":  cfg.Labels,
	}).Info("Loading focus detector")

	return detector.New(cfg, log)
}

package config

import (
	"FocusDetect/pkg/detector"
	"os"
	"strconv"
	"strings"
	"time"
)

// Env holds the process configuration read from the environment. Unset or
// malformed values fall back to their defaults.
type Env struct {
	Port        string
	AppEnv      string
	UploadDir   string
	MaxUploadMB int

	DetectorBackend     string
	ModelPath           string
	InferenceURL        string
	InferenceWSURL      string
	DetectorLabels      []string
	ConfidenceThreshold float64
	NMSThreshold        float64
	ModelInputSize      int
	DetectorTimeout     time.Duration

	SessionTTL    time.Duration
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	RateLimitRPS   float64
	RateLimitBurst int
}

func LoadEnv() Env {
	def := detector.DefaultConfig()

	return Env{
		Port:        getString("APP_PORT", "3000"),
		AppEnv:      getString("APP_ENV", "development"),
		UploadDir:   getString("UPLOAD_DIR", ""),
		MaxUploadMB: getInt("MAX_UPLOAD_MB", 10),

		DetectorBackend:     getString("DETECTOR_BACKEND", def.Backend),
		ModelPath:           getString("MODEL_PATH", def.ModelPath),
		InferenceURL:        getString("INFERENCE_URL", def.InferenceURL),
		InferenceWSURL:      getString("INFERENCE_WS_URL", def.WebSocketURL),
		DetectorLabels:      getList("DETECTOR_LABELS", def.Labels),
		ConfidenceThreshold: getFloat("CONFIDENCE_THRESHOLD", 0.25),
		NMSThreshold:        getFloat("NMS_THRESHOLD", def.NMSThreshold),
		ModelInputSize:      getInt("MODEL_INPUT_SIZE", def.InputSize),
		DetectorTimeout:     getDuration("DETECTOR_TIMEOUT", def.Timeout),

		SessionTTL:    getDuration("SESSION_TTL", 24*time.Hour),
		RedisAddress:  getString("REDIS_ADDRESS", ""),
		RedisPassword: getString("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 100),
	}
}

func (e Env) IsProduction() bool {
	return strings.EqualFold(e.AppEnv, "production")
}

func (e Env) MaxUploadBytes() int64 {
	return int64(e.MaxUploadMB) * 1024 * 1024
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

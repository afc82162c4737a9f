package config

import (
	"FocusDetect/internal/view"
	"FocusDetect/pkg/detector"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

func TestLoadEnvDefaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "DETECTOR_BACKEND", "DETECTOR_LABELS", "CONFIDENCE_THRESHOLD", "SESSION_TTL", "MAX_UPLOAD_MB"} {
		t.Setenv(key, "")
	}

	env := LoadEnv()
	assert.Equal(t, "3000", env.Port)
	assert.Equal(t, detector.BackendWebSocket, env.DetectorBackend)
	assert.Equal(t, []string{"focus", "unfocus"}, env.DetectorLabels)
	assert.Equal(t, 0.25, env.ConfidenceThreshold)
	assert.Equal(t, 24*time.Hour, env.SessionTTL)
	assert.Equal(t, int64(10*1024*1024), env.MaxUploadBytes())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DETECTOR_BACKEND", "http")
	t.Setenv("DETECTOR_LABELS", " focus , distracted ,")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.4")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("REDIS_DB", "not-a-number")

	env := LoadEnv()
	assert.Equal(t, "8080", env.Port)
	assert.Equal(t, detector.BackendHTTP, env.DetectorBackend)
	assert.Equal(t, []string{"focus", "distracted"}, env.DetectorLabels)
	assert.Equal(t, 0.4, env.ConfidenceThreshold)
	assert.Equal(t, 30*time.Minute, env.SessionTTL)
	assert.Equal(t, 0, env.RedisDB)
}

func TestValidatorPageTag(t *testing.T) {
	v := NewValidator()

	type req struct {
		Target string `validate:"required,page"`
	}
	assert.NoError(t, v.Struct(req{Target: "webcam"}))
	assert.Error(t, v.Struct(req{Target: "results"}))
	assert.Error(t, v.Struct(req{}))
}

func TestNewServerRequiresDetector(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)

	_, err := NewServer(WithFiber(NewFiber(l, view.New(), 0)), WithLogger(l))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detector")
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)

	env := LoadEnv()
	env.UploadDir = t.TempDir()

	s, err := NewServer(
		WithEnv(env),
		WithFiber(NewFiber(l, view.New(), 0)),
		WithLogger(l),
		WithValidator(NewValidator()),
		WithMiddleware(),
		WithDetector(detector.NewMock()),
		WithRedisServer(nil),
		WithUtils(),
	)
	require.NoError(t, err)

	s.RegisterHandler()
	s.mount()
	return s
}

func TestServerRoutes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{path: "/health", status: http.StatusOK, contains: "Server is Healthy!"},
		{path: "/", status: http.StatusOK, contains: `data-view="landing"`},
		{path: "/static/app.css", status: http.StatusOK},
		{path: "/static/webcam.js", status: http.StatusOK, contains: "getUserMedia"},
		{path: "/api/v1/labels", status: http.StatusOK, contains: "unfocus"},
		{path: "/api/v1/session", status: http.StatusOK, contains: "landing"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := s.engine.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			if tt.contains != "" {
				assert.True(t, strings.Contains(string(body), tt.contains), "body of %s", tt.path)
			}
		})
	}
}

func TestServerShutdown(t *testing.T) {
	s := newTestServer(t)
	assert.NoError(t, s.Shutdown(time.Second))
}

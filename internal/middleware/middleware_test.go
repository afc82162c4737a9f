package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(cfg Config) (*fiber.App, Middleware) {
	l := logrus.New()
	l.SetOutput(io.Discard)

	m := New(l, cfg)
	app := fiber.New()
	app.Use(m.NewRequestIDMiddleware())
	app.Use(m.NewLoggingMiddleware())
	app.Use(m.NewSessionMiddleware())
	app.Use(m.NewRateLimiter)
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(m.GetRequestID(c) + "|" + m.GetSessionID(c))
	})
	return app, m
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func TestRequestIDIsGeneratedOrPropagated(t *testing.T) {
	app, _ := newTestApp(DefaultConfig())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	_, err = ulid.ParseStrict(resp.Header.Get(RequestIDKey))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDKey, "trace-123")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "trace-123", resp.Header.Get(RequestIDKey))
}

func TestSessionCookieIsIssuedAndKept(t *testing.T) {
	app, _ := newTestApp(DefaultConfig())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	_, err = ulid.ParseStrict(cookie.Value)
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "|"+cookie.Value)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, cookie.Value, sessionCookie(resp).Value)
}

func TestForgedSessionCookieIsReplaced(t *testing.T) {
	app, _ := newTestApp(DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "../../admin"})
	resp, err := app.Test(req)
	require.NoError(t, err)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.NotEqual(t, "../../admin", cookie.Value)
}

func TestRateLimiter(t *testing.T) {
	app, _ := newTestApp(Config{RateLimit: 0.001, RateBurst: 2})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestSanitizeRequestBody(t *testing.T) {
	out := sanitizeRequestBody(fiber.MIMEApplicationJSON, []byte(`{"image_base64":"AAAAAAAA","confidence":0.3,"token":"x"}`))
	assert.Contains(t, out, `"image_base64":"[image 8 chars]"`)
	assert.Contains(t, out, `"token":"[SECRET]"`)
	assert.Contains(t, out, `"confidence":0.3`)

	assert.Equal(t, "[multipart 5 bytes]", sanitizeRequestBody("multipart/form-data; boundary=x", []byte("abcde")))
	assert.Equal(t, "target=upload", sanitizeRequestBody(fiber.MIMEApplicationForm, []byte("target=upload")))
	assert.Equal(t, "[non-JSON body]", sanitizeRequestBody("", []byte("garbage")))
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	r := newRateLimiter(1, 1)
	now := time.Now()
	r.now = func() time.Time { return now }

	assert.True(t, r.allow("10.0.0.1"))
	assert.False(t, r.allow("10.0.0.1"))
	assert.True(t, r.allow("10.0.0.2"))
	assert.Equal(t, 2, r.size())

	now = now.Add(clientIdleTTL + time.Minute)
	assert.True(t, r.allow("10.0.0.3"))
	assert.Equal(t, 1, r.size())
}

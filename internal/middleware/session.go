package middleware

import (
	contextPkg "FocusDetect/pkg/context"
	"FocusDetect/pkg/utils"
	"time"

	"github.com/gofiber/fiber/v2"
)

const SessionCookieName = "focusdetect_session"

// sessionMiddleware gives every browser a ULID session id in a cookie. The
// navigation state is stored under that id.
type sessionMiddleware struct {
	ttl    time.Duration
	secure bool
	utils  utils.IUtils
}

func newSessionMiddleware(ttl time.Duration, secure bool) *sessionMiddleware {
	return &sessionMiddleware{
		ttl:    ttl,
		secure: secure,
		utils:  utils.New(),
	}
}

func (m *middleware) NewSessionMiddleware() fiber.Handler {
	s := m.session

	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(SessionCookieName)

		if !s.utils.IsULID(sessionID) {
			id, err := s.utils.NewULIDFromTimestamp(time.Now())
			if err != nil {
				m.log.WithField("error", err.Error()).Error("Failed to generate session id")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Internal server error",
				})
			}
			sessionID = id
		}

		c.Cookie(&fiber.Cookie{
			Name:     SessionCookieName,
			Value:    sessionID,
			Path:     "/",
			MaxAge:   int(s.ttl.Seconds()),
			HTTPOnly: true,
			Secure:   s.secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		c.Locals(contextPkg.SessionIDKey, sessionID)

		return c.Next()
	}
}

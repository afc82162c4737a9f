package config

import (
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func NewFiber(logger *logrus.Logger, views fiber.Views, bodyLimit int) *fiber.App {
	if bodyLimit <= 0 {
		bodyLimit = 16 * 1024 * 1024
	}

	app := fiber.New(
		fiber.Config{
			AppName:           "FocusDetect",
			BodyLimit:         bodyLimit,
			DisableKeepalive:  false,
			StrictRouting:     true,
			CaseSensitive:     true,
			EnablePrintRoutes: logger.IsLevelEnabled(logrus.DebugLevel),
			JSONEncoder:       jsoniter.Marshal,
			JSONDecoder:       jsoniter.Unmarshal,
			Views:             views,
		})

	return app
}

package main

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/querypilot/querypilot-backend/internal/api"
	"github.com/querypilot/querypilot-backend/internal/auth"
	"github.com/querypilot/querypilot-backend/internal/bridge"
	"github.com/querypilot/querypilot-backend/internal/config"
	"github.com/querypilot/querypilot-backend/internal/llm"
	"github.com/querypilot/querypilot-backend/internal/services"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	gateway := bridge.NewClient(cfg.Bridge.BaseURL, log)

	var inference bridge.Inference = gateway
	if cfg.Inference.Provider == "openai" {
		generator, err := llm.NewGenerator(cfg.Inference.APIKey, cfg.Inference.BaseURL, cfg.Inference.Model, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize direct inference")
		}
		inference = generator
		log.WithField("model", cfg.Inference.Model).Info("Using direct model inference")
	}

	svc := services.NewServices(gateway, inference, log)

	var authService *auth.Service
	if cfg.Auth.IdentityURL != "" {
		secret := cfg.Auth.JWTSecret
		if secret == "" {
			secret = "change-me-in-production"
			log.Warn("Using default JWT secret. Set QUERYPILOT_JWT_SECRET in production!")
		}
		authService = auth.NewService(cfg.Auth.IdentityURL, secret, log)
	} else {
		log.Warn("No identity provider configured, authentication disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:      "QueryPilot Backend",
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	api.SetupRoutes(app, svc, authService)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithField("addr", addr).Info("QueryPilot Backend starting")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

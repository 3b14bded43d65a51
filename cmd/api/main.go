package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"ats-expert/internal/bootstrap"
	"ats-expert/internal/shared/config"
	"ats-expert/internal/shared/server"
	"ats-expert/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		telemetry.Error("config.invalid", map[string]any{"error": err})
	}

	gin.SetMode(gin.ReleaseMode)
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	addr := server.Addr(cfg.Port)
	telemetry.Info("server.start", map[string]any{"addr": addr, "env": cfg.Env, "model": app.AssessmentService.Model})

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

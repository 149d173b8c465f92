package main

import (
	"github.com/algoviz-app/algoviz_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// @title AlgoViz API
// @version 1.0
// @description Algorithm visualization learning platform API
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx, err := context.NewCtx(
		&services.MonitoringService{},
		&services.SqlService{},
		&services.RedisService{},
		&services.MinIOService{},
		&services.JWTService{},
		&services.EmailService{},

		&services.UserService{},
		&services.AuthService{},
		&services.EntitlementService{},
		&services.BillingService{},
		&services.ProgressService{},
		&services.ContentService{},
		&services.MediaService{},
		&services.RateLimitService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}

// Package bootstrap assembles the API process from configuration.
package bootstrap

import (
	"net/http"

	"github.com/joho/godotenv"

	"github.com/careercompass/auth-service/internal/application/auth"
	"github.com/careercompass/auth-service/internal/application/notify"
	"github.com/careercompass/auth-service/internal/config"
	"github.com/careercompass/auth-service/internal/infrastructure/db/postgres"
	"github.com/careercompass/auth-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/careercompass/auth-service/internal/infrastructure/oauth"
	redisinfra "github.com/careercompass/auth-service/internal/infrastructure/redis"
	"github.com/careercompass/auth-service/internal/infrastructure/security"
	"github.com/careercompass/auth-service/internal/logger"
	"github.com/careercompass/auth-service/internal/transport/http/handlers"
	"github.com/careercompass/auth-service/internal/transport/http/middleware"
	"github.com/careercompass/auth-service/internal/transport/http/router"
)

// NewServer wires the full API: config, Postgres, Redis, RabbitMQ, and the
// route table. The returned cleanup closes every connection.
func NewServer() (*http.Server, func(), error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	db, err := config.NewDB(cfg.DBAddr)
	if err != nil {
		return nil, nil, err
	}

	redisClient, err := redisinfra.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, nil, err
	}

	cleanup := func() {
		_ = publisher.Close()
		_ = redisClient.Close()
		_ = db.Close()
	}

	users := postgres.NewUserRepo(db)
	hasher := security.NewBcryptHasher(0)
	tokens := security.NewJWTSigner(cfg.JWTSecret, cfg.JWTIssuer)
	links := security.NewURLSigner(cfg.URLSigningKey)
	sessions := redisinfra.NewSessionStore(redisClient)
	used := redisinfra.NewConsumedTokenStore(redisClient)
	otp := redisinfra.NewOTPStore(redisClient)
	limiter := redisinfra.NewRateLimiter(redisClient)
	states := redisinfra.NewOAuthStateStore(redisClient, cfg.OAuthStateTTL)

	dispatcher := notify.NewDispatcher(publisher, "auth-api")

	svc := auth.NewService(users, hasher, tokens, sessions, links, used, otp, dispatcher, auth.Config{
		AccessTokenTTL:   cfg.AccessTokenTTL,
		SessionTTL:       cfg.SessionTTL,
		PasswordResetTTL: cfg.PasswordResetTTL,
		VerifyEmailTTL:   cfg.VerifyEmailTTL,
		OTPTTL:           cfg.OTPTTL,
		FrontendURL:      cfg.FrontendURL,
		APIBaseURL:       cfg.APIBaseURL,
	}).WithAudit(func(action string, fields map[string]string) {
		evt := logger.Logger.Info()
		for k, v := range fields {
			evt = evt.Str(k, v)
		}
		evt.Msg(action)
	})

	google := oauth.NewGoogleClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthCallbackURL)
	socialSvc := auth.NewSocialService(svc, states, map[string]auth.OAuthProvider{
		"google": google,
	})

	secureCookie := cfg.Env == "prod"
	guard := middleware.NewGuard(tokens, svc)

	handler := router.New(router.Deps{
		Auth:   handlers.NewAuthHandler(svc, limiter, cfg.SessionTTL, secureCookie, cfg.FrontendURL),
		Social: handlers.NewSocialHandler(socialSvc, cfg.SessionTTL, secureCookie, cfg.FrontendURL),
		User:   handlers.NewUserHandler(),
		Health: handlers.NewHealthHandler(db, redisClient),
		Guard:  guard,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
	return srv, cleanup, nil
}

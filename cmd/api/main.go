package main

import (
	"database/sql"
	"net/http"

	_ "github.com/lib/pq"

	"eventpass/config"
	_ "eventpass/docs"
	adapterauth "eventpass/internal/adapters/auth"
	adapteremail "eventpass/internal/adapters/email"
	delivery "eventpass/internal/delivery/http"
	"eventpass/internal/delivery/http/controllers"
	"eventpass/internal/delivery/http/middleware"
	"eventpass/internal/repository/postgres"
	"eventpass/internal/services"
)

// @title eventpass API
// @version 1.0
// @description Event registration and entry-validation backend.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		return
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "err", err)
		return
	}

	// Repositories. The event repository doubles as the tier ledger.
	eventRepo := postgres.NewEventRepository(db)
	draftRepo := postgres.NewDraftRepository(db)
	credRepo := postgres.NewCredentialRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Adapters.
	jwtProvider := adapterauth.NewJWTProvider(cfg.JWTSecret)
	hasher := adapterauth.NewBcryptHasher(10)
	mailer := adapteremail.NewMailer(cfg.Mailer)

	// Services.
	emailSvc := services.NewEmailService(mailer)
	authSvc := services.NewAuthService(userRepo, hasher, jwtProvider, cfg.JWTExpiry)
	catalogSvc := services.NewCatalogService(eventRepo)
	registrationSvc := services.NewRegistrationService(draftRepo, eventRepo, eventRepo, credRepo, emailSvc)
	credentialSvc := services.NewCredentialService(credRepo)
	checkInSvc := services.NewCheckInService(credRepo, eventRepo, cfg.CheckInOpenBefore)

	// Controllers.
	authController := controllers.NewAuthController(logger, authSvc)
	eventController := controllers.NewEventController(logger, catalogSvc)
	registrationController := controllers.NewRegistrationController(logger, registrationSvc)
	credentialController := controllers.NewCredentialController(logger, credentialSvc)
	checkInController := controllers.NewCheckInController(logger, checkInSvc)

	mux := delivery.NewRouter(
		jwtProvider,
		authController,
		eventController,
		registrationController,
		credentialController,
		checkInController,
	)

	var handler http.Handler = mux
	handler = middleware.CORS(cfg.CORSOrigins, handler)
	handler = middleware.LoggingMiddleware(logger, handler)

	logger.Info("starting server", "port", cfg.Port, "env", cfg.Environment)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		logger.Error("server stopped", "err", err)
	}
}

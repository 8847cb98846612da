package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventpass/internal/delivery/http/controllers"
	"eventpass/internal/delivery/http/middleware"
	"eventpass/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	registrationController *controllers.RegistrationController,
	credentialController *controllers.CredentialController,
	checkInController *controllers.CheckInController,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier)
	staff := middleware.RequireRole(domain.RoleStaff)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Catalog (public reads)
	mux.HandleFunc("GET /events", eventController.ListEvents)
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEvent)

	// Registration flow
	mux.HandleFunc("POST /events/{eventID}/drafts", auth(registrationController.CreateDraft))
	mux.HandleFunc("GET /drafts/{draftID}", auth(registrationController.GetDraft))
	mux.HandleFunc("PATCH /drafts/{draftID}/fields", auth(registrationController.PatchDraft))
	mux.HandleFunc("POST /drafts/{draftID}/advance", auth(registrationController.Advance))
	mux.HandleFunc("POST /drafts/{draftID}/retreat", auth(registrationController.Retreat))
	mux.HandleFunc("DELETE /drafts/{draftID}", auth(registrationController.Cancel))
	mux.HandleFunc("GET /drafts/{draftID}/credential", auth(registrationController.GetCredential))

	// Tickets
	mux.HandleFunc("GET /me/credentials", auth(credentialController.ListMyCredentials))

	// Entry validation (staff only)
	mux.HandleFunc("POST /checkin/scan", auth(staff(checkInController.Scan)))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

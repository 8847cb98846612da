package controllers

import (
	"log/slog"
	"net/http"

	h "eventpass/internal/delivery/http/helpers"
	"eventpass/internal/delivery/http/middleware"
	"eventpass/internal/domain"
)

type CredentialController struct {
	Logger  *slog.Logger
	Service domain.CredentialService
}

func NewCredentialController(logger *slog.Logger, svc domain.CredentialService) *CredentialController {
	return &CredentialController{
		Logger:  logger,
		Service: svc,
	}
}

// CredentialListResponse is the data payload for GET /me/credentials.
type CredentialListResponse struct {
	Credentials []*domain.Credential `json:"credentials"`
	Pagination  h.PaginationMeta     `json:"pagination"`
}

// ListMyCredentials godoc
// @Summary List the caller's issued credentials
// @Description Returns the authenticated user's tickets, newest first, paginated.
// @Tags credentials
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains credentials and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /me/credentials [get]
func (c *CredentialController) ListMyCredentials(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := h.ParsePagination(r)
	creds, total, err := c.Service.ListMyCredentials(r.Context(), userID, params)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, CredentialListResponse{
		Credentials: creds,
		Pagination:  h.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

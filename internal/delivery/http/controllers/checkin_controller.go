package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	h "eventpass/internal/delivery/http/helpers"
	"eventpass/internal/domain"
)

type CheckInController struct {
	Logger  *slog.Logger
	Service domain.CheckInService
}

func NewCheckInController(logger *slog.Logger, svc domain.CheckInService) *CheckInController {
	return &CheckInController{
		Logger:  logger,
		Service: svc,
	}
}

// ScanRequest is the request body for POST /checkin/scan. Code is the decoded
// text of the scanned QR; camera decoding happens on the device.
type ScanRequest struct {
	Code    string `json:"code"`
	EventID string `json:"event_id"`
}

// Validate implements helpers.Validator.
func (s ScanRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(s.Code) == "" {
		errs = append(errs, "code is required")
	}
	if strings.TrimSpace(s.EventID) == "" {
		errs = append(errs, "event_id is required")
	} else if !uuidRegex.MatchString(s.EventID) {
		errs = append(errs, "event_id must be a UUID")
	}
	return errs
}

// Scan godoc
// @Summary Validate and redeem a scanned entry credential
// @Description Redeems the credential exactly once. Each denial carries a distinct error code so the operator sees why admission was refused.
// @Tags checkin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ScanRequest true "Scanned code"
// @Success 200 {object} helpers.APIResponse "data contains the credential and event/tier summary"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: already_redeemed or credential_void"
// @Failure 422 {object} helpers.APIResponse "error.code: outside_window"
// @Router /checkin/scan [post]
func (c *CheckInController) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := c.Service.ValidateAndRedeem(r.Context(), strings.TrimSpace(req.Code), req.EventID, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "no credential matches this code for the event")
		case errors.Is(err, domain.ErrAlreadyRedeemed):
			h.WriteJSONError(w, http.StatusConflict, h.ErrCodeAlreadyRedeemed, "credential has already been redeemed")
		case errors.Is(err, domain.ErrCredentialVoid):
			h.WriteJSONError(w, http.StatusConflict, h.ErrCodeCredentialVoid, "credential is void")
		case errors.Is(err, domain.ErrOutsideWindow):
			h.WriteJSONError(w, http.StatusUnprocessableEntity, h.ErrCodeOutsideWindow, "outside the admission window")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		}
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, result)
}

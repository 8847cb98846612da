package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	h "eventpass/internal/delivery/http/helpers"
	"eventpass/internal/delivery/http/middleware"
	"eventpass/internal/domain"
)

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// DraftResponse bundles a draft with the per-field validation states the UI
// needs to render the form.
// swagger:model DraftResponse
type DraftResponse struct {
	Draft       *domain.RegistrationDraft          `json:"draft"`
	FieldStates map[domain.Field]domain.FieldState `json:"field_states"`
}

func draftResponse(d *domain.RegistrationDraft) DraftResponse {
	return DraftResponse{Draft: d, FieldStates: d.FieldStates()}
}

// DraftPatchRequest is the request body for PATCH /drafts/{draftID}/fields.
// Exactly one action must be present: a field edit (field + value), a field
// blur (field + touched), a tier selection (tier_id), or a terms flag
// (terms_accepted).
type DraftPatchRequest struct {
	Field         *string `json:"field,omitempty"`
	Value         *string `json:"value,omitempty"`
	Touched       *bool   `json:"touched,omitempty"`
	TierID        *string `json:"tier_id,omitempty"`
	TermsAccepted *bool   `json:"terms_accepted,omitempty"`
}

// Validate implements helpers.Validator.
func (p DraftPatchRequest) Validate() []string {
	actions := 0
	if p.Field != nil && p.Value != nil {
		actions++
	}
	if p.Field != nil && p.Touched != nil {
		actions++
	}
	if p.TierID != nil {
		actions++
	}
	if p.TermsAccepted != nil {
		actions++
	}
	if actions != 1 {
		return []string{"exactly one of (field, value), (field, touched), tier_id, or terms_accepted is required"}
	}
	if p.Field != nil && p.Value == nil && p.Touched == nil {
		return []string{"field requires value or touched"}
	}
	return nil
}

// CreateDraft godoc
// @Summary Begin a registration
// @Description Creates a registration draft for the event, owned by the authenticated user, starting at the contact-info step.
// @Tags registration
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 201 {object} helpers.APIResponse "data contains the draft and field states"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/drafts [post]
func (c *RegistrationController) CreateDraft(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	draft, err := c.Service.CreateDraft(r.Context(), eventID, userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, draftResponse(draft))
}

// GetDraft godoc
// @Summary Get a registration draft
// @Description Returns the draft with per-field validation states. Errors are only marked visible for touched fields.
// @Tags registration
// @Produce json
// @Security BearerAuth
// @Param draftID path string true "Draft ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the draft and field states"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /drafts/{draftID} [get]
func (c *RegistrationController) GetDraft(w http.ResponseWriter, r *http.Request) {
	draftID, userID, ok := c.draftRequest(w, r)
	if !ok {
		return
	}
	draft, err := c.Service.GetDraft(r.Context(), draftID, userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, draftResponse(draft))
}

// PatchDraft godoc
// @Summary Edit a registration draft
// @Description Applies one draft mutation: edit a field value, mark a field touched (blur), select a ticket tier, or set the terms flag. Never changes the step.
// @Tags registration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param draftID path string true "Draft ID (UUID)"
// @Param body body DraftPatchRequest true "One mutation"
// @Success 200 {object} helpers.APIResponse "data contains the updated draft and field states"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (draft closed)"
// @Router /drafts/{draftID}/fields [patch]
func (c *RegistrationController) PatchDraft(w http.ResponseWriter, r *http.Request) {
	draftID, userID, ok := c.draftRequest(w, r)
	if !ok {
		return
	}
	var req DraftPatchRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	var draft *domain.RegistrationDraft
	var err error
	switch {
	case req.Field != nil && req.Value != nil:
		draft, err = c.Service.EditField(r.Context(), draftID, userID, domain.Field(*req.Field), *req.Value)
	case req.Field != nil && req.Touched != nil:
		draft, err = c.Service.TouchField(r.Context(), draftID, userID, domain.Field(*req.Field))
	case req.TierID != nil:
		draft, err = c.Service.SelectTier(r.Context(), draftID, userID, *req.TierID)
	case req.TermsAccepted != nil:
		draft, err = c.Service.SetTermsAccepted(r.Context(), draftID, userID, *req.TermsAccepted)
	}
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, draftResponse(draft))
}

// Advance godoc
// @Summary Advance the registration
// @Description Moves the draft to the next step if the current step's gate holds. Advancing past confirmation reserves a ticket and issues the credential; on capacity failure the draft returns to ticket selection.
// @Tags registration
// @Produce json
// @Security BearerAuth
// @Param draftID path string true "Draft ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the new step and, after submission, the credential"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (terms not accepted)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: out_of_capacity or conflict"
// @Failure 422 {object} helpers.APIResponse "error.code: validation_failed"
// @Router /drafts/{draftID}/advance [post]
func (c *RegistrationController) Advance(w http.ResponseWriter, r *http.Request) {
	draftID, userID, ok := c.draftRequest(w, r)
	if !ok {
		return
	}
	result, err := c.Service.Advance(r.Context(), draftID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrValidationFailed) {
			h.WriteJSONError(w, http.StatusUnprocessableEntity, h.ErrCodeValidationFailed, c.validationMessage(r, draftID, userID))
			return
		}
		if errors.Is(err, domain.ErrOutOfCapacity) {
			h.WriteJSONError(w, http.StatusConflict, h.ErrCodeOutOfCapacity, "selected tier is out of capacity")
			return
		}
		if errors.Is(err, domain.ErrTermsNotAccepted) {
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "terms must be accepted")
			return
		}
		c.writeServiceError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, result)
}

// validationMessage describes the invalid fields so the caller can see which
// gates failed without a second round trip.
func (c *RegistrationController) validationMessage(r *http.Request, draftID, userID string) string {
	draft, err := c.Service.GetDraft(r.Context(), draftID, userID)
	if err != nil {
		return "field validation failed"
	}
	invalid := draft.InvalidFields()
	if len(invalid) == 0 {
		return "field validation failed"
	}
	parts := make([]string, 0, len(invalid))
	for f, kind := range invalid {
		parts = append(parts, fmt.Sprintf("%s (%s)", f, kind))
	}
	sort.Strings(parts)
	return "field validation failed: " + strings.Join(parts, ", ")
}

// Retreat godoc
// @Summary Go back one step
// @Description Moves the draft one step back without side effects; no field data is cleared.
// @Tags registration
// @Produce json
// @Security BearerAuth
// @Param draftID path string true "Draft ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the draft and field states"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (draft closed)"
// @Router /drafts/{draftID}/retreat [post]
func (c *RegistrationController) Retreat(w http.ResponseWriter, r *http.Request) {
	draftID, userID, ok := c.draftRequest(w, r)
	if !ok {
		return
	}
	draft, err := c.Service.Retreat(r.Context(), draftID, userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, draftResponse(draft))
}

// Cancel godoc
// @Summary Cancel a registration draft
// @Description Marks the draft abandoned. No ledger or credential state exists before submission, so nothing is released.
// @Tags registration
// @Produce json
// @Security BearerAuth
// @Param draftID path string true "Draft ID (UUID)"
// @Success 204 "draft abandoned"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (draft closed)"
// @Router /drafts/{draftID} [delete]
func (c *RegistrationController) Cancel(w http.ResponseWriter, r *http.Request) {
	draftID, userID, ok := c.draftRequest(w, r)
	if !ok {
		return
	}
	if err := c.Service.Cancel(r.Context(), draftID, userID); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCredential godoc
// @Summary Get the credential for a submitted draft
// @Description Returns the credential minted for this registration, or 404 if the draft has not been submitted.
// @Tags registration
// @Produce json
// @Security BearerAuth
// @Param draftID path string true "Draft ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the credential"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /drafts/{draftID}/credential [get]
func (c *RegistrationController) GetCredential(w http.ResponseWriter, r *http.Request) {
	draftID, userID, ok := c.draftRequest(w, r)
	if !ok {
		return
	}
	cred, err := c.Service.GetCredential(r.Context(), draftID, userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, cred)
}

// draftRequest extracts and validates the draft ID and the authenticated
// user ID, writing the error response itself when either is missing.
func (c *RegistrationController) draftRequest(w http.ResponseWriter, r *http.Request) (draftID, userID string, ok bool) {
	draftID = r.PathValue("draftID")
	if !uuidRegex.MatchString(draftID) {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid draftID")
		return "", "", false
	}
	userID, authed := middleware.UserIDFromContext(r.Context())
	if !authed {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return "", "", false
	}
	return draftID, userID, true
}

// writeServiceError maps common service errors to envelope codes.
func (c *RegistrationController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		h.WriteJSONError(w, http.StatusForbidden, h.ErrCodeForbidden, "draft belongs to another user")
	case errors.Is(err, domain.ErrDraftClosed):
		h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, "draft is closed")
	case errors.Is(err, domain.ErrInvalidInput):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
	}
}

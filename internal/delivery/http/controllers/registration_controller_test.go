package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventpass/internal/delivery/http/helpers"
	"eventpass/internal/delivery/http/middleware"
	"eventpass/internal/domain"
)

// testLogger is a no-op logger so controller tests don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testDraftID = "11111111-1111-1111-1111-111111111111"
	testEventID = "22222222-2222-2222-2222-222222222222"
	testTierID  = "33333333-3333-3333-3333-333333333333"
)

// fakeRegistrationService implements domain.RegistrationService for handler
// tests. Each operation returns the injected error or the canned draft.
type fakeRegistrationService struct {
	draft         *domain.RegistrationDraft
	advanceResult *domain.AdvanceResult
	credential    *domain.Credential
	err           error

	lastField  domain.Field
	lastValue  string
	lastTierID string
	lastTerms  bool
	touched    bool
	cancelled  bool
}

func (f *fakeRegistrationService) CreateDraft(ctx context.Context, eventID, userID string) (*domain.RegistrationDraft, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.draft, nil
}

func (f *fakeRegistrationService) GetDraft(ctx context.Context, draftID, userID string) (*domain.RegistrationDraft, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.draft, nil
}

func (f *fakeRegistrationService) EditField(ctx context.Context, draftID, userID string, field domain.Field, value string) (*domain.RegistrationDraft, error) {
	f.lastField, f.lastValue = field, value
	if f.err != nil {
		return nil, f.err
	}
	return f.draft, nil
}

func (f *fakeRegistrationService) TouchField(ctx context.Context, draftID, userID string, field domain.Field) (*domain.RegistrationDraft, error) {
	f.lastField, f.touched = field, true
	if f.err != nil {
		return nil, f.err
	}
	return f.draft, nil
}

func (f *fakeRegistrationService) SelectTier(ctx context.Context, draftID, userID, tierID string) (*domain.RegistrationDraft, error) {
	f.lastTierID = tierID
	if f.err != nil {
		return nil, f.err
	}
	return f.draft, nil
}

func (f *fakeRegistrationService) SetTermsAccepted(ctx context.Context, draftID, userID string, accepted bool) (*domain.RegistrationDraft, error) {
	f.lastTerms = accepted
	if f.err != nil {
		return nil, f.err
	}
	return f.draft, nil
}

func (f *fakeRegistrationService) Advance(ctx context.Context, draftID, userID string) (*domain.AdvanceResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.advanceResult, nil
}

func (f *fakeRegistrationService) Retreat(ctx context.Context, draftID, userID string) (*domain.RegistrationDraft, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.draft, nil
}

func (f *fakeRegistrationService) Cancel(ctx context.Context, draftID, userID string) error {
	f.cancelled = true
	return f.err
}

func (f *fakeRegistrationService) GetCredential(ctx context.Context, draftID, userID string) (*domain.Credential, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.credential, nil
}

func testDraft() *domain.RegistrationDraft {
	return &domain.RegistrationDraft{
		ID:      testDraftID,
		EventID: testEventID,
		UserID:  "user-123",
		Step:    domain.StepContactInfo,
		Touched: []string{},
	}
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	return envelope
}

func TestRegistrationController_CreateDraft(t *testing.T) {
	tests := []struct {
		name          string
		eventID       string
		fakeErr       error
		noUserContext bool
		wantStatus    int
		wantErrCode   string
	}{
		{
			name:       "success",
			eventID:    testEventID,
			wantStatus: http.StatusCreated,
		},
		{
			name:        "invalid event id",
			eventID:     "not-a-uuid",
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:          "no user in context",
			eventID:       testEventID,
			noUserContext: true,
			wantStatus:    http.StatusUnauthorized,
			wantErrCode:   helpers.ErrCodeUnauthorized,
		},
		{
			name:        "event not found",
			eventID:     testEventID,
			fakeErr:     domain.ErrNotFound,
			wantStatus:  http.StatusNotFound,
			wantErrCode: helpers.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRegistrationService{draft: testDraft(), err: tt.fakeErr}
			ctrl := NewRegistrationController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/events/"+tt.eventID+"/drafts", nil)
			req.SetPathValue("eventID", tt.eventID)
			if !tt.noUserContext {
				req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
			}
			rr := httptest.NewRecorder()

			ctrl.CreateDraft(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantErrCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantErrCode, envelope.Error.Code)
			} else {
				require.Nil(t, envelope.Error)
			}
		})
	}
}

func TestRegistrationController_PatchDraft(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantErrCode string
		check       func(t *testing.T, fake *fakeRegistrationService)
	}{
		{
			name:       "edit field",
			body:       `{"field":"email","value":"a@b.com"}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, fake *fakeRegistrationService) {
				assert.Equal(t, domain.FieldEmail, fake.lastField)
				assert.Equal(t, "a@b.com", fake.lastValue)
			},
		},
		{
			name:       "touch field",
			body:       `{"field":"email","touched":true}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, fake *fakeRegistrationService) {
				assert.True(t, fake.touched)
			},
		},
		{
			name:       "select tier",
			body:       `{"tier_id":"` + testTierID + `"}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, fake *fakeRegistrationService) {
				assert.Equal(t, testTierID, fake.lastTierID)
			},
		},
		{
			name:       "accept terms",
			body:       `{"terms_accepted":true}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, fake *fakeRegistrationService) {
				assert.True(t, fake.lastTerms)
			},
		},
		{
			name:        "no action",
			body:        `{}`,
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "two actions",
			body:        `{"tier_id":"` + testTierID + `","terms_accepted":true}`,
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "unknown field rejected",
			body:        `{"step":"submitted"}`,
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "invalid json",
			body:        `{invalid`,
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRegistrationService{draft: testDraft()}
			ctrl := NewRegistrationController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPatch, "/drafts/"+testDraftID+"/fields", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.SetPathValue("draftID", testDraftID)
			req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
			rr := httptest.NewRecorder()

			ctrl.PatchDraft(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantErrCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantErrCode, envelope.Error.Code)
			} else {
				require.Nil(t, envelope.Error)
				tt.check(t, fake)
			}
		})
	}
}

func TestRegistrationController_Advance(t *testing.T) {
	tests := []struct {
		name        string
		fakeErr     error
		wantStatus  int
		wantErrCode string
	}{
		{
			name:       "success",
			wantStatus: http.StatusOK,
		},
		{
			name:        "validation failed",
			fakeErr:     domain.ErrValidationFailed,
			wantStatus:  http.StatusUnprocessableEntity,
			wantErrCode: helpers.ErrCodeValidationFailed,
		},
		{
			name:        "out of capacity",
			fakeErr:     domain.ErrOutOfCapacity,
			wantStatus:  http.StatusConflict,
			wantErrCode: helpers.ErrCodeOutOfCapacity,
		},
		{
			name:        "terms not accepted",
			fakeErr:     domain.ErrTermsNotAccepted,
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "foreign draft",
			fakeErr:     domain.ErrForbidden,
			wantStatus:  http.StatusForbidden,
			wantErrCode: helpers.ErrCodeForbidden,
		},
		{
			name:        "closed draft",
			fakeErr:     domain.ErrDraftClosed,
			wantStatus:  http.StatusConflict,
			wantErrCode: helpers.ErrCodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRegistrationService{
				draft:         testDraft(),
				advanceResult: &domain.AdvanceResult{Step: domain.StepTicketSelection},
				err:           tt.fakeErr,
			}
			ctrl := NewRegistrationController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/drafts/"+testDraftID+"/advance", nil)
			req.SetPathValue("draftID", testDraftID)
			req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
			rr := httptest.NewRecorder()

			ctrl.Advance(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantErrCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantErrCode, envelope.Error.Code)
			} else {
				require.Nil(t, envelope.Error)
			}
		})
	}
}

func TestRegistrationController_Advance_SubmissionReturnsCredential(t *testing.T) {
	cred := &domain.Credential{
		ID:             "cred-1",
		Code:           "code-abc",
		RegistrationID: testDraftID,
		EventID:        testEventID,
		TierID:         testTierID,
		Status:         domain.CredentialStatusIssued,
	}
	fake := &fakeRegistrationService{
		advanceResult: &domain.AdvanceResult{Step: domain.StepSubmitted, Credential: cred},
	}
	ctrl := NewRegistrationController(testLogger, fake)
	req := httptest.NewRequest(http.MethodPost, "/drafts/"+testDraftID+"/advance", nil)
	req.SetPathValue("draftID", testDraftID)
	req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
	rr := httptest.NewRecorder()

	ctrl.Advance(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	envelope := decodeEnvelope(t, rr)
	dataBytes, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var result domain.AdvanceResult
	require.NoError(t, json.Unmarshal(dataBytes, &result))
	assert.Equal(t, domain.StepSubmitted, result.Step)
	require.NotNil(t, result.Credential)
	assert.Equal(t, "code-abc", result.Credential.Code)
	assert.Equal(t, testDraftID, result.Credential.RegistrationID)
}

func TestRegistrationController_Cancel(t *testing.T) {
	fake := &fakeRegistrationService{}
	ctrl := NewRegistrationController(testLogger, fake)
	req := httptest.NewRequest(http.MethodDelete, "/drafts/"+testDraftID, nil)
	req.SetPathValue("draftID", testDraftID)
	req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
	rr := httptest.NewRecorder()

	ctrl.Cancel(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, fake.cancelled)
}

func TestRegistrationController_GetDraft_IncludesFieldStates(t *testing.T) {
	draft := testDraft()
	draft.Email = "not-an-email"
	draft.Touched = []string{"email"}
	fake := &fakeRegistrationService{draft: draft}
	ctrl := NewRegistrationController(testLogger, fake)
	req := httptest.NewRequest(http.MethodGet, "/drafts/"+testDraftID, nil)
	req.SetPathValue("draftID", testDraftID)
	req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
	rr := httptest.NewRecorder()

	ctrl.GetDraft(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	envelope := decodeEnvelope(t, rr)
	dataBytes, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var resp DraftResponse
	require.NoError(t, json.Unmarshal(dataBytes, &resp))
	emailState, ok := resp.FieldStates[domain.FieldEmail]
	require.True(t, ok)
	assert.False(t, emailState.Valid)
	assert.True(t, emailState.Visible)
	nameState := resp.FieldStates[domain.FieldName]
	assert.False(t, nameState.Visible)
}

package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventpass/internal/delivery/http/helpers"
	"eventpass/internal/delivery/http/middleware"
	"eventpass/internal/domain"
)

type fakeCheckInService struct {
	result      *domain.CheckInResult
	err         error
	lastCode    string
	lastEventID string
}

func (f *fakeCheckInService) ValidateAndRedeem(ctx context.Context, scannedCode, eventID string, now time.Time) (*domain.CheckInResult, error) {
	f.lastCode, f.lastEventID = scannedCode, eventID
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestCheckInController_Scan(t *testing.T) {
	redeemedAt := time.Now().UTC()
	okResult := &domain.CheckInResult{
		Credential: &domain.Credential{
			Code:       "code-abc",
			EventID:    testEventID,
			Status:     domain.CredentialStatusRedeemed,
			RedeemedAt: &redeemedAt,
		},
		Event: &domain.Event{ID: testEventID, Name: "Taipei Music Festival"},
		Tier:  &domain.TicketTier{ID: testTierID, Name: "General"},
	}

	tests := []struct {
		name        string
		body        string
		fakeErr     error
		wantStatus  int
		wantErrCode string
	}{
		{
			name:       "success",
			body:       `{"code":"code-abc","event_id":"` + testEventID + `"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:        "missing code",
			body:        `{"event_id":"` + testEventID + `"}`,
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "event id not a uuid",
			body:        `{"code":"code-abc","event_id":"nope"}`,
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "unknown code",
			body:        `{"code":"code-abc","event_id":"` + testEventID + `"}`,
			fakeErr:     domain.ErrNotFound,
			wantStatus:  http.StatusNotFound,
			wantErrCode: helpers.ErrCodeNotFound,
		},
		{
			name:        "already redeemed",
			body:        `{"code":"code-abc","event_id":"` + testEventID + `"}`,
			fakeErr:     domain.ErrAlreadyRedeemed,
			wantStatus:  http.StatusConflict,
			wantErrCode: helpers.ErrCodeAlreadyRedeemed,
		},
		{
			name:        "void credential",
			body:        `{"code":"code-abc","event_id":"` + testEventID + `"}`,
			fakeErr:     domain.ErrCredentialVoid,
			wantStatus:  http.StatusConflict,
			wantErrCode: helpers.ErrCodeCredentialVoid,
		},
		{
			name:        "outside admission window",
			body:        `{"code":"code-abc","event_id":"` + testEventID + `"}`,
			fakeErr:     domain.ErrOutsideWindow,
			wantStatus:  http.StatusUnprocessableEntity,
			wantErrCode: helpers.ErrCodeOutsideWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCheckInService{result: okResult, err: tt.fakeErr}
			ctrl := NewCheckInController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/checkin/scan", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(middleware.SetUserID(req.Context(), "staff-1"))
			rr := httptest.NewRecorder()

			ctrl.Scan(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantErrCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantErrCode, envelope.Error.Code)
			} else {
				require.Nil(t, envelope.Error)
				assert.Equal(t, "code-abc", fake.lastCode)
				assert.Equal(t, testEventID, fake.lastEventID)
			}
		})
	}
}

func TestCheckInController_Scan_TrimsScannedCode(t *testing.T) {
	fake := &fakeCheckInService{result: &domain.CheckInResult{
		Credential: &domain.Credential{Code: "code-abc"},
	}}
	ctrl := NewCheckInController(testLogger, fake)
	body := `{"code":"  code-abc  ","event_id":"` + testEventID + `"}`
	req := httptest.NewRequest(http.MethodPost, "/checkin/scan", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.SetUserID(req.Context(), "staff-1"))
	rr := httptest.NewRecorder()

	ctrl.Scan(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "code-abc", fake.lastCode)
}

func TestCheckInController_Scan_ResultEnvelope(t *testing.T) {
	redeemedAt := time.Date(2026, 9, 12, 18, 30, 0, 0, time.UTC)
	fake := &fakeCheckInService{result: &domain.CheckInResult{
		Credential: &domain.Credential{
			Code:       "code-abc",
			EventID:    testEventID,
			Status:     domain.CredentialStatusRedeemed,
			RedeemedAt: &redeemedAt,
		},
		Event: &domain.Event{ID: testEventID, Name: "Taipei Music Festival"},
	}}
	ctrl := NewCheckInController(testLogger, fake)
	body := `{"code":"code-abc","event_id":"` + testEventID + `"}`
	req := httptest.NewRequest(http.MethodPost, "/checkin/scan", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.SetUserID(req.Context(), "staff-1"))
	rr := httptest.NewRecorder()

	ctrl.Scan(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	envelope := decodeEnvelope(t, rr)
	dataBytes, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var result domain.CheckInResult
	require.NoError(t, json.Unmarshal(dataBytes, &result))
	require.NotNil(t, result.Credential)
	assert.Equal(t, domain.CredentialStatusRedeemed, result.Credential.Status)
	require.NotNil(t, result.Credential.RedeemedAt)
	assert.True(t, result.Credential.RedeemedAt.Equal(redeemedAt))
	require.NotNil(t, result.Event)
	assert.Equal(t, "Taipei Music Festival", result.Event.Name)
}

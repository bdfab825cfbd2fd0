package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/middleware"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/models"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
)

func requestWithIdentity(method, path, hash string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	return req.WithContext(middleware.WithIdentity(req.Context(), middleware.Identity{Raw: "ip:192.0.2.10", Hash: hash}))
}

func TestFormHandler_Submit(t *testing.T) {
	contact := &models.ContactRequest{Name: "Marie Dupont", Email: "marie.dupont@example.fr", Subject: "Excel", Message: "Please call me back on Monday.", Consent: true}
	appointment := &models.AppointmentRequest{Name: "Marie Dupont", Email: "marie.dupont@example.fr", Program: "Excel avancé", Slot: "morning", Consent: true}
	complaint := &models.ComplaintRequest{Name: "Marie Dupont", Email: "marie.dupont@example.fr", Category: "pedagogy", Consent: true}

	tests := []struct {
		name    string
		kind    string
		payload any
		call    func(h *FormHandler, w http.ResponseWriter, r *http.Request) error
	}{
		{
			name:    "Contact",
			kind:    constants.SubmissionKindContact,
			payload: contact,
			call: func(h *FormHandler, w http.ResponseWriter, r *http.Request) error {
				return h.SubmitContact(w, r, contact)
			},
		},
		{
			name:    "Appointment",
			kind:    constants.SubmissionKindAppointment,
			payload: appointment,
			call: func(h *FormHandler, w http.ResponseWriter, r *http.Request) error {
				return h.SubmitAppointment(w, r, appointment)
			},
		},
		{
			name:    "Complaint",
			kind:    constants.SubmissionKindComplaint,
			payload: complaint,
			call: func(h *FormHandler, w http.ResponseWriter, r *http.Request) error {
				return h.SubmitComplaint(w, r, complaint)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			svc := new(MockSubmissionService)
			svc.On("Submit", mock.Anything, tt.kind, tt.payload, "hash-1").
				Return(&models.FormSubmission{ID: "7d4a3c1e-0000-4000-8000-000000000001", Kind: tt.kind}, nil)
			h := NewFormHandler(svc)
			rr := httptest.NewRecorder()

			// Act
			err := tt.call(h, rr, requestWithIdentity(http.MethodPost, "/api/forms", "hash-1"))

			// Assert
			require.NoError(t, err)
			assert.Equal(t, http.StatusCreated, rr.Code)

			var resp struct {
				Success bool                     `json:"success"`
				Data    models.SubmissionReceipt `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.True(t, resp.Success)
			assert.Equal(t, "7d4a3c1e-0000-4000-8000-000000000001", resp.Data.Reference)
			assert.Equal(t, constants.MsgSubmissionReceived, resp.Data.Message)
			svc.AssertExpectations(t)
		})
	}

	t.Run("Service error is returned to the pipeline", func(t *testing.T) {
		// Arrange
		svc := new(MockSubmissionService)
		svc.On("Submit", mock.Anything, constants.SubmissionKindContact, contact, "hash-1").
			Return(nil, utils.NewDuplicateError("FormSubmission", "id", "x"))
		h := NewFormHandler(svc)
		rr := httptest.NewRecorder()

		// Act
		err := h.SubmitContact(rr, requestWithIdentity(http.MethodPost, constants.ContactPath, "hash-1"), contact)

		// Assert
		var appErr *utils.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, http.StatusConflict, appErr.StatusCode)
		assert.Zero(t, rr.Body.Len())
	})
}

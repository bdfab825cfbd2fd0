package handlers

import (
	"net/http"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/middleware"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/models"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
)

// FormHandler serves the public form endpoints. Its methods run behind
// middleware.Protect and receive payloads that are already decoded,
// validated and scanned.
type FormHandler struct {
	submissions SubmissionServiceInterface
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(submissions SubmissionServiceInterface) *FormHandler {
	return &FormHandler{
		submissions: submissions,
	}
}

// SubmitContact stores a contact request.
//
// HTTP Method:
//   - POST
//
// URL Path:
//   - /api/contact
//
// Responses:
//   - 201 Created: {"data":{"reference":"...","message":"..."}}
//   - 400 Bad Request: validation_error or security_violation
//   - 403 Forbidden: csrf_validation_failed
//   - 429 Too Many Requests: rate_limited
func (h *FormHandler) SubmitContact(w http.ResponseWriter, r *http.Request, payload *models.ContactRequest) error {
	return h.submit(w, r, constants.SubmissionKindContact, payload)
}

// SubmitAppointment stores an appointment request for a training program.
// Responses are those of SubmitContact.
func (h *FormHandler) SubmitAppointment(w http.ResponseWriter, r *http.Request, payload *models.AppointmentRequest) error {
	return h.submit(w, r, constants.SubmissionKindAppointment, payload)
}

// SubmitComplaint stores a complaint. Responses are those of SubmitContact.
func (h *FormHandler) SubmitComplaint(w http.ResponseWriter, r *http.Request, payload *models.ComplaintRequest) error {
	return h.submit(w, r, constants.SubmissionKindComplaint, payload)
}

func (h *FormHandler) submit(w http.ResponseWriter, r *http.Request, kind string, payload any) error {
	identity, _ := middleware.GetIdentity(r)

	submission, err := h.submissions.Submit(r.Context(), kind, payload, identity.Hash)
	if err != nil {
		return err
	}

	utils.JSON(w, http.StatusCreated, models.SubmissionReceipt{
		Reference: submission.ID,
		Message:   constants.MsgSubmissionReceived,
	})
	return nil
}

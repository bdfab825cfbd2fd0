package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
)

// ContactRequest is the payload of the public contact form.
type ContactRequest struct {
	Name    string `json:"name" validate:"notblank,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,fr_phone"`
	Subject string `json:"subject" validate:"notblank,max=200"`
	Message string `json:"message" validate:"notblank,min=10,max=5000"`

	// Consent must be given for the request to be stored
	Consent bool `json:"consent" validate:"eq=true"`
}

// AppointmentRequest asks for a meeting about a training program.
type AppointmentRequest struct {
	Name          string `json:"name" validate:"notblank,max=100"`
	Email         string `json:"email" validate:"required,email,max=254"`
	Phone         string `json:"phone" validate:"required,fr_phone"`
	Program       string `json:"program" validate:"notblank,max=200"`
	PreferredDate string `json:"preferred_date" validate:"required,datetime=2006-01-02"`
	Slot          string `json:"slot" validate:"required,oneof=morning afternoon"`
	Message       string `json:"message,omitempty" validate:"omitempty,max=2000"`
	Consent       bool   `json:"consent" validate:"eq=true"`
}

// ComplaintRequest is a formal complaint about a training session.
type ComplaintRequest struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,fr_phone"`
	Program     string `json:"program,omitempty" validate:"omitempty,max=200"`
	Category    string `json:"category" validate:"required,oneof=pedagogy organisation accessibility other"`
	Description string `json:"description" validate:"notblank,min=20,max=5000"`
	Consent     bool   `json:"consent" validate:"eq=true"`
}

// FormSubmission is an accepted public form, stored as raw JSON.
type FormSubmission struct {
	// ID is the reference returned to the submitter
	ID string `json:"id" db:"id"`

	// Kind is contact, appointment or complaint
	Kind string `json:"kind" db:"kind"`

	// Payload is the validated request body
	Payload string `json:"payload" db:"payload"`

	IdentityHash string    `json:"-" db:"identity_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the database table name for the FormSubmission model.
func (s *FormSubmission) TableName() string {
	return constants.TableFormSubmissions
}

// NewFormSubmission encodes a validated payload into a new submission.
//
// Parameters:
//   - kind: The form kind
//   - payload: The validated request
//   - identityHash: The hashed caller identity
//
// Returns:
//   - The submission with a fresh reference
//   - Error if the payload cannot be encoded
func NewFormSubmission(kind string, payload any, identityHash string) (*FormSubmission, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s submission: %w", kind, err)
	}

	return &FormSubmission{
		ID:           uuid.New().String(),
		Kind:         kind,
		Payload:      string(raw),
		IdentityHash: identityHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// SubmissionReceipt is the body returned once a form is stored.
type SubmissionReceipt struct {
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

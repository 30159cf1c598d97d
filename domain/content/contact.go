package content

import (
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "printora-backend/pkg/errors"
)

// ContactMessage is one submission of the storefront contact form
type ContactMessage struct {
	ID         string    `json:"id" validate:"required"`
	Name       string    `json:"name" validate:"required,min=1,max=100"`
	Email      string    `json:"email" validate:"required,email"`
	Subject    string    `json:"subject" validate:"required,min=1,max=200"`
	Message    string    `json:"message" validate:"required,min=1,max=5000"`
	Locale     string    `json:"locale,omitempty"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// NewContactMessage creates a contact message with a fresh ID
func NewContactMessage(name, email, subject, message, locale string) (*ContactMessage, error) {
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.NewValidationError("name cannot be empty")
	}
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.NewValidationError("email cannot be empty")
	}
	if strings.TrimSpace(message) == "" {
		return nil, pkgerrors.NewValidationError("message cannot be empty")
	}

	return &ContactMessage{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(name),
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Subject:    strings.TrimSpace(subject),
		Message:    message,
		Locale:     locale,
		ReceivedAt: time.Now(),
	}, nil
}

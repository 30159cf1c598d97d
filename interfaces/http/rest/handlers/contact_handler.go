package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"printora-backend/application/services"
	"printora-backend/pkg/common"
	"printora-backend/pkg/utils"
)

// ContactHandler serves the contact form endpoint
type ContactHandler struct {
	contact *services.ContactService
	maxBody int64
	logger  *zap.Logger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contact *services.ContactService, maxBody int64, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contact: contact,
		maxBody: maxBody,
		logger:  logger,
	}
}

// SubmitContactRequest is the body of a contact form submission
type SubmitContactRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,min=1,max=200"`
	Message string `json:"message" validate:"required,min=1,max=5000"`
	Locale  string `json:"locale,omitempty"`
}

// SubmitContactResponse acknowledges a stored submission without echoing
// the message body back
type SubmitContactResponse struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// SubmitContact handles POST /contact
func (h *ContactHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req SubmitContactRequest
	if err := common.ParseJSONBody(r, &req, h.maxBody); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	locale := req.Locale
	if locale == "" {
		locale, _ = common.GetLocale(r.Context())
	}

	message, err := h.contact.SubmitMessage(r.Context(), services.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
		Locale:  locale,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, SubmitContactResponse{
		ID:         message.ID,
		ReceivedAt: message.ReceivedAt,
	})
}

package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"printora-backend/application/ports"
	"printora-backend/domain/content"
	pkgerrors "printora-backend/pkg/errors"
	"printora-backend/pkg/utils"
)

// ContactInput carries one contact form submission
type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
	Locale  string
}

// ContactService handles contact form submissions. Submissions are
// write-only; abuse control happens in the rate limiting middleware, not
// here.
type ContactService struct {
	store  ports.ContactStore
	logger *zap.Logger
}

// NewContactService creates a new contact service
func NewContactService(store ports.ContactStore, logger *zap.Logger) *ContactService {
	return &ContactService{
		store:  store,
		logger: logger,
	}
}

// SubmitMessage validates and persists a contact form submission
func (s *ContactService) SubmitMessage(ctx context.Context, input ContactInput) (*content.ContactMessage, error) {
	message, err := content.NewContactMessage(input.Name, input.Email, input.Subject, input.Message, input.Locale)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(message); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	if err := s.store.SaveContactMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to save contact message: %w", err)
	}

	s.logger.Info("Contact message received",
		zap.String("message_id", message.ID),
		zap.String("subject", message.Subject))
	return message, nil
}

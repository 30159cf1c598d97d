package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printora-backend/domain/content"
	pkgerrors "printora-backend/pkg/errors"
)

type stubContactStore struct {
	mu       sync.Mutex
	messages []*content.ContactMessage
}

func (s *stubContactStore) SaveContactMessage(_ context.Context, message *content.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	return nil
}

func TestContactService_SubmitMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("Should persist a valid submission", func(t *testing.T) {
		store := &stubContactStore{}
		svc := NewContactService(store, zap.NewNop())

		message, err := svc.SubmitMessage(ctx, ContactInput{
			Name:    "Anna",
			Email:   "Anna@Example.com",
			Subject: "Paper weight question",
			Message: "Which paper weight do you recommend for flyers?",
			Locale:  "de",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, message.ID)
		assert.Equal(t, "anna@example.com", message.Email)
		assert.Len(t, store.messages, 1)
	})

	t.Run("Should reject an invalid email", func(t *testing.T) {
		svc := NewContactService(&stubContactStore{}, zap.NewNop())

		_, err := svc.SubmitMessage(ctx, ContactInput{
			Name:    "Anna",
			Email:   "not-an-email",
			Subject: "Hello",
			Message: "Hi",
		})

		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("Should reject an empty message", func(t *testing.T) {
		svc := NewContactService(&stubContactStore{}, zap.NewNop())

		_, err := svc.SubmitMessage(ctx, ContactInput{
			Name:    "Anna",
			Email:   "anna@example.com",
			Subject: "Hello",
			Message: "   ",
		})

		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

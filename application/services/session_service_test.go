package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSessionService_GetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create a fresh session without an ID", func(t *testing.T) {
		svc := NewSessionService(newServiceRegistry(t), zap.NewNop())

		session, created := svc.GetOrCreate(ctx, "", "de", "EUR")

		assert.True(t, created)
		assert.NotEmpty(t, session.ID)
		assert.Equal(t, "de", session.Locale)
	})

	t.Run("Should return the stored session for a known ID", func(t *testing.T) {
		svc := NewSessionService(newServiceRegistry(t), zap.NewNop())
		session, _ := svc.GetOrCreate(ctx, "", "de", "EUR")

		again, created := svc.GetOrCreate(ctx, session.ID, "en", "USD")

		assert.False(t, created)
		assert.Equal(t, session.ID, again.ID)
		assert.Equal(t, "de", again.Locale)
	})

	t.Run("Should start over for an unknown ID", func(t *testing.T) {
		svc := NewSessionService(newServiceRegistry(t), zap.NewNop())

		session, created := svc.GetOrCreate(ctx, "gone", "de", "EUR")

		assert.True(t, created)
		assert.NotEqual(t, "gone", session.ID)
	})
}

func TestSessionService_RememberTemplate(t *testing.T) {
	ctx := context.Background()

	t.Run("Should record recent views newest first without duplicates", func(t *testing.T) {
		svc := NewSessionService(newServiceRegistry(t), zap.NewNop())
		session, _ := svc.GetOrCreate(ctx, "", "de", "EUR")

		svc.RememberTemplate(ctx, session.ID, "tpl-1")
		svc.RememberTemplate(ctx, session.ID, "tpl-2")
		svc.RememberTemplate(ctx, session.ID, "tpl-1")

		got, created := svc.GetOrCreate(ctx, session.ID, "", "")
		require.False(t, created)
		assert.Equal(t, []string{"tpl-1", "tpl-2"}, got.RecentTemplates)
	})
}

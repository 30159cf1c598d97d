package content

import (
	"time"

	"github.com/google/uuid"
)

// VisitorSession is the cached snapshot of one anonymous storefront visit.
// It holds rendering preferences and light browsing state, never credentials.
type VisitorSession struct {
	ID              string    `json:"id"`
	Locale          string    `json:"locale,omitempty"`
	Currency        string    `json:"currency,omitempty"`
	RecentTemplates []string  `json:"recentTemplates,omitempty"`
	CartCount       int       `json:"cartCount"`
	CreatedAt       time.Time `json:"createdAt"`
	LastSeenAt      time.Time `json:"lastSeenAt"`
}

// maxRecentTemplates bounds the recently viewed list.
const maxRecentTemplates = 12

// NewVisitorSession creates a session with a fresh ID
func NewVisitorSession(locale, currency string) *VisitorSession {
	now := time.Now()
	return &VisitorSession{
		ID:         uuid.New().String(),
		Locale:     locale,
		Currency:   currency,
		CreatedAt:  now,
		LastSeenAt: now,
	}
}

// Touch marks the session as just seen
func (s *VisitorSession) Touch() {
	s.LastSeenAt = time.Now()
}

// RememberTemplate records a viewed template, newest first
func (s *VisitorSession) RememberTemplate(templateID string) {
	if templateID == "" {
		return
	}
	recent := []string{templateID}
	for _, id := range s.RecentTemplates {
		if id != templateID {
			recent = append(recent, id)
		}
	}
	if len(recent) > maxRecentTemplates {
		recent = recent[:maxRecentTemplates]
	}
	s.RecentTemplates = recent
	s.Touch()
}

package events

import (
	"time"
)

// Rate Limiter Events

// RateLimitExceeded is raised when a client exceeds its request allowance
type RateLimitExceeded struct {
	BaseEvent
	Key          string  `json:"key"`
	Preset       string  `json:"preset"`
	Severity     string  `json:"severity"`
	OverageRatio float64 `json:"overage_ratio"`
	ReferenceID  string  `json:"reference_id"`
}

// NewRateLimitExceeded creates a RateLimitExceeded event
func NewRateLimitExceeded(key, preset, severity string, overageRatio float64, referenceID string, timestamp time.Time) RateLimitExceeded {
	return RateLimitExceeded{
		BaseEvent: BaseEvent{
			AggregateID: key,
			EventType:   EventTypeRateLimitExceeded,
			Timestamp:   timestamp,
			Version:     1,
		},
		Key:          key,
		Preset:       preset,
		Severity:     severity,
		OverageRatio: overageRatio,
		ReferenceID:  referenceID,
	}
}

// ClientBlocked is raised when a client is placed under a temporary block
type ClientBlocked struct {
	BaseEvent
	Key             string `json:"key"`
	Preset          string `json:"preset"`
	Severity        string `json:"severity"`
	ThreatLevel     string `json:"threat_level"`
	DurationSeconds int    `json:"duration_seconds"`
	ReferenceID     string `json:"reference_id"`
}

// NewClientBlocked creates a ClientBlocked event
func NewClientBlocked(key, preset, severity, threatLevel string, durationSeconds int, referenceID string, timestamp time.Time) ClientBlocked {
	return ClientBlocked{
		BaseEvent: BaseEvent{
			AggregateID: key,
			EventType:   EventTypeClientBlocked,
			Timestamp:   timestamp,
			Version:     1,
		},
		Key:             key,
		Preset:          preset,
		Severity:        severity,
		ThreatLevel:     threatLevel,
		DurationSeconds: durationSeconds,
		ReferenceID:     referenceID,
	}
}

// ClientUnblocked is raised when a block ends, either by expiring or by an
// operator removing it
type ClientUnblocked struct {
	BaseEvent
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// Unblock reasons
const (
	UnblockReasonExpired = "expired"
	UnblockReasonManual  = "manual"
)

// NewClientUnblocked creates a ClientUnblocked event
func NewClientUnblocked(key, reason string, timestamp time.Time) ClientUnblocked {
	return ClientUnblocked{
		BaseEvent: BaseEvent{
			AggregateID: key,
			EventType:   EventTypeClientUnblocked,
			Timestamp:   timestamp,
			Version:     1,
		},
		Key:    key,
		Reason: reason,
	}
}

// SuspicionRaised is raised when a client's behavioral threat level increases
type SuspicionRaised struct {
	BaseEvent
	Key            string `json:"key"`
	ThreatLevel    string `json:"threat_level"`
	ViolationCount int    `json:"violation_count"`
}

// NewSuspicionRaised creates a SuspicionRaised event
func NewSuspicionRaised(key, threatLevel string, violationCount int, timestamp time.Time) SuspicionRaised {
	return SuspicionRaised{
		BaseEvent: BaseEvent{
			AggregateID: key,
			EventType:   EventTypeSuspicionRaised,
			Timestamp:   timestamp,
			Version:     1,
		},
		Key:            key,
		ThreatLevel:    threatLevel,
		ViolationCount: violationCount,
	}
}

package ratelimit

import (
	"time"
)

// Severity classifies how far past its allowance a client went, measured by
// the overage ratio (observed requests / limit).
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
	SeveritySevere Severity = "severe"
)

// Overage ratio boundaries for each severity tier.
const (
	overageLow    = 1.3
	overageMedium = 2.5
	overageHigh   = 5.0
	overageSevere = 10.0
)

// ClassifyOverage maps an overage ratio to a severity tier. Ratios below the
// low boundary stay at none: the client is over the limit but not enough to
// escalate.
func ClassifyOverage(ratio float64) Severity {
	switch {
	case ratio >= overageSevere:
		return SeveritySevere
	case ratio >= overageHigh:
		return SeverityHigh
	case ratio >= overageMedium:
		return SeverityMedium
	case ratio >= overageLow:
		return SeverityLow
	default:
		return SeverityNone
	}
}

// BaseBlockDuration returns the unamplified block duration for a severity.
func BaseBlockDuration(s Severity) time.Duration {
	switch s {
	case SeveritySevere:
		return time.Hour
	case SeverityHigh:
		return 15 * time.Minute
	case SeverityMedium:
		return 5 * time.Minute
	case SeverityLow:
		return time.Minute
	default:
		return 0
	}
}

// ThreatLevel classifies a client's behavioral score.
type ThreatLevel string

const (
	ThreatNone     ThreatLevel = "none"
	ThreatLow      ThreatLevel = "low"
	ThreatElevated ThreatLevel = "elevated"
	ThreatHigh     ThreatLevel = "high"
)

// Behavioral score weights. The components measure repeat offending, endpoint
// scanning, error hammering and interest in sensitive endpoints.
const (
	weightViolations  = 0.40
	weightBreadth     = 0.25
	weightErrors      = 0.20
	weightSensitivity = 0.15

	// Saturation points: the count at which a component maxes out.
	saturationViolations = 10
	saturationBreadth    = 15
	saturationSensitive  = 5

	// Error ratio only counts once the sample is meaningful.
	minRequestsForErrorRatio = 10
)

// Threat level boundaries over the weighted score.
const (
	threatLowScore      = 0.15
	threatElevatedScore = 0.40
	threatHighScore     = 0.70
)

// BehaviorSnapshot summarizes a client's recent history for scoring.
type BehaviorSnapshot struct {
	Violations        int
	DistinctEndpoints int
	Requests          int
	Errors            int
	SensitiveHits     int
}

// ScoreThreat computes the weighted behavioral score and its level.
func ScoreThreat(s BehaviorSnapshot) (float64, ThreatLevel) {
	score := saturate(s.Violations, saturationViolations) * weightViolations
	score += saturate(s.DistinctEndpoints, saturationBreadth) * weightBreadth
	if s.Requests >= minRequestsForErrorRatio {
		score += float64(s.Errors) / float64(s.Requests) * weightErrors
	}
	score += saturate(s.SensitiveHits, saturationSensitive) * weightSensitivity

	switch {
	case score >= threatHighScore:
		return score, ThreatHigh
	case score >= threatElevatedScore:
		return score, ThreatElevated
	case score >= threatLowScore:
		return score, ThreatLow
	default:
		return score, ThreatNone
	}
}

func saturate(count, saturation int) float64 {
	if count >= saturation {
		return 1
	}
	if count <= 0 {
		return 0
	}
	return float64(count) / float64(saturation)
}

// BlockMultiplier amplifies a block duration by threat level.
func BlockMultiplier(level ThreatLevel) float64 {
	switch level {
	case ThreatHigh:
		return 3.0
	case ThreatElevated:
		return 2.0
	case ThreatLow:
		return 1.5
	default:
		return 1.0
	}
}

// threatAtLeast reports whether level meets or exceeds the floor.
func threatAtLeast(level, floor ThreatLevel) bool {
	return threatRank(level) >= threatRank(floor)
}

func threatRank(level ThreatLevel) int {
	switch level {
	case ThreatHigh:
		return 3
	case ThreatElevated:
		return 2
	case ThreatLow:
		return 1
	default:
		return 0
	}
}

// ShouldBlock decides whether a violation warrants a temporary block: only
// severe overages, or high overages from a client whose behavior already
// looks suspicious.
func ShouldBlock(severity Severity, threat ThreatLevel) bool {
	if severity == SeveritySevere {
		return true
	}
	return severity == SeverityHigh && threatAtLeast(threat, ThreatElevated)
}

package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printora-backend/domain/events"
	"printora-backend/pkg/collections"
	"printora-backend/pkg/errors"
)

// Request describes one incoming request for the limiter to judge.
type Request struct {
	IP       string
	Resource string
	Email    string
	Preset   string
	Locale   string
}

// Decision is the limiter's verdict on one request. On rejection it carries
// everything the HTTP layer needs for a structured 429: the retry hint, the
// localized message and a reference ID for support lookups.
type Decision struct {
	Allowed     bool
	Bypassed    bool
	Blocked     bool
	Limit       int
	Remaining   int
	RetryAfter  time.Duration
	ResetAt     time.Time
	Severity    Severity
	ThreatLevel ThreatLevel
	Message     string
	ReferenceID string
	Preset      string
}

// LimiterConfig configures the limiter as a whole.
type LimiterConfig struct {
	Presets       map[string]Config
	DefaultPreset string
	Allowlist     *Allowlist
	Catalog       *MessageCatalog

	// Capacity caps for the tracking stores. When a store is full the
	// oldest-tracked entry is dropped, so a flood of distinct clients
	// cannot grow memory without bound.
	MaxTrackedKeys    int
	MaxTrackedClients int
	MaxBlocks         int

	SweepInterval time.Duration

	// HistoryWindow bounds how far back client behavior counts toward
	// the threat score.
	HistoryWindow time.Duration
}

func (c LimiterConfig) withDefaults() LimiterConfig {
	if c.Presets == nil {
		c.Presets = DefaultPresets()
	}
	if c.DefaultPreset == "" {
		c.DefaultPreset = PresetBrowsing
	}
	if _, ok := c.Presets[c.DefaultPreset]; !ok {
		c.Presets[c.DefaultPreset] = Config{Limit: 120, Window: time.Minute, Scope: ScopeIP}
	}
	if c.Catalog == nil {
		c.Catalog = DefaultCatalog()
	}
	if c.MaxTrackedKeys <= 0 {
		c.MaxTrackedKeys = 10000
	}
	if c.MaxTrackedClients <= 0 {
		c.MaxTrackedClients = 5000
	}
	if c.MaxBlocks <= 0 {
		c.MaxBlocks = 2000
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 10 * time.Minute
	}
	return c
}

// window tracks request timestamps for one key. Each window carries its own
// mutex so hot keys do not serialize the whole limiter.
type window struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// observe prunes timestamps outside the sliding window, records the current
// attempt and returns the observed count including it, plus the oldest live
// timestamp. Rejected attempts are recorded too, so a client that keeps
// hammering sees its overage ratio keep growing.
func (w *window) observe(now time.Time, span time.Duration) (int, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-span)
	kept := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.timestamps = append(kept, now)
	return len(w.timestamps), w.timestamps[0]
}

// live reports whether any timestamp is still inside the span.
func (w *window) live(now time.Time, span time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-span)
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			return true
		}
	}
	return false
}

// Block is an active temporary block on a client.
type Block struct {
	Key         string
	Preset      string
	Severity    Severity
	ThreatLevel ThreatLevel
	ReferenceID string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// maxHistorySamples caps each per-client sample slice so one client cannot
// grow its history without bound between sweeps.
const maxHistorySamples = 2048

// history tracks one client's recent behavior for threat scoring.
type history struct {
	mu         sync.Mutex
	violations []time.Time
	requests   []time.Time
	errorTimes []time.Time
	sensitive  []time.Time
	endpoints  map[string]time.Time
	lastLevel  ThreatLevel
}

func (h *history) recordViolation(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.violations = capSamples(append(h.violations, now))
}

func (h *history) recordOutcome(now time.Time, endpoint string, isError, sensitiveHit bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.requests = capSamples(append(h.requests, now))
	if isError {
		h.errorTimes = capSamples(append(h.errorTimes, now))
	}
	if sensitiveHit {
		h.sensitive = capSamples(append(h.sensitive, now))
	}
	if endpoint != "" {
		if h.endpoints == nil {
			h.endpoints = make(map[string]time.Time)
		}
		h.endpoints[endpoint] = now
	}
}

// snapshot prunes samples outside the behavior window and returns the counts.
func (h *history) snapshot(now time.Time, span time.Duration) BehaviorSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := now.Add(-span)
	h.violations = pruneSamples(h.violations, cutoff)
	h.requests = pruneSamples(h.requests, cutoff)
	h.errorTimes = pruneSamples(h.errorTimes, cutoff)
	h.sensitive = pruneSamples(h.sensitive, cutoff)
	for endpoint, seen := range h.endpoints {
		if !seen.After(cutoff) {
			delete(h.endpoints, endpoint)
		}
	}

	return BehaviorSnapshot{
		Violations:        len(h.violations),
		DistinctEndpoints: len(h.endpoints),
		Requests:          len(h.requests),
		Errors:            len(h.errorTimes),
		SensitiveHits:     len(h.sensitive),
	}
}

// raiseLevel records the latest level and reports whether it increased.
func (h *history) raiseLevel(level ThreatLevel) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	raised := threatRank(level) > threatRank(h.lastLevel)
	h.lastLevel = level
	return raised
}

func (h *history) stale(now time.Time, span time.Duration) bool {
	s := h.snapshot(now, span)
	return s.Violations == 0 && s.Requests == 0 && s.DistinctEndpoints == 0
}

func pruneSamples(samples []time.Time, cutoff time.Time) []time.Time {
	kept := samples[:0]
	for _, ts := range samples {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}

func capSamples(samples []time.Time) []time.Time {
	if len(samples) > maxHistorySamples {
		return samples[len(samples)-maxHistorySamples:]
	}
	return samples
}

// Stats is a point-in-time summary of limiter state.
type Stats struct {
	ActiveWindows          int    `json:"activeWindows"`
	TrackedClients         int    `json:"trackedClients"`
	ActiveBlocks           int    `json:"activeBlocks"`
	TotalAllowed           uint64 `json:"totalAllowed"`
	TotalRejected          uint64 `json:"totalRejected"`
	TotalBlockedRejections uint64 `json:"totalBlockedRejections"`
	BlocksCreated          uint64 `json:"blocksCreated"`
}

// Limiter enforces sliding-window rate limits with behavioral escalation.
// Decisions are made entirely in process; any internal failure fails open so
// the limiter can never take the storefront down with it.
type Limiter struct {
	logger  *zap.Logger
	bus     *events.Bus
	catalog *MessageCatalog

	// mu guards the reconfigurable parts: presets, allowlist and the
	// derived longest window span.
	mu        sync.RWMutex
	presets   map[string]Config
	deflt     string
	allowlist *Allowlist
	maxSpan   time.Duration

	historyWindow time.Duration

	windows   *collections.BoundedMap[string, *window]
	histories *collections.BoundedMap[string, *history]
	blocks    *collections.BoundedMap[string, *Block]

	statsMu         sync.Mutex
	totalAllowed    uint64
	totalRejected   uint64
	blockRejections uint64
	blocksCreated   uint64

	done      chan struct{}
	closeOnce sync.Once
}

// NewLimiter creates a limiter and starts its background sweep.
func NewLimiter(cfg LimiterConfig, logger *zap.Logger, bus *events.Bus) *Limiter {
	cfg = cfg.withDefaults()

	l := &Limiter{
		logger:        logger,
		bus:           bus,
		catalog:       cfg.Catalog,
		presets:       cfg.Presets,
		deflt:         cfg.DefaultPreset,
		allowlist:     cfg.Allowlist,
		maxSpan:       longestWindow(cfg.Presets),
		historyWindow: cfg.HistoryWindow,
		windows:       collections.NewBoundedMap[string, *window](cfg.MaxTrackedKeys),
		histories:     collections.NewBoundedMap[string, *history](cfg.MaxTrackedClients),
		blocks:        collections.NewBoundedMap[string, *Block](cfg.MaxBlocks),
		done:          make(chan struct{}),
	}

	go l.sweepLoop(cfg.SweepInterval)
	return l
}

func longestWindow(presets map[string]Config) time.Duration {
	longest := time.Minute
	for _, p := range presets {
		if p.Window > longest {
			longest = p.Window
		}
	}
	return longest
}

// Check judges one request. It never returns an error: internal failures are
// logged and the request is allowed through.
func (l *Limiter) Check(ctx context.Context, req Request) (decision Decision) {
	defer func() {
		if rec := recover(); rec != nil {
			err := errors.NewRateLimiterInternalError("check", fmt.Errorf("panic: %v", rec))
			l.logger.Error("Rate limiter failed open",
				zap.String("ip", req.IP),
				zap.String("preset", req.Preset),
				zap.Error(err))
			decision = Decision{Allowed: true, Preset: req.Preset, Severity: SeverityNone, ThreatLevel: ThreatNone}
		}
	}()

	now := time.Now()
	presetName, preset := l.preset(req.Preset)

	l.mu.RLock()
	allowlist := l.allowlist
	l.mu.RUnlock()

	if allowlist.Contains(req.IP) {
		l.count(&l.totalAllowed)
		return Decision{
			Allowed:     true,
			Bypassed:    true,
			Limit:       preset.Limit,
			Remaining:   preset.Limit,
			Preset:      presetName,
			Severity:    SeverityNone,
			ThreatLevel: ThreatNone,
		}
	}

	key := buildKey(preset.Scope, req)
	clientKey := addressKey(req.IP)

	if d, rejected := l.checkBlocks(ctx, now, key, clientKey, preset, presetName, req.Locale); rejected {
		return d
	}

	w, _ := l.windows.GetOrSet(key, &window{})
	observed, oldest := w.observe(now, preset.Window)
	resetAt := oldest.Add(preset.Window)

	if observed <= preset.Limit {
		l.count(&l.totalAllowed)
		return Decision{
			Allowed:     true,
			Limit:       preset.Limit,
			Remaining:   preset.Limit - observed,
			ResetAt:     resetAt,
			Preset:      presetName,
			Severity:    SeverityNone,
			ThreatLevel: ThreatNone,
		}
	}

	return l.reject(ctx, now, req, key, clientKey, preset, presetName, observed, resetAt)
}

// checkBlocks rejects the request when the scoped key or the client address
// is under an active block. Expired blocks found on the way are removed.
func (l *Limiter) checkBlocks(ctx context.Context, now time.Time, key, clientKey string, preset Config, presetName, locale string) (Decision, bool) {
	keys := []string{key}
	if clientKey != key {
		keys = append(keys, clientKey)
	}

	for _, bk := range keys {
		blk, ok := l.blocks.Get(bk)
		if !ok {
			continue
		}
		if now.Before(blk.ExpiresAt) {
			l.count(&l.totalRejected)
			l.count(&l.blockRejections)
			l.logger.Debug("Request rejected by active block",
				zap.String("key", bk),
				zap.String("reference_id", blk.ReferenceID),
				zap.Time("expires_at", blk.ExpiresAt))
			return Decision{
				Allowed:     false,
				Blocked:     true,
				Limit:       preset.Limit,
				RetryAfter:  blk.ExpiresAt.Sub(now),
				ResetAt:     blk.ExpiresAt,
				Severity:    blk.Severity,
				ThreatLevel: blk.ThreatLevel,
				Message:     l.catalog.Blocked(locale),
				ReferenceID: blk.ReferenceID,
				Preset:      presetName,
			}, true
		}
		l.blocks.Delete(bk)
		l.bus.Publish(ctx, events.NewClientUnblocked(bk, events.UnblockReasonExpired, now))
		l.logger.Info("Block expired", zap.String("key", bk))
	}
	return Decision{}, false
}

// reject handles a request that went over its allowance: classify the
// overage, update the client's behavior record and decide between a plain
// rejection and a temporary block.
func (l *Limiter) reject(ctx context.Context, now time.Time, req Request, key, clientKey string, preset Config, presetName string, observed int, resetAt time.Time) Decision {
	ratio := float64(observed) / float64(preset.Limit)
	severity := ClassifyOverage(ratio)

	h, _ := l.histories.GetOrSet(clientKey, &history{})
	h.recordViolation(now)
	snapshot := h.snapshot(now, l.historyWindow)
	score, threat := ScoreThreat(snapshot)
	if h.raiseLevel(threat) {
		l.bus.Publish(ctx, events.NewSuspicionRaised(clientKey, string(threat), snapshot.Violations, now))
		l.logger.Warn("Client threat level raised",
			zap.String("key", clientKey),
			zap.String("threat_level", string(threat)),
			zap.Float64("score", score),
			zap.Int("violations", snapshot.Violations))
	}

	referenceID := uuid.New().String()

	if ShouldBlock(severity, threat) {
		duration := time.Duration(float64(BaseBlockDuration(severity)) * BlockMultiplier(threat))
		blk := &Block{
			Key:         clientKey,
			Preset:      presetName,
			Severity:    severity,
			ThreatLevel: threat,
			ReferenceID: referenceID,
			CreatedAt:   now,
			ExpiresAt:   now.Add(duration),
		}
		l.blocks.Set(clientKey, blk)
		l.count(&l.totalRejected)
		l.count(&l.blockRejections)
		l.count(&l.blocksCreated)
		l.logger.Warn("Client blocked",
			zap.String("key", clientKey),
			zap.String("preset", presetName),
			zap.String("severity", string(severity)),
			zap.String("threat_level", string(threat)),
			zap.Duration("duration", duration),
			zap.String("reference_id", referenceID))
		l.bus.Publish(ctx, events.NewClientBlocked(clientKey, presetName, string(severity), string(threat), int(duration.Seconds()), referenceID, now))
		return Decision{
			Allowed:     false,
			Blocked:     true,
			Limit:       preset.Limit,
			RetryAfter:  duration,
			ResetAt:     blk.ExpiresAt,
			Severity:    severity,
			ThreatLevel: threat,
			Message:     l.catalog.Blocked(req.Locale),
			ReferenceID: referenceID,
			Preset:      presetName,
		}
	}

	l.count(&l.totalRejected)
	retryAfter := resetAt.Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	l.logger.Info("Rate limit exceeded",
		zap.String("key", key),
		zap.String("preset", presetName),
		zap.Int("observed", observed),
		zap.Int("limit", preset.Limit),
		zap.String("severity", string(severity)),
		zap.String("reference_id", referenceID))
	l.bus.Publish(ctx, events.NewRateLimitExceeded(key, presetName, string(severity), ratio, referenceID, now))
	return Decision{
		Allowed:     false,
		Limit:       preset.Limit,
		Remaining:   0,
		RetryAfter:  retryAfter,
		ResetAt:     resetAt,
		Severity:    severity,
		ThreatLevel: threat,
		Message:     l.catalog.Limited(presetName, req.Locale),
		ReferenceID: referenceID,
		Preset:      presetName,
	}
}

// RecordOutcome feeds a completed request into the client's behavior record.
// The middleware calls this after the handler ran, so the threat score can
// see error hammering and endpoint scanning, not just violations.
func (l *Limiter) RecordOutcome(ctx context.Context, req Request, statusCode int) {
	if req.IP == "" {
		return
	}
	_, preset := l.preset(req.Preset)

	l.mu.RLock()
	allowlist := l.allowlist
	l.mu.RUnlock()
	if allowlist.Contains(req.IP) {
		return
	}

	now := time.Now()
	ck := addressKey(req.IP)
	h, _ := l.histories.GetOrSet(ck, &history{})
	h.recordOutcome(now, req.Resource, statusCode >= 400, preset.Sensitive)

	snapshot := h.snapshot(now, l.historyWindow)
	score, threat := ScoreThreat(snapshot)
	if h.raiseLevel(threat) {
		l.bus.Publish(ctx, events.NewSuspicionRaised(ck, string(threat), snapshot.Violations, now))
		l.logger.Warn("Client threat level raised",
			zap.String("key", ck),
			zap.String("threat_level", string(threat)),
			zap.Float64("score", score),
			zap.Int("violations", snapshot.Violations))
	}
}

// Unblock removes an active block by key. It reports whether a block was
// removed.
func (l *Limiter) Unblock(ctx context.Context, key string) bool {
	if _, ok := l.blocks.Get(key); !ok {
		return false
	}
	l.blocks.Delete(key)
	l.bus.Publish(ctx, events.NewClientUnblocked(key, events.UnblockReasonManual, time.Now()))
	l.logger.Info("Client unblocked by operator", zap.String("key", key))
	return true
}

// Reset clears the counting window for a key.
func (l *Limiter) Reset(key string) {
	l.windows.Delete(key)
}

// Blocks returns a snapshot of the active blocks.
func (l *Limiter) Blocks() []Block {
	now := time.Now()
	var out []Block
	l.blocks.Range(func(_ string, blk *Block) bool {
		if now.Before(blk.ExpiresAt) {
			out = append(out, *blk)
		}
		return true
	})
	return out
}

// GetStats returns a point-in-time summary of limiter state.
func (l *Limiter) GetStats() Stats {
	now := time.Now()
	active := 0
	l.blocks.Range(func(_ string, blk *Block) bool {
		if now.Before(blk.ExpiresAt) {
			active++
		}
		return true
	})

	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	return Stats{
		ActiveWindows:          l.windows.Len(),
		TrackedClients:         l.histories.Len(),
		ActiveBlocks:           active,
		TotalAllowed:           l.totalAllowed,
		TotalRejected:          l.totalRejected,
		TotalBlockedRejections: l.blockRejections,
		BlocksCreated:          l.blocksCreated,
	}
}

// Reconfigure swaps the presets and allowlist. Tracking stores and their
// contents survive, so live windows keep counting across a reload.
func (l *Limiter) Reconfigure(presets map[string]Config, defaultPreset string, allowlist *Allowlist) {
	if presets == nil {
		presets = DefaultPresets()
	}
	if defaultPreset == "" {
		defaultPreset = PresetBrowsing
	}
	if _, ok := presets[defaultPreset]; !ok {
		presets[defaultPreset] = Config{Limit: 120, Window: time.Minute, Scope: ScopeIP}
	}

	l.mu.Lock()
	l.presets = presets
	l.deflt = defaultPreset
	l.allowlist = allowlist
	l.maxSpan = longestWindow(presets)
	l.mu.Unlock()

	l.logger.Info("Rate limiter reconfigured",
		zap.Int("presets", len(presets)),
		zap.Int("allowlist_entries", allowlist.Size()))
}

// Sweep drops expired blocks, dead windows and stale client histories. It
// returns the removal counts.
func (l *Limiter) Sweep(ctx context.Context) (windows, clients, blocks int) {
	now := time.Now()

	l.mu.RLock()
	span := l.maxSpan
	l.mu.RUnlock()

	l.windows.Range(func(key string, w *window) bool {
		if !w.live(now, span) {
			l.windows.Delete(key)
			windows++
		}
		return true
	})

	l.histories.Range(func(key string, h *history) bool {
		if h.stale(now, l.historyWindow) {
			l.histories.Delete(key)
			clients++
		}
		return true
	})

	l.blocks.Range(func(key string, blk *Block) bool {
		if !now.Before(blk.ExpiresAt) {
			l.blocks.Delete(key)
			l.bus.Publish(ctx, events.NewClientUnblocked(key, events.UnblockReasonExpired, now))
			blocks++
		}
		return true
	})

	if windows > 0 || clients > 0 || blocks > 0 {
		l.logger.Debug("Rate limiter sweep finished",
			zap.Int("windows_removed", windows),
			zap.Int("clients_removed", clients),
			zap.Int("blocks_removed", blocks))
	}
	return windows, clients, blocks
}

// Close stops the background sweep.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

func (l *Limiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Sweep(context.Background())
		case <-l.done:
			return
		}
	}
}

// preset resolves a preset name, falling back to the default for unknown or
// empty names.
func (l *Limiter) preset(name string) (string, Config) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if cfg, ok := l.presets[name]; ok {
		return name, cfg
	}
	return l.deflt, l.presets[l.deflt]
}

func (l *Limiter) count(counter *uint64) {
	l.statsMu.Lock()
	*counter++
	l.statsMu.Unlock()
}

func addressKey(ip string) string {
	return "ip:" + ip
}

// buildKey derives the counting key for a request. Scopes that need a part
// the request does not carry fall back to plain address keying.
func buildKey(scope Scope, req Request) string {
	switch scope {
	case ScopeIPResource:
		if req.Resource != "" {
			return fmt.Sprintf("ip:%s:res:%s", req.IP, req.Resource)
		}
	case ScopeIPEmail:
		if req.Email != "" {
			return fmt.Sprintf("ip:%s:email:%s", req.IP, hashEmail(req.Email))
		}
	}
	return addressKey(req.IP)
}

// hashEmail derives a short stable digest of an email address so raw
// addresses never appear in keys, logs or stats.
func hashEmail(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])[:16]
}

package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printora-backend/domain/events"
)

func newTestLimiter(t *testing.T, cfg LimiterConfig, bus *events.Bus) *Limiter {
	t.Helper()
	l := NewLimiter(cfg, zap.NewNop(), bus)
	t.Cleanup(l.Close)
	return l
}

func singlePreset(name string, cfg Config) LimiterConfig {
	return LimiterConfig{
		Presets:       map[string]Config{name: cfg},
		DefaultPreset: name,
	}
}

// eventRecorder collects published events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (r *eventRecorder) handle(_ context.Context, e events.DomainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) recorded() []events.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.DomainEvent(nil), r.events...)
}

func TestLimiter_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("Should allow requests under the limit and count down remaining", func(t *testing.T) {
		l := newTestLimiter(t, singlePreset("test", Config{Limit: 3, Window: time.Minute, Scope: ScopeIP}), nil)
		req := Request{IP: "203.0.113.7", Preset: "test"}

		first := l.Check(ctx, req)
		second := l.Check(ctx, req)
		third := l.Check(ctx, req)

		assert.True(t, first.Allowed)
		assert.Equal(t, 3, first.Limit)
		assert.Equal(t, 2, first.Remaining)
		assert.Equal(t, 1, second.Remaining)
		assert.Equal(t, 0, third.Remaining)
		assert.True(t, third.Allowed)
		assert.False(t, first.ResetAt.IsZero())
	})

	t.Run("Should reject over the limit with a localized message and reference", func(t *testing.T) {
		l := newTestLimiter(t, singlePreset(PresetContact, Config{Limit: 1, Window: time.Minute, Scope: ScopeIP}), nil)
		req := Request{IP: "203.0.113.8", Preset: PresetContact, Locale: "de"}

		l.Check(ctx, req)
		d := l.Check(ctx, req)

		assert.False(t, d.Allowed)
		assert.False(t, d.Blocked)
		assert.Equal(t, DefaultCatalog().Limited(PresetContact, "de"), d.Message)
		assert.NotEmpty(t, d.ReferenceID)
		assert.Equal(t, PresetContact, d.Preset)
	})

	t.Run("Should report retry timing inside the window", func(t *testing.T) {
		l := newTestLimiter(t, singlePreset("test", Config{Limit: 1, Window: time.Minute, Scope: ScopeIP}), nil)
		req := Request{IP: "203.0.113.9", Preset: "test"}

		l.Check(ctx, req)
		d := l.Check(ctx, req)

		assert.False(t, d.Allowed)
		assert.Greater(t, d.RetryAfter, time.Duration(0))
		assert.LessOrEqual(t, d.RetryAfter, time.Minute)
		assert.WithinDuration(t, time.Now().Add(time.Minute), d.ResetAt, 5*time.Second)
	})

	t.Run("Should fall back to the default preset for unknown names", func(t *testing.T) {
		l := newTestLimiter(t, singlePreset("test", Config{Limit: 2, Window: time.Minute, Scope: ScopeIP}), nil)

		d := l.Check(ctx, Request{IP: "203.0.113.10", Preset: "no-such-preset"})

		assert.True(t, d.Allowed)
		assert.Equal(t, "test", d.Preset)
		assert.Equal(t, 2, d.Limit)
	})
}

func TestLimiter_Escalation(t *testing.T) {
	ctx := context.Background()

	t.Run("Should escalate severity as hammering continues", func(t *testing.T) {
		l := newTestLimiter(t, singlePreset("test", Config{Limit: 2, Window: time.Minute, Scope: ScopeIP}), nil)
		req := Request{IP: "198.51.100.20", Preset: "test"}

		decisions := make([]Decision, 0, 12)
		for i := 0; i < 12; i++ {
			decisions = append(decisions, l.Check(ctx, req))
		}

		assert.Equal(t, SeverityLow, decisions[2].Severity)
		assert.Equal(t, SeverityMedium, decisions[4].Severity)
		assert.Equal(t, SeverityHigh, decisions[9].Severity)
		assert.False(t, decisions[9].Blocked)

		last := decisions[11]
		assert.True(t, last.Blocked)
		assert.Equal(t, SeverityHigh, last.Severity)
		assert.Equal(t, ThreatElevated, last.ThreatLevel)
		assert.Equal(t, 30*time.Minute, last.RetryAfter)
	})

	t.Run("Should block on a severe overage regardless of prior behavior", func(t *testing.T) {
		bus := events.NewBus(zap.NewNop())
		exceeded := &eventRecorder{}
		blocked := &eventRecorder{}
		require.NoError(t, bus.Subscribe(events.EventTypeRateLimitExceeded, exceeded.handle))
		require.NoError(t, bus.Subscribe(events.EventTypeClientBlocked, blocked.handle))

		l := newTestLimiter(t, singlePreset("test", Config{Limit: 1, Window: time.Minute, Scope: ScopeIP}), bus)
		req := Request{IP: "198.51.100.21", Preset: "test"}

		var last Decision
		for i := 0; i < 10; i++ {
			last = l.Check(ctx, req)
		}

		assert.True(t, last.Blocked)
		assert.Equal(t, SeveritySevere, last.Severity)
		assert.Equal(t, 90*time.Minute, last.RetryAfter)

		assert.Len(t, exceeded.recorded(), 8)
		blockEvents := blocked.recorded()
		require.Len(t, blockEvents, 1)
		evt := blockEvents[0].(events.ClientBlocked)
		assert.Equal(t, addressKey(req.IP), evt.Key)
		assert.Equal(t, string(SeveritySevere), evt.Severity)
		assert.Equal(t, int((90 * time.Minute).Seconds()), evt.DurationSeconds)
		assert.Equal(t, last.ReferenceID, evt.ReferenceID)
	})
}

func TestLimiter_Blocks(t *testing.T) {
	ctx := context.Background()

	t.Run("Should reject a blocked client on every preset until the block ends", func(t *testing.T) {
		cfg := LimiterConfig{
			Presets: map[string]Config{
				"tight": {Limit: 1, Window: time.Minute, Scope: ScopeIP},
				"wide":  {Limit: 1000, Window: time.Minute, Scope: ScopeIPResource},
			},
			DefaultPreset: "wide",
		}
		l := newTestLimiter(t, cfg, nil)
		ip := "198.51.100.22"

		var blockedDecision Decision
		for i := 0; i < 10; i++ {
			blockedDecision = l.Check(ctx, Request{IP: ip, Preset: "tight"})
		}
		require.True(t, blockedDecision.Blocked)

		again := l.Check(ctx, Request{IP: ip, Preset: "tight"})
		other := l.Check(ctx, Request{IP: ip, Resource: "/api/v1/blog", Preset: "wide"})

		assert.True(t, again.Blocked)
		assert.Equal(t, blockedDecision.ReferenceID, again.ReferenceID)
		assert.Equal(t, DefaultCatalog().Blocked(""), again.Message)
		assert.True(t, other.Blocked)

		blocks := l.Blocks()
		require.Len(t, blocks, 1)
		assert.Equal(t, addressKey(ip), blocks[0].Key)
	})

	t.Run("Should clear an expired block on the next check", func(t *testing.T) {
		bus := events.NewBus(zap.NewNop())
		unblocked := &eventRecorder{}
		require.NoError(t, bus.Subscribe(events.EventTypeClientUnblocked, unblocked.handle))

		l := newTestLimiter(t, singlePreset("test", Config{Limit: 5, Window: time.Minute, Scope: ScopeIP}), bus)
		ip := "198.51.100.23"
		l.blocks.Set(addressKey(ip), &Block{
			Key:       addressKey(ip),
			ExpiresAt: time.Now().Add(-time.Second),
		})

		d := l.Check(ctx, Request{IP: ip, Preset: "test"})

		assert.True(t, d.Allowed)
		assert.Equal(t, 0, l.blocks.Len())
		evts := unblocked.recorded()
		require.Len(t, evts, 1)
		assert.Equal(t, events.UnblockReasonExpired, evts[0].(events.ClientUnblocked).Reason)
	})

	t.Run("Should lift a block by operator request", func(t *testing.T) {
		bus := events.NewBus(zap.NewNop())
		unblocked := &eventRecorder{}
		require.NoError(t, bus.Subscribe(events.EventTypeClientUnblocked, unblocked.handle))

		l := newTestLimiter(t, singlePreset("test", Config{Limit: 1, Window: time.Minute, Scope: ScopeIP}), bus)
		ip := "198.51.100.24"
		for i := 0; i < 10; i++ {
			l.Check(ctx, Request{IP: ip, Preset: "test"})
		}
		require.Len(t, l.Blocks(), 1)

		assert.True(t, l.Unblock(ctx, addressKey(ip)))
		assert.False(t, l.Unblock(ctx, addressKey(ip)))

		l.Reset(addressKey(ip))
		d := l.Check(ctx, Request{IP: ip, Preset: "test"})
		assert.True(t, d.Allowed)

		evts := unblocked.recorded()
		require.Len(t, evts, 1)
		assert.Equal(t, events.UnblockReasonManual, evts[0].(events.ClientUnblocked).Reason)
	})
}

func TestLimiter_Allowlist(t *testing.T) {
	ctx := context.Background()

	t.Run("Should bypass allowlisted addresses", func(t *testing.T) {
		allowlist, err := NewAllowlist([]string{"127.0.0.1", "10.0.0.0/8"})
		require.NoError(t, err)

		cfg := singlePreset("test", Config{Limit: 1, Window: time.Minute, Scope: ScopeIP})
		cfg.Allowlist = allowlist
		l := newTestLimiter(t, cfg, nil)

		for i := 0; i < 5; i++ {
			d := l.Check(ctx, Request{IP: "10.1.2.3", Preset: "test"})
			assert.True(t, d.Allowed)
			assert.True(t, d.Bypassed)
		}
	})
}

func TestLimiter_Scopes(t *testing.T) {
	ctx := context.Background()

	t.Run("Should key per email under the ip_email scope", func(t *testing.T) {
		l := newTestLimiter(t, singlePreset("order", Config{Limit: 1, Window: time.Minute, Scope: ScopeIPEmail}), nil)
		ip := "198.51.100.30"

		first := l.Check(ctx, Request{IP: ip, Email: "anna@example.com", Preset: "order"})
		repeat := l.Check(ctx, Request{IP: ip, Email: "anna@example.com", Preset: "order"})
		other := l.Check(ctx, Request{IP: ip, Email: "ben@example.com", Preset: "order"})

		assert.True(t, first.Allowed)
		assert.False(t, repeat.Allowed)
		assert.True(t, other.Allowed)
	})

	t.Run("Should normalize emails before keying", func(t *testing.T) {
		l := newTestLimiter(t, singlePreset("order", Config{Limit: 1, Window: time.Minute, Scope: ScopeIPEmail}), nil)
		ip := "198.51.100.31"

		first := l.Check(ctx, Request{IP: ip, Email: " Anna@Example.COM ", Preset: "order"})
		repeat := l.Check(ctx, Request{IP: ip, Email: "anna@example.com", Preset: "order"})

		assert.True(t, first.Allowed)
		assert.False(t, repeat.Allowed)
	})

	t.Run("Should fall back to address keying without an email", func(t *testing.T) {
		l := newTestLimiter(t, singlePreset("order", Config{Limit: 1, Window: time.Minute, Scope: ScopeIPEmail}), nil)
		ip := "198.51.100.32"

		first := l.Check(ctx, Request{IP: ip, Preset: "order"})
		repeat := l.Check(ctx, Request{IP: ip, Preset: "order"})

		assert.True(t, first.Allowed)
		assert.False(t, repeat.Allowed)
	})

	t.Run("Should key per resource under the ip_resource scope", func(t *testing.T) {
		l := newTestLimiter(t, singlePreset("api", Config{Limit: 1, Window: time.Minute, Scope: ScopeIPResource}), nil)
		ip := "198.51.100.33"

		first := l.Check(ctx, Request{IP: ip, Resource: "/api/v1/blog", Preset: "api"})
		repeat := l.Check(ctx, Request{IP: ip, Resource: "/api/v1/blog", Preset: "api"})
		other := l.Check(ctx, Request{IP: ip, Resource: "/api/v1/templates", Preset: "api"})

		assert.True(t, first.Allowed)
		assert.False(t, repeat.Allowed)
		assert.True(t, other.Allowed)
	})
}

func TestLimiter_FailOpen(t *testing.T) {
	t.Run("Should fail open when internals panic", func(t *testing.T) {
		// Hand-built limiter with a nil window store: the lookup panics
		// and the recover path must still allow the request.
		l := &Limiter{
			logger:  zap.NewNop(),
			catalog: DefaultCatalog(),
			presets: map[string]Config{"test": {Limit: 1, Window: time.Minute, Scope: ScopeIP}},
			deflt:   "test",
		}

		d := l.Check(context.Background(), Request{IP: "203.0.113.66", Preset: "test"})

		assert.True(t, d.Allowed)
	})
}

func TestLimiter_RecordOutcome(t *testing.T) {
	ctx := context.Background()

	t.Run("Should raise suspicion from outcome history alone", func(t *testing.T) {
		bus := events.NewBus(zap.NewNop())
		raised := &eventRecorder{}
		require.NoError(t, bus.Subscribe(events.EventTypeSuspicionRaised, raised.handle))

		cfg := singlePreset("contact", Config{Limit: 100, Window: time.Minute, Scope: ScopeIP, Sensitive: true})
		l := newTestLimiter(t, cfg, bus)
		ip := "198.51.100.40"

		for i := 0; i < 20; i++ {
			l.RecordOutcome(ctx, Request{IP: ip, Resource: fmt.Sprintf("/probe/%d", i), Preset: "contact"}, 500)
		}

		evts := raised.recorded()
		require.NotEmpty(t, evts)
		last := evts[len(evts)-1].(events.SuspicionRaised)
		assert.Equal(t, string(ThreatElevated), last.ThreatLevel)
		assert.Equal(t, addressKey(ip), last.Key)
	})

	t.Run("Should ignore outcomes from allowlisted addresses", func(t *testing.T) {
		allowlist, err := NewAllowlist([]string{"127.0.0.1"})
		require.NoError(t, err)

		cfg := singlePreset("test", Config{Limit: 10, Window: time.Minute, Scope: ScopeIP})
		cfg.Allowlist = allowlist
		l := newTestLimiter(t, cfg, nil)

		for i := 0; i < 20; i++ {
			l.RecordOutcome(ctx, Request{IP: "127.0.0.1", Resource: "/probe", Preset: "test"}, 500)
		}

		assert.Equal(t, 0, l.histories.Len())
	})
}

func TestLimiter_Reconfigure(t *testing.T) {
	ctx := context.Background()

	t.Run("Should apply new presets to subsequent checks", func(t *testing.T) {
		l := newTestLimiter(t, singlePreset("test", Config{Limit: 1, Window: time.Minute, Scope: ScopeIP}), nil)
		req := Request{IP: "198.51.100.50", Preset: "test"}

		l.Check(ctx, req)
		rejected := l.Check(ctx, req)
		require.False(t, rejected.Allowed)

		l.Reconfigure(map[string]Config{"test": {Limit: 100, Window: time.Minute, Scope: ScopeIP}}, "test", nil)

		d := l.Check(ctx, req)
		assert.True(t, d.Allowed)
		assert.Equal(t, 100, d.Limit)
	})
}

func TestLimiter_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("Should drop expired blocks, dead windows and stale histories", func(t *testing.T) {
		bus := events.NewBus(zap.NewNop())
		unblocked := &eventRecorder{}
		require.NoError(t, bus.Subscribe(events.EventTypeClientUnblocked, unblocked.handle))

		l := newTestLimiter(t, LimiterConfig{}, bus)

		deadWindow, _ := l.windows.GetOrSet("ip:198.51.100.60", &window{})
		deadWindow.timestamps = append(deadWindow.timestamps, time.Now().Add(-time.Hour))
		l.blocks.Set("ip:198.51.100.61", &Block{Key: "ip:198.51.100.61", ExpiresAt: time.Now().Add(-time.Minute)})
		l.histories.GetOrSet("ip:198.51.100.62", &history{})

		live := Request{IP: "198.51.100.63", Preset: PresetBrowsing}
		require.True(t, l.Check(ctx, live).Allowed)
		l.RecordOutcome(ctx, live, 200)

		windows, clients, blocks := l.Sweep(ctx)

		assert.Equal(t, 1, windows)
		assert.Equal(t, 1, clients)
		assert.Equal(t, 1, blocks)
		assert.Equal(t, 1, l.windows.Len())
		assert.Equal(t, 1, l.histories.Len())
		assert.Equal(t, 0, l.blocks.Len())

		evts := unblocked.recorded()
		require.Len(t, evts, 1)
		assert.Equal(t, events.UnblockReasonExpired, evts[0].(events.ClientUnblocked).Reason)
	})
}

func TestLimiter_GetStats(t *testing.T) {
	ctx := context.Background()

	t.Run("Should count allowed and rejected traffic", func(t *testing.T) {
		l := newTestLimiter(t, singlePreset("test", Config{Limit: 2, Window: time.Minute, Scope: ScopeIP}), nil)
		req := Request{IP: "198.51.100.70", Preset: "test"}

		for i := 0; i < 4; i++ {
			l.Check(ctx, req)
		}

		stats := l.GetStats()
		assert.Equal(t, uint64(2), stats.TotalAllowed)
		assert.Equal(t, uint64(2), stats.TotalRejected)
		assert.Equal(t, 1, stats.ActiveWindows)
		assert.Equal(t, 1, stats.TrackedClients)
		assert.Equal(t, 0, stats.ActiveBlocks)
		assert.Equal(t, uint64(0), stats.BlocksCreated)
	})
}

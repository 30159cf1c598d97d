package config

import (
	"fmt"
	"time"
)

// CacheProfile tunes one cached entity type
type CacheProfile struct {
	MaxEntries int
	MaxBytes   int64
	TTL        time.Duration
}

// RateLimitRule tunes one traffic class
type RateLimitRule struct {
	Limit     int
	Window    time.Duration
	Scope     string
	Sensitive bool
}

// Rate limit scopes
const (
	ScopeIP         = "ip"
	ScopeIPResource = "ip_resource"
	ScopeIPEmail    = "ip_email"
)

// DomainConfig holds all configurable caching and rate limiting rules
type DomainConfig struct {
	// Cache tuning
	CacheNamespace       string
	DefaultCacheProfile  CacheProfile
	CacheProfiles        map[string]CacheProfile
	CacheCleanupInterval time.Duration
	CompressionThreshold int

	// Rate limit tuning
	DefaultRateLimitPreset string
	RateLimitRules         map[string]RateLimitRule
	AllowlistedIPs         []string
	MaxTrackedKeys         int
	MaxTrackedClients      int
	MaxBlocks              int
	LimiterSweepInterval   time.Duration
	BehaviorWindow         time.Duration

	// Content constraints
	MaxTemplateNameLength   int
	MaxBlogTitleLength      int
	MaxContactMessageLength int
	MaxOrderItems           int
	DefaultPageSize         int
	MaxPageSize             int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Cache tuning
		CacheNamespace: "printora",
		DefaultCacheProfile: CacheProfile{
			MaxEntries: 1000,
			MaxBytes:   16 << 20,
			TTL:        5 * time.Minute,
		},
		CacheProfiles: map[string]CacheProfile{
			"template":     {MaxEntries: 5000, MaxBytes: 64 << 20, TTL: time.Hour},
			"blog_article": {MaxEntries: 2000, MaxBytes: 32 << 20, TTL: 30 * time.Minute},
			"blog_list":    {MaxEntries: 500, MaxBytes: 8 << 20, TTL: 10 * time.Minute},
			"order":        {MaxEntries: 1000, MaxBytes: 8 << 20, TTL: 5 * time.Minute},
			"image_meta":   {MaxEntries: 10000, MaxBytes: 16 << 20, TTL: 24 * time.Hour},
			"session":      {MaxEntries: 20000, MaxBytes: 16 << 20, TTL: 15 * time.Minute},
			"page":         {MaxEntries: 2000, MaxBytes: 32 << 20, TTL: 10 * time.Minute},
		},
		CacheCleanupInterval: time.Minute,
		CompressionThreshold: 4000,

		// Rate limit tuning
		DefaultRateLimitPreset: "browsing",
		RateLimitRules: map[string]RateLimitRule{
			"browsing":     {Limit: 300, Window: 5 * time.Minute, Scope: ScopeIP},
			"order":        {Limit: 10, Window: 10 * time.Minute, Scope: ScopeIPEmail, Sensitive: true},
			"contact":      {Limit: 5, Window: 15 * time.Minute, Scope: ScopeIPEmail, Sensitive: true},
			"image":        {Limit: 600, Window: 5 * time.Minute, Scope: ScopeIP},
			"blog_api":     {Limit: 120, Window: 5 * time.Minute, Scope: ScopeIPResource},
			"template_api": {Limit: 180, Window: 5 * time.Minute, Scope: ScopeIPResource},
			"polling":      {Limit: 600, Window: 10 * time.Minute, Scope: ScopeIPResource},
		},
		AllowlistedIPs:       nil,
		MaxTrackedKeys:       10000,
		MaxTrackedClients:    5000,
		MaxBlocks:            2000,
		LimiterSweepInterval: time.Minute,
		BehaviorWindow:       10 * time.Minute,

		// Content constraints
		MaxTemplateNameLength:   200,
		MaxBlogTitleLength:      200,
		MaxContactMessageLength: 5000,
		MaxOrderItems:           50,
		DefaultPageSize:         20,
		MaxPageSize:             100,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Bigger budgets for the heavy read paths
	config.CacheProfiles["template"] = CacheProfile{MaxEntries: 10000, MaxBytes: 128 << 20, TTL: 2 * time.Hour}
	config.CacheProfiles["page"] = CacheProfile{MaxEntries: 5000, MaxBytes: 64 << 20, TTL: 15 * time.Minute}

	// Tighter limits on the abuse-prone endpoints
	config.RateLimitRules["browsing"] = RateLimitRule{Limit: 200, Window: 5 * time.Minute, Scope: ScopeIP}
	config.RateLimitRules["order"] = RateLimitRule{Limit: 5, Window: 10 * time.Minute, Scope: ScopeIPEmail, Sensitive: true}
	config.RateLimitRules["contact"] = RateLimitRule{Limit: 3, Window: 15 * time.Minute, Scope: ScopeIPEmail, Sensitive: true}
	config.BehaviorWindow = 15 * time.Minute

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Short TTLs so edits show up quickly
	for entityType, profile := range config.CacheProfiles {
		profile.TTL = 30 * time.Second
		profile.MaxBytes = 8 << 20
		config.CacheProfiles[entityType] = profile
	}
	config.DefaultCacheProfile.TTL = 30 * time.Second

	// Effectively unlimited so local tooling is never throttled
	for preset, rule := range config.RateLimitRules {
		rule.Limit = rule.Limit * 100
		config.RateLimitRules[preset] = rule
	}
	config.AllowlistedIPs = []string{"127.0.0.1", "::1"}

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.CacheNamespace == "" {
		return fmt.Errorf("cache namespace must not be empty")
	}
	if c.CompressionThreshold < 0 {
		return fmt.Errorf("compression threshold must not be negative")
	}
	if err := validateCacheProfile("default", c.DefaultCacheProfile); err != nil {
		return err
	}
	for entityType, profile := range c.CacheProfiles {
		if err := validateCacheProfile(entityType, profile); err != nil {
			return err
		}
	}

	if _, ok := c.RateLimitRules[c.DefaultRateLimitPreset]; !ok {
		return fmt.Errorf("default rate limit preset %q has no rule", c.DefaultRateLimitPreset)
	}
	for preset, rule := range c.RateLimitRules {
		if rule.Limit <= 0 {
			return fmt.Errorf("rate limit rule %q: limit must be positive", preset)
		}
		if rule.Window <= 0 {
			return fmt.Errorf("rate limit rule %q: window must be positive", preset)
		}
		switch rule.Scope {
		case ScopeIP, ScopeIPResource, ScopeIPEmail:
		default:
			return fmt.Errorf("rate limit rule %q: unknown scope %q", preset, rule.Scope)
		}
	}

	if c.DefaultPageSize <= 0 || c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("page sizes must satisfy 0 < default <= max")
	}
	return nil
}

func validateCacheProfile(entityType string, profile CacheProfile) error {
	if profile.MaxEntries <= 0 {
		return fmt.Errorf("cache profile %q: max entries must be positive", entityType)
	}
	if profile.MaxBytes <= 0 {
		return fmt.Errorf("cache profile %q: max bytes must be positive", entityType)
	}
	if profile.TTL <= 0 {
		return fmt.Errorf("cache profile %q: ttl must be positive", entityType)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	domainconfig "printora-backend/domain/config"
)

// Duration decodes YAML duration strings such as "5m" or "1h30m"
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// cacheProfileTuning overrides one cache profile; unset fields keep the
// value from the environment defaults
type cacheProfileTuning struct {
	MaxEntries *int      `yaml:"maxEntries"`
	MaxBytes   *int64    `yaml:"maxBytes"`
	TTL        *Duration `yaml:"ttl"`
}

// rateLimitRuleTuning overrides one rate limit preset
type rateLimitRuleTuning struct {
	Limit     *int      `yaml:"limit"`
	Window    *Duration `yaml:"window"`
	Scope     *string   `yaml:"scope"`
	Sensitive *bool     `yaml:"sensitive"`
}

// tuningFile mirrors the YAML tuning document operators edit at runtime
type tuningFile struct {
	Cache struct {
		Namespace            *string                       `yaml:"namespace"`
		CleanupInterval      *Duration                     `yaml:"cleanupInterval"`
		CompressionThreshold *int                          `yaml:"compressionThreshold"`
		Default              *cacheProfileTuning           `yaml:"default"`
		Profiles             map[string]cacheProfileTuning `yaml:"profiles"`
	} `yaml:"cache"`
	RateLimit struct {
		DefaultPreset     *string                        `yaml:"defaultPreset"`
		Presets           map[string]rateLimitRuleTuning `yaml:"presets"`
		AllowlistedIPs    *[]string                      `yaml:"allowlistedIps"`
		MaxTrackedKeys    *int                           `yaml:"maxTrackedKeys"`
		MaxTrackedClients *int                           `yaml:"maxTrackedClients"`
		MaxBlocks         *int                           `yaml:"maxBlocks"`
		SweepInterval     *Duration                      `yaml:"sweepInterval"`
		BehaviorWindow    *Duration                      `yaml:"behaviorWindow"`
	} `yaml:"rateLimit"`
}

// LoadTuning builds the domain configuration for the environment and, if
// path names a readable YAML file, overlays the overrides it contains.
// The merged result is validated before it is returned.
func LoadTuning(path, environment string) (*domainconfig.DomainConfig, error) {
	cfg := domainconfig.LoadDomainConfig(environment)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read tuning file: %w", err)
		}

		var overrides tuningFile
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return nil, fmt.Errorf("failed to parse tuning file: %w", err)
		}

		applyTuning(cfg, &overrides)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}

	return cfg, nil
}

// applyTuning overlays non-nil override fields onto the base configuration
func applyTuning(cfg *domainconfig.DomainConfig, overrides *tuningFile) {
	cache := overrides.Cache
	if cache.Namespace != nil {
		cfg.CacheNamespace = *cache.Namespace
	}
	if cache.CleanupInterval != nil {
		cfg.CacheCleanupInterval = time.Duration(*cache.CleanupInterval)
	}
	if cache.CompressionThreshold != nil {
		cfg.CompressionThreshold = *cache.CompressionThreshold
	}
	if cache.Default != nil {
		cfg.DefaultCacheProfile = mergeProfile(cfg.DefaultCacheProfile, *cache.Default)
	}
	for entityType, profile := range cache.Profiles {
		base, ok := cfg.CacheProfiles[entityType]
		if !ok {
			base = cfg.DefaultCacheProfile
		}
		cfg.CacheProfiles[entityType] = mergeProfile(base, profile)
	}

	rateLimit := overrides.RateLimit
	if rateLimit.DefaultPreset != nil {
		cfg.DefaultRateLimitPreset = *rateLimit.DefaultPreset
	}
	for preset, rule := range rateLimit.Presets {
		base, ok := cfg.RateLimitRules[preset]
		if !ok {
			base = cfg.RateLimitRules[cfg.DefaultRateLimitPreset]
		}
		cfg.RateLimitRules[preset] = mergeRule(base, rule)
	}
	if rateLimit.AllowlistedIPs != nil {
		cfg.AllowlistedIPs = *rateLimit.AllowlistedIPs
	}
	if rateLimit.MaxTrackedKeys != nil {
		cfg.MaxTrackedKeys = *rateLimit.MaxTrackedKeys
	}
	if rateLimit.MaxTrackedClients != nil {
		cfg.MaxTrackedClients = *rateLimit.MaxTrackedClients
	}
	if rateLimit.MaxBlocks != nil {
		cfg.MaxBlocks = *rateLimit.MaxBlocks
	}
	if rateLimit.SweepInterval != nil {
		cfg.LimiterSweepInterval = time.Duration(*rateLimit.SweepInterval)
	}
	if rateLimit.BehaviorWindow != nil {
		cfg.BehaviorWindow = time.Duration(*rateLimit.BehaviorWindow)
	}
}

func mergeProfile(base domainconfig.CacheProfile, overrides cacheProfileTuning) domainconfig.CacheProfile {
	if overrides.MaxEntries != nil {
		base.MaxEntries = *overrides.MaxEntries
	}
	if overrides.MaxBytes != nil {
		base.MaxBytes = *overrides.MaxBytes
	}
	if overrides.TTL != nil {
		base.TTL = time.Duration(*overrides.TTL)
	}
	return base
}

func mergeRule(base domainconfig.RateLimitRule, overrides rateLimitRuleTuning) domainconfig.RateLimitRule {
	if overrides.Limit != nil {
		base.Limit = *overrides.Limit
	}
	if overrides.Window != nil {
		base.Window = time.Duration(*overrides.Window)
	}
	if overrides.Scope != nil {
		base.Scope = *overrides.Scope
	}
	if overrides.Sensitive != nil {
		base.Sensitive = *overrides.Sensitive
	}
	return base
}

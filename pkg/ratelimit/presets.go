package ratelimit

import (
	"time"
)

// Scope selects how requests are keyed for counting.
type Scope string

const (
	// ScopeIP counts all requests from one address together.
	ScopeIP Scope = "ip"

	// ScopeIPResource counts per address and resource, so hammering one
	// endpoint does not consume the allowance for others.
	ScopeIPResource Scope = "ip_resource"

	// ScopeIPEmail counts per address and submitted email address (hashed),
	// for form-style endpoints where one address may serve many users.
	ScopeIPEmail Scope = "ip_email"
)

// Config tunes one traffic class.
type Config struct {
	Limit  int
	Window time.Duration
	Scope  Scope

	// Sensitive marks endpoints whose traffic weighs extra in behavioral
	// scoring (checkout, contact forms).
	Sensitive bool
}

// Traffic class presets. Routes pick a preset; limits and scopes are tuned
// per class rather than per route.
const (
	PresetBrowsing    = "browsing"
	PresetOrder       = "order"
	PresetContact     = "contact"
	PresetImage       = "image"
	PresetBlogAPI     = "blog_api"
	PresetTemplateAPI = "template_api"
	PresetPolling     = "polling"
)

// DefaultPresets returns the built-in tuning per traffic class.
func DefaultPresets() map[string]Config {
	return map[string]Config{
		PresetBrowsing: {
			Limit:  300,
			Window: 5 * time.Minute,
			Scope:  ScopeIP,
		},
		PresetOrder: {
			Limit:     10,
			Window:    10 * time.Minute,
			Scope:     ScopeIPEmail,
			Sensitive: true,
		},
		PresetContact: {
			Limit:     5,
			Window:    15 * time.Minute,
			Scope:     ScopeIPEmail,
			Sensitive: true,
		},
		PresetImage: {
			Limit:  600,
			Window: 5 * time.Minute,
			Scope:  ScopeIP,
		},
		PresetBlogAPI: {
			Limit:  120,
			Window: 5 * time.Minute,
			Scope:  ScopeIPResource,
		},
		PresetTemplateAPI: {
			Limit:  180,
			Window: 5 * time.Minute,
			Scope:  ScopeIPResource,
		},
		PresetPolling: {
			Limit:  600,
			Window: 10 * time.Minute,
			Scope:  ScopeIPResource,
		},
	}
}

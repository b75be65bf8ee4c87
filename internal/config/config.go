// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation.
package config

import "time"

// Config is the top-level configuration structure.
type Config struct {
	// Workspace is the root directory every file and shell operation is
	// confined to. Empty means the current directory.
	Workspace string `yaml:"workspace"`

	// Model is the default model for new sessions.
	Model string `yaml:"model"`

	Cache    CacheConfig    `yaml:"cache"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Security SecurityConfig `yaml:"security"`
	Admin    AdminConfig    `yaml:"admin"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	// Enabled turns the cache on. Defaults to true.
	Enabled *bool `yaml:"enabled"`

	// Dir overrides the cache directory. Empty means the per-workspace
	// default (<workspace>/.agentlow/cache).
	Dir string `yaml:"dir"`

	// TTLSeconds is the entry lifetime. Zero means one hour.
	TTLSeconds int `yaml:"ttl_seconds"`
}

// IsEnabled reports whether the cache should be opened.
func (c CacheConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// TTL returns the configured lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// TimeoutsConfig bounds per-tool execution time, in seconds. Zero values
// fall back to the built-in defaults.
type TimeoutsConfig struct {
	ShellSeconds  int `yaml:"shell_seconds"`
	HTTPSeconds   int `yaml:"http_seconds"`
	GitSeconds    int `yaml:"git_seconds"`
	DockerSeconds int `yaml:"docker_seconds"`
}

// SecurityConfig extends the built-in command policy.
type SecurityConfig struct {
	// AllowExtra adds leading tokens to the command allowlist.
	AllowExtra []string `yaml:"allow_extra"`

	// ForbidExtra adds forbidden substring patterns.
	ForbidExtra []string `yaml:"forbid_extra"`
}

// AdminConfig controls the admin HTTP surface started by the serve command.
type AdminConfig struct {
	// Bind is the listen address. Empty means the loopback default.
	Bind string `yaml:"bind"`

	// PruneSchedule is the cron expression for the cache prune job.
	// Empty means the built-in default.
	PruneSchedule string `yaml:"prune_schedule"`
}

package checker

import (
	"runtime"
	"time"
)

// DefaultUserAgent identifies urlpulse to the servers it checks.
const DefaultUserAgent = "urlpulse/1.0 (+https://github.com/lukemcguire/urlpulse)"

// Config holds checker configuration. It is passed explicitly to the
// fetcher and the pool; there is no package-level mutable state.
type Config struct {
	PoolSize       int           // Number of concurrent workers (default max(2, NumCPU))
	ConnectTimeout time.Duration // Dial and TLS handshake timeout (default 5s)
	ReadTimeout    time.Duration // Wait for response headers, per hop (default 7s)
	TaskDeadline   time.Duration // Controller-side wait per target (default 15s)
	UserAgent      string        // User-Agent header sent with every request
	MaxRedirects   int           // Redirect hops to follow before failing (default 10)
	RateLimit      int           // Requests per second across the pool; 0 disables
}

// DefaultPoolSize returns max(2, runtime.NumCPU()).
func DefaultPoolSize() int {
	return max(2, runtime.NumCPU())
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PoolSize:       DefaultPoolSize(),
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    7 * time.Second,
		TaskDeadline:   15 * time.Second,
		UserAgent:      DefaultUserAgent,
		MaxRedirects:   10,
	}
}

// withDefaults fills zero or negative fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PoolSize <= 0 {
		c.PoolSize = def.PoolSize
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.TaskDeadline <= 0 {
		c.TaskDeadline = def.TaskDeadline
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = def.MaxRedirects
	}
	if c.RateLimit < 0 {
		c.RateLimit = 0
	}
	return c
}

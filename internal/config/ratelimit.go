package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig configures one token-bucket limiter.  The gateway runs two
// of them: an "auth" bucket in front of registration and password reset
// confirmation, and a stricter "reset" bucket in front of OTP requests.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadAuthRateLimitConfig reads the AUTH_RATE_LIMIT_* variables.
func LoadAuthRateLimitConfig() RateLimitConfig {
	return loadRateLimitConfig("AUTH_RATE_LIMIT", "rl:auth", 10, 90*time.Second)
}

// LoadResetRateLimitConfig reads the RESET_RATE_LIMIT_* variables.  OTP
// requests trigger outbound mail, so the default bucket is small.
func LoadResetRateLimitConfig() RateLimitConfig {
	return loadRateLimitConfig("RESET_RATE_LIMIT", "rl:reset", 3, 20*time.Minute)
}

func loadRateLimitConfig(env, prefix string, capacity int, every time.Duration) RateLimitConfig {
	def := RateLimitConfig{
		Enabled:        envBool(env+"_ENABLED", envBool("RATE_LIMIT_ENABLED", true)),
		Capacity:       envInt(env+"_CAPACITY", capacity),
		RefillTokens:   envInt(env+"_REFILL_TOKENS", 1),
		RefillInterval: envDur(env+"_REFILL_INTERVAL", every),
		TTL:            envDur(env+"_TTL", 0),
		KeyStrategy:    envStr(env+"_KEY_STRATEGY", "ip_route"),
		Prefix:         envStr(env+"_PREFIX", prefix),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	minTTL := 5 * def.RefillInterval
	if def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}

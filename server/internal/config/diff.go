package config

import "slices"

// LiveFields are the keys a running server applies on reload. Every other
// changed key needs a restart.
var LiveFields = []string{"server.log.level"}

// Diff returns the YAML keys whose values differ between old and next, in
// file order.
func Diff(old, next *Config) []string {
	a, b := old.Server, next.Server
	var changed []string
	add := func(key string, differ bool) {
		if differ {
			changed = append(changed, key)
		}
	}

	add("server.http_port", a.HTTPPort != b.HTTPPort)
	add("server.profile", a.Profile != b.Profile)
	add("server.version", a.Version != b.Version)
	add("server.auth.key_env", a.Auth.KeyEnv != b.Auth.KeyEnv)
	add("server.auth.header", a.Auth.EffectiveHeader() != b.Auth.EffectiveHeader())
	add("server.cors.allowed_origins", !slices.Equal(a.Origins(), b.Origins()))
	add("server.rate_limit.rps", a.RateLimit.RPS != b.RateLimit.RPS)
	add("server.rate_limit.burst", a.RateLimit.Burst != b.RateLimit.Burst)
	add("server.stream.interval", a.Stream.Interval != b.Stream.Interval)
	add("server.tracing.enabled", a.Tracing.Enabled != b.Tracing.Enabled)
	add("server.log.level", a.Log.SlogLevel() != b.Log.SlogLevel())
	return changed
}

// RestartRequired filters changed down to the keys not in LiveFields.
func RestartRequired(changed []string) []string {
	var out []string
	for _, k := range changed {
		if !slices.Contains(LiveFields, k) {
			out = append(out, k)
		}
	}
	return out
}


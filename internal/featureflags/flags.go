package featureflags

import (
	"os"
	"strings"
)

// MatchNotifications gates pushing newly created matches to connected clients
const MatchNotifications = "match_notifications"

// Flags resolves feature flags from a key lookup (the environment by default).
// Flags are read as FLAG_<NAME>=true/1/yes/on (case-insensitive).
type Flags struct {
	lookup func(key string) string
}

// FromEnv reads flags from the process environment on every call
func FromEnv() *Flags {
	return &Flags{lookup: os.Getenv}
}

// FromMap reads flags from a fixed set of FLAG_<NAME> values
func FromMap(values map[string]string) *Flags {
	return &Flags{lookup: func(key string) string { return values[key] }}
}

// Enabled returns true if the named flag is switched on
func (f *Flags) Enabled(name string) bool {
	if f == nil {
		return false
	}
	v := f.lookup("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Enabled checks a flag in the process environment
func Enabled(name string) bool {
	return FromEnv().Enabled(name)
}

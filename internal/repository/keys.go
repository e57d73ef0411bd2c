package repository

import (
	"fmt"
	"strings"
)

const (
	dreamsSetKey  = "dreams"
	matchesSetKey = "matches"
	usersSetKey   = "users"
)

func dreamKey(id string) string { return fmt.Sprintf("dream:%s", id) }
func matchKey(id string) string { return fmt.Sprintf("match:%s", id) }
func userKey(id string) string { return fmt.Sprintf("user:%s", id) }
func userDreamsKey(id string) string { return fmt.Sprintf("user:%s:dreams", id) }
func userMatchesKey(id string) string { return fmt.Sprintf("user:%s:matches", id) }
func usernameKey(name string) string { return fmt.Sprintf("username:%s", strings.ToLower(strings.TrimSpace(name))) }

func prefixed(ids []string, key func(string) string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = key(id)
	}
	return out
}

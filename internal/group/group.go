// Package group implements the login-to-addressee-set expansion from
// spec.md §4.Q: a login starting with "@" expands to just itself;
// otherwise it expands to the user's OS groups (each prefixed "@"), the
// login itself, and the constant "#all". Lookups are cached in an LRU
// since os/user.Lookup and its group walk hit the system's user database
// on every call.
package group

import (
	"os/user"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Broadcast is the addressee every expansion includes, per spec.md §4.Q.
const Broadcast = "#all"

// Expander expands a login into its read-side addressee set, caching OS
// group lookups.
type Expander struct {
	cache *lru.Cache[string, []string]
}

// New returns an Expander backed by an LRU of the given size.
func New(cacheSize int) (*Expander, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	c, err := lru.New[string, []string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Expander{cache: c}, nil
}

// Expand returns the addressee set for login. Errors from the OS group
// lookup are swallowed per spec.md §4.Q: the caller always receives at
// least {login, "#all"}.
func (e *Expander) Expand(login string) []string {
	if strings.HasPrefix(login, "@") {
		return []string{login}
	}

	if cached, ok := e.cache.Get(login); ok {
		return cached
	}

	result := []string{}
	if u, err := user.Lookup(login); err == nil {
		if gids, err := u.GroupIds(); err == nil {
			for _, gid := range gids {
				if g, err := user.LookupGroupId(gid); err == nil {
					result = append(result, "@"+g.Name)
				}
			}
		}
	}
	result = append(result, login, Broadcast)

	e.cache.Add(login, result)
	return result
}

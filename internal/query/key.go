package query

import (
	"fmt"
	"strings"
)

// Key identifies a cache entry. Keys are compared segment by segment, so
// "skills:12" is a prefix of "skills:12:x" but not of "skills:120".
type Key []string

// NewKey builds a key from segments, formatting non-strings with fmt
func NewKey(parts ...any) Key {
	k := make(Key, len(parts))
	for i, p := range parts {
		k[i] = fmt.Sprint(p)
	}
	return k
}

// With returns a new key extended by parts
func (k Key) With(parts ...any) Key {
	out := make(Key, 0, len(k)+len(parts))
	out = append(out, k...)
	return append(out, NewKey(parts...)...)
}

func (k Key) String() string {
	return strings.Join(k, ":")
}

// HasPrefix reports whether p matches the leading segments of k
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i] != p[i] {
			return false
		}
	}
	return true
}

func matchesAny(k Key, prefixes []Key) bool {
	for _, p := range prefixes {
		if k.HasPrefix(p) {
			return true
		}
	}
	return false
}

// Package identity resolves per-source package observations into canonical
// records and scores them.
package identity

import "strings"

// suffixes are checked in order; the first match is stripped.
var suffixes = []string{"-cli", "-bin", "-git", "-rs", "-go", "-rust"}

// Normalize maps a raw package name to its canonical join key.
//
// One pass lower-cases, reduces "@scope/name" to "name", strips at most one
// known suffix and drops a trailing "@version". Passes repeat until the key
// stops changing so that Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	key := normalizeOnce(raw)
	for {
		next := normalizeOnce(key)
		if next == key {
			return key
		}
		key = next
	}
}

func normalizeOnce(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))

	if strings.HasPrefix(name, "@") && strings.Contains(name, "/") {
		name = name[strings.LastIndex(name, "/")+1:]
	}

	for _, suffix := range suffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	return name
}

package kv

import "strings"

// isCorruptionError reports whether err's message indicates pebble
// detected an on-disk corruption (checksum mismatch, invalid manifest,
// truncated SSTable). Pebble doesn't export a single typed corruption
// error across its public API, so this mirrors the substring checks
// pebble's own CLI tooling uses against Error().
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{"corrupt", "checksum mismatch", "invalid manifest"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

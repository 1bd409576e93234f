// Copyright (c) 2026 Readstack. All rights reserved.

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// MakeKey builds a deterministic cache key from a namespace prefix and a set
// of identifying parts.
//
// The parts are rendered and joined, then digested with SHA-256 so that keys
// stay bounded in length and never leak raw user input into the key space.
// Identical inputs always produce the identical key.
func MakeKey(prefix string, parts ...any) string {
	rendered := make([]string, 0, len(parts))
	for _, part := range parts {
		rendered = append(rendered, render(part))
	}

	digest := sha256.Sum256([]byte(strings.Join(rendered, ":")))
	return prefix + hex.EncodeToString(digest[:])
}

// render produces a stable string form for one key part. Maps are rendered
// with sorted keys so argument order inside them cannot change the digest.
func render(part any) string {
	switch value := part.(type) {
	case string:
		return value
	case map[string]any:
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, key := range keys {
			pairs = append(pairs, key+"="+render(value[key]))
		}
		return strings.Join(pairs, ",")
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(encoded)
	}
}

// Package color assigns each alias a deterministic display color: a
// hash-based probe over a fixed palette, preferring currently-unused
// entries, falling back to a procedural HSL color on exhaustion.
package color

import (
	"fmt"
	"hash/fnv"
)

// palette is a fixed 32-entry set of hex display colors.
var palette = [32]string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#bcf60c", "#fabebe", "#008080", "#e6beff",
	"#9a6324", "#fffac8", "#800000", "#aaffc3", "#808000", "#ffd8b1",
	"#000075", "#808080", "#ff4500", "#2e8b57", "#6a5acd", "#dc143c",
	"#20b2aa", "#ff69b4", "#8b4513", "#00ced1", "#da70d6", "#c71585",
	"#5f9ea0", "#cd5c5c",
}

// seed hashes alias|ip into a 64-bit value. Determinism is a property of
// this seed, never of time.
func seed(alias, ip string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(alias + "|" + ip))
	return h.Sum64()
}

// Assign returns the display color for alias given the set of colors
// currently in use by other live aliases. It probes the palette starting at
// a hash-derived index, preferring the first unused entry it finds; if every
// entry is in use it falls back to a procedurally generated HSL color
// derived from the same seed.
func Assign(alias, ip string, inUse map[string]bool) string {
	s := seed(alias, ip)
	start := int(s % uint64(len(palette)))

	for i := 0; i < len(palette); i++ {
		candidate := palette[(start+i)%len(palette)]
		if !inUse[candidate] {
			return candidate
		}
	}

	return proceduralHSL(s)
}

// proceduralHSL derives an HSL color string from the seed when the palette
// is exhausted.
func proceduralHSL(s uint64) string {
	hue := int(s % 360)
	sat := 55 + int((s>>8)%30)  // 55-84%
	light := 40 + int((s>>16)%25) // 40-64%
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", hue, sat, light)
}

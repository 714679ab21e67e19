package reduce

import "strings"

// noisePatterns is a small set of one-shot banner/hint substrings that
// appear exactly once in a session and carry no narrative value: update
// nags, CLI tips, and the like. There is no canonical list to inherit from
// upstream; this is a small representative set.
var noisePatterns = []string{
	"Tip:",
	"Run `",
	"Update available",
}

// IsNoise reports whether line matches a known structural noise pattern.
func IsNoise(line string) bool {
	for _, p := range noisePatterns {
		if strings.Contains(line, p) {
			return true
		}
	}
	return false
}

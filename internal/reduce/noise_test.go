package reduce

import "testing"

func TestIsNoiseMatchesKnownPatterns(t *testing.T) {
	cases := []string{
		"Tip: press ctrl-c to exit",
		"Run `npm install` to continue",
		"Update available: v2.0.0",
	}
	for _, line := range cases {
		if !IsNoise(line) {
			t.Fatalf("expected %q to be classified as noise", line)
		}
	}
}

func TestIsNoiseIgnoresOrdinaryLines(t *testing.T) {
	if IsNoise("compiling module foo.go") {
		t.Fatal("expected ordinary line not to be classified as noise")
	}
}

package backend

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// rateLimitMarkers are the case-insensitive substrings that flag a backend
// CLI's stderr as a rate-limit failure.
var rateLimitMarkers = []string{
	"rate limit",
	"throttled",
	"resource_exhausted",
	"429",
	"too many requests",
	"quota exceeded",
}

// retryPatterns extracts a retry-after second count from the various ways
// backend CLIs phrase it. Tried in order; first match wins.
var retryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`retry after\s+(\d+)`),
	regexp.MustCompile(`retry_after(?:[:\s_])+(\d+)`),
	regexp.MustCompile(`retry in\s+(\d+)`),
	regexp.MustCompile(`retrydelay:\s*(\d+)`),
	regexp.MustCompile(`wait\s+(\d+)`),
	regexp.MustCompile(`(\d+)\s*seconds`),
}

// ParseRateLimitInfo scans stderr for a rate-limit indicator and, if found,
// attempts to extract a retry-after duration.
func ParseRateLimitInfo(stderr string) *RateLimitInfo {
	lower := strings.ToLower(stderr)

	rateLimited := false
	for _, m := range rateLimitMarkers {
		if strings.Contains(lower, m) {
			rateLimited = true
			break
		}
	}
	if !rateLimited {
		return nil
	}

	var retryAfter *time.Duration
	if secs, ok := extractRetrySeconds(lower); ok {
		d := time.Duration(secs) * time.Second
		retryAfter = &d
	}

	message := stderr
	if idx := strings.IndexByte(stderr, '\n'); idx >= 0 {
		message = stderr[:idx]
	}
	if message == "" {
		message = "Rate limited"
	}

	return &RateLimitInfo{RetryAfter: retryAfter, Message: message}
}

func extractRetrySeconds(lowerStderr string) (int64, bool) {
	for _, p := range retryPatterns {
		if m := p.FindStringSubmatch(lowerStderr); m != nil {
			if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// truncateStderr takes stderr's first line and caps it at 200 characters,
// appending an ellipsis if truncated.
func truncateStderr(stderr string) string {
	firstLine := stderr
	if idx := strings.IndexByte(stderr, '\n'); idx >= 0 {
		firstLine = stderr[:idx]
	}
	firstLine = strings.TrimSpace(firstLine)
	if len(firstLine) <= 200 {
		return firstLine
	}
	return firstLine[:200] + "..."
}

package feature

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// intParam returns the positive integer at key, or 0.
func intParam(q url.Values, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(q.Get(key)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// dateParam returns a YYYY-MM-DD value at key, or "" when absent or malformed.
func dateParam(q url.Values, key string) string {
	v := strings.TrimSpace(q.Get(key))
	if _, err := time.Parse(time.DateOnly, v); err != nil {
		return ""
	}
	return v
}

// monthParam reads year and month, defaulting each to now's.
func monthParam(q url.Values, now time.Time) (int, int) {
	year, month := intParam(q, "year"), intParam(q, "month")
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	return year, month
}

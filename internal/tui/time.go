package tui

import (
	"fmt"
	"time"

	"github.com/mrz1836/zipsign/internal/clock"
)

// ageUnits are tried from largest to smallest.
//
//nolint:gochecknoglobals // lookup table
var ageUnits = []struct {
	size time.Duration
	name string
}{
	{7 * 24 * time.Hour, "week"},
	{24 * time.Hour, "day"},
	{time.Hour, "hour"},
	{time.Minute, "minute"},
}

// Age formats how long ago t was, relative to c: "just now", "1 minute ago",
// "3 days ago". A zero time is "unknown".
func Age(t time.Time, c clock.Clock) string {
	if t.IsZero() {
		return "unknown"
	}
	diff := c.Now().Sub(t)
	for _, u := range ageUnits {
		if diff < u.size {
			continue
		}
		n := int(diff / u.size)
		if n == 1 {
			return "1 " + u.name + " ago"
		}
		return fmt.Sprintf("%d %ss ago", n, u.name)
	}
	return "just now"
}

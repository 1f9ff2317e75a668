package discussion

import (
	"fmt"
	"time"
)

var ageUnits = []struct {
	size time.Duration
	name string
}{
	{7 * 24 * time.Hour, "week"},
	{24 * time.Hour, "day"},
	{time.Hour, "hour"},
	{time.Minute, "minute"},
}

// RelativeAge describes how long before now ts happened, using the coarsest
// whole unit. Anything under a minute, or in the future, is "just now".
func RelativeAge(ts, now time.Time) string {
	elapsed := now.Sub(ts)
	for _, u := range ageUnits {
		n := int64(elapsed / u.size)
		if n < 1 {
			continue
		}
		if n == 1 {
			return fmt.Sprintf("1 %s ago", u.name)
		}
		return fmt.Sprintf("%d %ss ago", n, u.name)
	}
	return "just now"
}

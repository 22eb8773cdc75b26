package marquee

import (
	"fmt"
	"strings"
	"time"
)

// formatThousands renders a non-negative integer with comma grouping
// separators every three digits: formatThousands(1234567) == "1,234,567".
func formatThousands(n uint64) string {
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	b.Grow(len(s) + len(s)/3)
	for i, r := range s {
		if i != 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// average returns the arithmetic mean of xs. The caller must guarantee
// xs is non-empty.
func average(xs []int) float64 {
	var sum int
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

// formatRuntime renders a runtime in minutes as a compact duration
// string ("1h52m0s" trimmed to "1h52m").
func formatRuntime(minutes int) string {
	d := time.Duration(minutes) * time.Minute
	s := d.String()
	s = strings.TrimSuffix(s, "0s")
	if s == "" {
		s = "0m"
	}
	return s
}

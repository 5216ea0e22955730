package filter

import (
	"fmt"
	"strconv"
	"strings"
)

var sizeSuffixes = map[byte]int64{
	'B': 1,
	'K': 1 << 10,
	'M': 1 << 20,
	'G': 1 << 30,
	'T': 1 << 40,
}

// ParseSize parses sizes such as "100", "4K", "1.5G" or "10MB" into bytes.
// Suffixes are case-insensitive powers of 1024.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	num := s
	mult := int64(1)
	if len(num) > 1 && strings.HasSuffix(num, "IB") {
		num = num[:len(num)-2]
	} else if len(num) > 2 && strings.HasSuffix(num, "B") && sizeSuffixes[num[len(num)-2]] > 1 {
		num = num[:len(num)-1]
	}
	if m, ok := sizeSuffixes[num[len(num)-1]]; ok {
		mult = m
		num = num[:len(num)-1]
	}
	if num == "" {
		return 0, fmt.Errorf("invalid size: %q", s)
	}

	if n, err := strconv.ParseInt(num, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative size: %q", s)
		}
		return n * mult, nil
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid size: %q", s)
	}
	return int64(f * float64(mult)), nil
}

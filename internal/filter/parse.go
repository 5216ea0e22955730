package filter

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadFile appends rules read from path. One rule per line:
//
//	+ PATTERN   include
//	- PATTERN   exclude
//	PATTERN     exclude
//	# ...       comment
func (c *Chain) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open filter file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for lineNum := 1; sc.Scan(); lineNum++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		include := false
		switch {
		case line == "+" || strings.HasPrefix(line, "+ "):
			include = true
			line = strings.TrimSpace(line[1:])
		case line == "-" || strings.HasPrefix(line, "- "):
			line = strings.TrimSpace(line[1:])
		}

		if err := c.add(line, include); err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNum, err)
		}
	}
	return sc.Err()
}

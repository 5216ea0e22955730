package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// pattern is a glob compiled to a regular expression.
//
//   - a trailing "/" restricts the pattern to directories
//   - a leading "/" or any inner "/" anchors it at the scan root
//   - otherwise it may match the basename or any trailing path suffix
type pattern struct {
	re      *regexp.Regexp
	glob    string
	dirOnly bool
}

func compile(glob string) (*pattern, error) {
	if strings.TrimSpace(glob) == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	p := &pattern{glob: glob}

	body := glob
	if strings.HasSuffix(body, "/") {
		p.dirOnly = true
		body = strings.TrimSuffix(body, "/")
	}

	anchored := strings.Contains(body, "/")
	body = strings.TrimPrefix(body, "/")

	var expr string
	if anchored {
		expr = "^" + translate(body) + "$"
	} else {
		expr = "(^|/)" + translate(body) + "$"
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", glob, err)
	}
	p.re = re
	return p, nil
}

func (p *pattern) matches(relPath string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	return p.re.MatchString(relPath)
}

// translate rewrites glob syntax into regexp syntax. "**" crosses directory
// separators, "*" and "?" do not, and "[...]" classes pass through with "!"
// negation mapped to "^".
func translate(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		ch := glob[i]
		switch ch {
		case '*':
			if strings.HasPrefix(glob[i:], "**/") {
				b.WriteString("(.*/)?")
				i += 2
			} else if strings.HasPrefix(glob[i:], "**") {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '[':
			end := classEnd(glob, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	return b.String()
}

// classEnd returns the index of the "]" closing the class opened at start,
// or -1 when the class is unterminated.
func classEnd(glob string, start int) int {
	j := start + 1
	if j < len(glob) && glob[j] == '!' {
		j++
	}
	if j < len(glob) && glob[j] == ']' {
		j++
	}
	for j < len(glob) {
		if glob[j] == ']' {
			return j
		}
		j++
	}
	return -1
}

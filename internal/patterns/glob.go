package patterns

import (
	"errors"
	"path"
	"regexp"
	"strings"
)

var errEmptyPattern = errors.New("empty pattern")

// glob is a compiled shell pattern.
type glob struct {
	re       *regexp.Regexp
	original string
}

func (g *glob) match(s string) bool {
	return g.re.MatchString(s)
}

// compileName compiles a pattern that must match a whole basename.
func compileName(pattern string) (*glob, error) {
	if err := validate(pattern); err != nil {
		return nil, err
	}
	re, err := regexp.Compile("^" + globToRegex(pattern) + "$")
	if err != nil {
		return nil, err
	}
	return &glob{re: re, original: pattern}, nil
}

// compileExclude compiles an exclusion tested against a slash-separated
// relative path. A pattern containing "/" is anchored at the scan root;
// otherwise it may match any run of path segments. Either way every
// descendant of a matching path matches too.
func compileExclude(pattern string) (*glob, error) {
	trimmed := strings.TrimSuffix(pattern, "/")
	if err := validate(trimmed); err != nil {
		return nil, err
	}
	var reStr string
	if strings.Contains(trimmed, "/") {
		reStr = "^" + globToRegex(strings.TrimPrefix(trimmed, "/")) + "(/|$)"
	} else {
		reStr = "(^|/)" + globToRegex(trimmed) + "(/|$)"
	}
	re, err := regexp.Compile(reStr)
	if err != nil {
		return nil, err
	}
	return &glob{re: re, original: pattern}, nil
}

// validate rejects malformed syntax up front so matching never fails later.
func validate(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return errEmptyPattern
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return err
	}
	return nil
}

// globToRegex converts a glob pattern to a regex string.
func globToRegex(pattern string) string {
	var b strings.Builder
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				// ** crosses separators
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					b.WriteString("(.*/)?")
					i += 3
				} else {
					b.WriteString(".*")
					i += 2
				}
			} else {
				b.WriteString("[^/]*")
				i++
			}
		case '?':
			b.WriteString("[^/]")
			i++
		case '\\':
			if i+1 < len(pattern) {
				b.WriteString(regexp.QuoteMeta(string(pattern[i+1])))
				i += 2
			} else {
				b.WriteString(regexp.QuoteMeta(`\`))
				i++
			}
		case '[':
			j := i + 1
			if j < len(pattern) && (pattern[j] == '!' || pattern[j] == '^') {
				j++
			}
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j < len(pattern) {
				cls := pattern[i+1 : j]
				if strings.HasPrefix(cls, "!") {
					cls = "^" + cls[1:]
				}
				b.WriteString("[" + cls + "]")
				i = j + 1
			} else {
				b.WriteString(regexp.QuoteMeta(string(c)))
				i++
			}
		case '.', '(', ')', '+', '{', '}', '^', '$', '|', ']':
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

package graph

import (
	"regexp"
	"slices"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

var jsImportPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\brequire\(\s*["']([^"'\n]+)["']\s*\)`),
	regexp.MustCompile(`(?m)^\s*import\s+["']([^"'\n]+)["']`),
	regexp.MustCompile(`(?m)^\s*import\s+[\w$*{}\s,]+?\s+from\s+["']([^"'\n]+)["']`),
	regexp.MustCompile(`(?m)^\s*export\s+[\w$*{}\s,]+?\s+from\s+["']([^"'\n]+)["']`),
}

var importTargetPattern = regexp.MustCompile(`^\s*(?:url\(\s*)?["']?([^"')\s]+)["']?`)

// ScanJS returns the module specifiers referenced by require calls and
// static import/export-from statements, in source order, deduplicated.
// Matches inside comments and string or template literals are ignored.
func ScanJS(src string) []string {
	code, literals := maskJS(src)
	type hit struct {
		offset int
		spec   string
	}
	var hits []hit
	for _, re := range jsImportPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(code, -1) {
			// The specifier's opening quote must start a literal in code.
			if !literals[m[2]-1] {
				continue
			}
			hits = append(hits, hit{offset: m[2], spec: src[m[2]:m[3]]})
		}
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return a.offset - b.offset })
	seen := make(map[string]bool, len(hits))
	specs := make([]string, 0, len(hits))
	for _, h := range hits {
		if seen[h.spec] {
			continue
		}
		seen[h.spec] = true
		specs = append(specs, h.spec)
	}
	return specs
}

// maskJS blanks comments (keeping offsets and newlines) and records the
// offsets at which string and template literals open.
func maskJS(src string) (string, map[int]bool) {
	out := []byte(src)
	literals := make(map[int]bool)
	var prev byte
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			blank(out, i, i+end)
			i += end
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := len(src)
			if j := strings.Index(src[i+2:], "*/"); j >= 0 {
				end = i + 2 + j + 2
			}
			blank(out, i, end)
			i = end
		case c == '\'' || c == '"' || c == '`':
			literals[i] = true
			i = skipQuoted(src, i)
			prev = c
		case c == '/' && regexAllowed(prev):
			i = skipRegex(src, i)
			prev = c
		default:
			if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
				prev = c
			}
			i++
		}
	}
	return string(out), literals
}

func blank(b []byte, from, to int) {
	for i := from; i < to; i++ {
		if b[i] != '\n' {
			b[i] = ' '
		}
	}
}

// skipQuoted returns the offset just past the literal opening at i.
func skipQuoted(src string, i int) int {
	q := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j + 1
		case '\n':
			if q != '`' {
				return j + 1
			}
		}
	}
	return len(src)
}

// regexAllowed reports whether a slash after prev opens a regular expression
// literal rather than a division.
func regexAllowed(prev byte) bool {
	return prev == 0 || strings.IndexByte("(,=:[!&|?{};+-*%<>~^", prev) >= 0
}

func skipRegex(src string, i int) int {
	inClass := false
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				return j + 1
			}
		case '\n':
			return j
		}
	}
	return len(src)
}

// ScanCSS returns the local @import targets of a stylesheet, in order.
func ScanCSS(src string) ([]string, error) {
	sheet, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	var specs []string
	for _, r := range sheet.Rules {
		if r.Kind != css.AtRule || !strings.EqualFold(strings.TrimPrefix(r.Name, "@"), "import") {
			continue
		}
		target := ImportTarget(r.Prelude)
		if target == "" || IsRemote(target) {
			continue
		}
		specs = append(specs, target)
	}
	return specs, nil
}

// ImportTarget extracts the URL of an @import prelude such as
// `url("a.css") screen` or `'a.css'`.
func ImportTarget(prelude string) string {
	m := importTargetPattern.FindStringSubmatch(prelude)
	if m == nil {
		return ""
	}
	return m[1]
}

// IsRemote reports whether an import target points outside the source tree.
func IsRemote(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "//") || strings.Contains(lower, "://") || strings.HasPrefix(lower, "data:")
}

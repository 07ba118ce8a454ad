// Package htmlemit injects stylesheet and script references into an HTML
// template. Everything outside the insertion point is kept byte for byte.
package htmlemit

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	xhtml "golang.org/x/net/html"
)

// Injection targets.
const (
	InjectHead = "head"
	InjectBody = "body"
)

// Script attributes.
const (
	AttrDefer = "defer"
	AttrAsync = "async"
	AttrNone  = "none"
)

// ErrEmptyTemplate is returned for a template without content.
var ErrEmptyTemplate = errors.New("html template is empty")

// Reference is an emitted artifact the document must load.
type Reference struct {
	Kind string // "css" or "js"
	Path string // slash separated, relative to the output root
}

// Options configures injection.
type Options struct {
	Inject          string
	ScriptAttribute string
	PublicPath      string
}

// Emit returns template with a <link> for every CSS reference followed by a
// <script> for every JS reference, inserted before </head> or </body>.
func Emit(template []byte, refs []Reference, opts Options) ([]byte, error) {
	if len(bytes.TrimSpace(template)) == 0 {
		return nil, ErrEmptyTemplate
	}
	target := opts.Inject
	if target == "" {
		target = InjectHead
	}
	if target != InjectHead && target != InjectBody {
		return nil, fmt.Errorf("unknown inject target %q", opts.Inject)
	}
	attr, err := scriptAttribute(opts.ScriptAttribute)
	if err != nil {
		return nil, err
	}

	offset, err := insertionOffset(template, target)
	if err != nil {
		return nil, err
	}

	tags := renderTags(refs, opts.PublicPath, attr)
	out := make([]byte, 0, len(template)+len(tags))
	out = append(out, template[:offset]...)
	out = append(out, tags...)
	out = append(out, template[offset:]...)
	return out, nil
}

func scriptAttribute(a string) (string, error) {
	switch a {
	case "", AttrDefer:
		return " defer", nil
	case AttrAsync:
		return " async", nil
	case AttrNone:
		return "", nil
	default:
		return "", fmt.Errorf("unknown script attribute %q", a)
	}
}

// insertionOffset finds the byte offset of the closing tag of target: the
// first </head>, or the last </body>.
func insertionOffset(template []byte, target string) (int, error) {
	z := xhtml.NewTokenizer(bytes.NewReader(template))
	pos := 0
	found := -1
	for {
		tt := z.Next()
		raw := len(z.Raw())
		if tt == xhtml.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return 0, fmt.Errorf("tokenize template: %w", z.Err())
		}
		if tt == xhtml.EndTagToken {
			name, _ := z.TagName()
			if string(name) == target {
				found = pos
				if target == InjectHead {
					break
				}
			}
		}
		pos += raw
	}
	if found < 0 {
		return 0, fmt.Errorf("template has no </%s> to inject into", target)
	}
	return found, nil
}

func renderTags(refs []Reference, publicPath, attr string) []byte {
	var css, js strings.Builder
	for _, r := range refs {
		href := html.EscapeString(joinPublic(publicPath, r.Path))
		switch r.Kind {
		case "css":
			fmt.Fprintf(&css, `<link href="%s" rel="stylesheet">`, href)
		case "js":
			fmt.Fprintf(&js, `<script src="%s"%s></script>`, href, attr)
		}
	}
	return []byte(css.String() + js.String())
}

func joinPublic(publicPath, p string) string {
	if publicPath == "" {
		return p
	}
	return strings.TrimSuffix(publicPath, "/") + "/" + strings.TrimPrefix(p, "/")
}

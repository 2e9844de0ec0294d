package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// DefaultSnapshotLength bounds the size of an HTML snapshot in bytes.
const DefaultSnapshotLength = 2 << 20

// Snapshot is a cleaned, self-contained copy of a form page.
type Snapshot struct {
	Title     string
	HTML      string
	Truncated bool
}

var droppedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"svg":      true,
	"link":     true,
	"meta":     true,
}

var voidElements = map[string]bool{
	"br":    true,
	"hr":    true,
	"img":   true,
	"input": true,
	"wbr":   true,
}

// keptAttribute reports whether an attribute carries form state worth
// keeping in a snapshot: roles, aria state and input values.
func keptAttribute(name string) bool {
	name = strings.ToLower(name)
	if strings.HasPrefix(name, "aria-") {
		return true
	}
	switch name {
	case "role", "type", "name", "value", "checked", "selected", "placeholder", "href", "src", "alt":
		return true
	}
	return false
}

type snapshotWriter struct {
	b         strings.Builder
	max       int
	truncated bool
}

// CleanSnapshot strips scripts, styles and frames from rawHTML, keeping
// the structure and the attributes that describe answers.
func CleanSnapshot(rawHTML string, maxLength int) (*Snapshot, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	if maxLength <= 0 {
		maxLength = DefaultSnapshotLength
	}

	w := &snapshotWriter{max: maxLength}
	title := findTitle(doc)
	w.b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&w.b, "<title>%s</title></head>\n", html.EscapeString(title))
	if body := findElement(doc, "body"); body != nil {
		w.node(body)
	} else {
		w.node(doc)
	}
	w.b.WriteString("\n</html>\n")

	return &Snapshot{Title: title, HTML: w.b.String(), Truncated: w.truncated}, nil
}

// WriteSnapshot cleans rawHTML and writes it to path.
func WriteSnapshot(rawHTML, path string) error {
	snap, err := CleanSnapshot(rawHTML, DefaultSnapshotLength)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(snap.HTML), 0644)
}

func (w *snapshotWriter) full() bool {
	if w.b.Len() >= w.max {
		w.truncated = true
		return true
	}
	return false
}

func (w *snapshotWriter) node(n *html.Node) {
	if w.full() {
		return
	}
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			w.b.WriteString(html.EscapeString(text))
		}
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if droppedElements[tag] {
			return
		}
		w.b.WriteString("<" + tag)
		for _, attr := range n.Attr {
			if keptAttribute(attr.Key) {
				fmt.Fprintf(&w.b, ` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
			}
		}
		w.b.WriteString(">")
		if voidElements[tag] {
			return
		}
		w.children(n)
		w.b.WriteString("</" + tag + ">")
		return
	}
	w.children(n)
}

func (w *snapshotWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c)
	}
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findTitle(doc *html.Node) string {
	t := findElement(doc, "title")
	if t == nil || t.FirstChild == nil || t.FirstChild.Type != html.TextNode {
		return ""
	}
	return strings.TrimSpace(t.FirstChild.Data)
}

package agent

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "svg": true,
	"head": true, "meta": true, "link": true, "template": true, "path": true,
}

var keptAttributes = map[string]bool{
	"id": true, "name": true, "type": true, "placeholder": true, "aria-label": true,
	"role": true, "href": true, "title": true, "alt": true, "data-testid": true,
	"for": true, "autocomplete": true,
}

var voidElements = map[string]bool{
	"input": true, "img": true, "br": true, "hr": true, "area": true, "base": true,
	"col": true, "embed": true, "source": true, "track": true, "wbr": true,
}

// Snapshot reduces page HTML to the elements and attributes useful for choosing selectors,
// truncated to limit bytes. Input values are never included.
func Snapshot(rawHTML string, limit int) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	if limit <= 0 {
		limit = 30000
	}

	w := &snapshotWriter{limit: limit}
	w.node(doc, 0)
	out := strings.TrimSpace(w.b.String())
	if w.truncated {
		out += "\n[snapshot truncated]"
	}
	return out, nil
}

type snapshotWriter struct {
	b         strings.Builder
	limit     int
	truncated bool
}

func (w *snapshotWriter) write(s string) bool {
	if w.b.Len()+len(s) > w.limit {
		w.truncated = true
		return false
	}
	w.b.WriteString(s)
	return true
}

func (w *snapshotWriter) node(n *html.Node, depth int) {
	if w.truncated {
		return
	}
	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return
	case html.TextNode:
		text := strings.Join(strings.Fields(n.Data), " ")
		if text != "" {
			w.write(text)
		}
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if skippedElements[tag] {
			return
		}
		if hidden(n) {
			return
		}

		var open strings.Builder
		open.WriteString("\n")
		open.WriteString(strings.Repeat(" ", depth))
		open.WriteString("<" + tag)
		for _, a := range n.Attr {
			if keptAttributes[a.Key] && a.Val != "" {
				fmt.Fprintf(&open, ` %s="%s"`, a.Key, html.EscapeString(a.Val))
			}
		}
		open.WriteString(">")
		if !w.write(open.String()) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.node(c, depth+1)
		}
		if !voidElements[tag] {
			w.write("</" + tag + ">")
		}
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c, depth)
	}
}

func hidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if a.Val == "true" {
				return true
			}
		case "type":
			if strings.EqualFold(n.Data, "input") && a.Val == "hidden" {
				return true
			}
		}
	}
	return false
}

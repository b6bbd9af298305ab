package sources

import (
	"strings"

	"golang.org/x/net/html"
)

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// hasClass reports whether className is one of the node's class tokens.
func hasClass(n *html.Node, className string) bool {
	for _, token := range strings.Fields(getAttr(n, "class")) {
		if token == className {
			return true
		}
	}
	return false
}

// textContent returns the whitespace-collapsed text of a node and its children.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// findFirst returns the first descendant (or n itself) matching the predicate.
func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every matching element. Matches are not searched for nested matches.
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	if n.Type == html.ElementNode && match(n) {
		return []*html.Node{n}
	}
	var results []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		results = append(results, findAll(c, match)...)
	}
	return results
}

func byClass(className string) func(*html.Node) bool {
	return func(n *html.Node) bool { return hasClass(n, className) }
}

func byAttr(key, value string) func(*html.Node) bool {
	return func(n *html.Node) bool { return getAttr(n, key) == value }
}

func byTagWithAttr(tag, key string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag && hasAttr(n, key) }
}

// findText returns the text of the first element matching the predicate or "".
func findText(n *html.Node, match func(*html.Node) bool) string {
	if found := findFirst(n, match); found != nil {
		return textContent(found)
	}
	return ""
}

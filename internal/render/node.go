package render

import (
	"bytes"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr builds a single attribute.
func Attr(key, value string) html.Attribute {
	return html.Attribute{Key: key, Val: value}
}

// Element creates an element node with the given attributes.
func Element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// Text creates a text node.
func Text(value string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: value}
}

// Append adds children to parent, skipping nil nodes, and returns parent.
func Append(parent *html.Node, children ...*html.Node) *html.Node {
	for _, child := range children {
		if child == nil {
			continue
		}
		if child.Parent != nil {
			child.Parent.RemoveChild(child)
		}
		parent.AppendChild(child)
	}
	return parent
}

// TextElement creates tag holding value as its only child.
func TextElement(tag, class, value string) *html.Node {
	node := Element(tag)
	if class != "" {
		node.Attr = append(node.Attr, Attr("class", class))
	}
	return Append(node, Text(value))
}

// GetAttr returns the value of key on node.
func GetAttr(node *html.Node, key string) (string, bool) {
	if node == nil {
		return "", false
	}
	for _, attr := range node.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces key on node.
func SetAttr(node *html.Node, key, value string) {
	for i := range node.Attr {
		if node.Attr[i].Key == key {
			node.Attr[i].Val = value
			return
		}
	}
	node.Attr = append(node.Attr, Attr(key, value))
}

// AddClass appends class names to the class attribute of node.
func AddClass(node *html.Node, classes ...string) {
	current, _ := GetAttr(node, "class")
	fields := strings.Fields(current)
	for _, class := range classes {
		if class != "" {
			fields = append(fields, class)
		}
	}
	SetAttr(node, "class", strings.Join(fields, " "))
}

// TrackingAttrs returns click tracking attributes for event. Parameters are
// emitted in key order so output is stable.
func TrackingAttrs(event string, params map[string]string) []html.Attribute {
	attrs := []html.Attribute{Attr("data-track-event", event)}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		attrs = append(attrs, Attr("data-track-"+key, params[key]))
	}
	return attrs
}

// ParseFragment parses markup as children of a context element named
// parentTag.
func ParseFragment(markup, parentTag string) ([]*html.Node, error) {
	context := Element(parentTag)
	return html.ParseFragment(strings.NewReader(markup), context)
}

// RenderHTML serialises node.
func RenderHTML(node *html.Node) (string, error) {
	if node == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Walk visits node and every descendant depth first.
func Walk(node *html.Node, visit func(*html.Node)) {
	if node == nil {
		return
	}
	visit(node)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		Walk(child, visit)
	}
}

// FindAll returns descendants of node for which match is true.
func FindAll(node *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	Walk(node, func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
	})
	return out
}

// InnerText concatenates the text nodes below node.
func InnerText(node *html.Node) string {
	var b strings.Builder
	Walk(node, func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	})
	return b.String()
}

package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-pkgz/lgr"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"

	"github.com/umputun/jobimport/pkg/domain"
)

// ErrParse marks a document which could not be parsed. Retrying will not change a malformed document.
var ErrParse = errors.New("parse feed")

// Node is an element of a parsed feed document. Names are lowercased, namespaced names keep their prefix
// ("content:encoded"). A node with List set is a root-level array whose children are the items.
type Node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Node
	List     bool
}

// Parser converts raw feed documents to a tree of nodes with a two-tier fallback
type Parser struct {
	feeds *gofeed.Parser
}

// NewParser creates a new feed parser
func NewParser() *Parser {
	return &Parser{feeds: gofeed.NewParser()}
}

// ParseItems parses a raw document and extracts its items
func (p *Parser) ParseItems(data []byte) ([]domain.RawItem, error) {
	root, err := p.Parse(data)
	if err != nil {
		return nil, err
	}
	return ExtractItems(root), nil
}

// Parse cleans the document and converts it to a tree. Atom and JSON feeds are decoded to a root-level item array,
// everything else goes through the strict XML pass first and a permissive pass with attribute repair after.
// Errors returned wrap ErrParse.
func (p *Parser) Parse(data []byte) (*Node, error) {
	cleaned := Clean(string(data))

	// atom and json feeds go through gofeed, rss and unknown xml through the tree decoder
	switch gofeed.DetectFeedType(strings.NewReader(cleaned)) {
	case gofeed.FeedTypeAtom, gofeed.FeedTypeJSON:
		root, err := p.parseFeed(cleaned)
		if err == nil {
			return root, nil
		}
		lgr.Printf("[DEBUG] feed decoder failed, falling back to generic xml: %v", err)
	}

	root, err := decodeTree(cleaned, true)
	if err == nil {
		return root, nil
	}
	lgr.Printf("[DEBUG] strict xml pass failed, retrying permissive: %v", err)

	// permissive pass on a document with attribute values quoted
	root, fbErr := decodeTree(quoteAttributes(cleaned), false)
	if fbErr != nil {
		return nil, fmt.Errorf("%w: %v (strict pass: %v)", ErrParse, fbErr, err)
	}
	return root, nil
}

// ExtractItems returns the items of a parsed document. It accepts a channel-wrapped item list,
// a bare item list under the root, a root-level array or a single item document. Unknown shapes yield an empty list.
func ExtractItems(root *Node) []domain.RawItem {
	if root == nil {
		return []domain.RawItem{}
	}

	var nodes []*Node
	switch {
	case root.List:
		nodes = root.Children
	case root.Name == "item":
		nodes = []*Node{root}
	default:
		if channel := root.child("channel"); channel != nil {
			nodes = channel.childrenNamed("item")
		}
		if len(nodes) == 0 {
			nodes = root.childrenNamed("item")
		}
	}

	items := make([]domain.RawItem, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.value().(type) {
		case domain.RawItem:
			items = append(items, v)
		case string:
			if v != "" {
				items = append(items, domain.RawItem{domain.TextKey: v})
			}
		}
	}
	return items
}

// decodeTree builds a node tree with encoding/xml. The strict mode rejects unquoted attributes, bare ampersands
// and mismatched tags. The permissive mode tolerates all of them and closes an unterminated element when
// an end tag of its parent shows up. No element is treated as void, rss <link> carries text.
func decodeTree(data string, strict bool) (*Node, error) {
	dec := xml.NewDecoder(strings.NewReader(data))
	dec.Strict = strict
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	prefixes := map[string]string{} // namespace url -> declared prefix
	var root *Node
	var stack []*Node
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			// collect prefixes declared on this element before naming it
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" {
					prefixes[a.Value] = a.Name.Local
				}
			}
			n := &Node{Name: qualifiedName(t.Name, prefixes)}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				if n.Attrs == nil {
					n.Attrs = map[string]string{}
				}
				n.Attrs[qualifiedName(a.Name, prefixes)] = a.Value
			}
			// attach to the open parent
			switch {
			case len(stack) > 0:
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			case root == nil:
				root = n
			default:
				// a second top-level element, keep it under the first one
				root.Children = append(root.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("no root element")
	}
	return root, nil
}

func qualifiedName(name xml.Name, prefixes map[string]string) string {
	local := strings.ToLower(name.Local)
	if name.Space == "" {
		return local
	}
	if prefix, ok := prefixes[name.Space]; ok {
		return strings.ToLower(prefix) + ":" + local
	}
	if strings.Contains(name.Space, "/") || strings.HasPrefix(name.Space, "urn:") {
		return local // default namespace or well-known url without a declared prefix
	}
	return strings.ToLower(name.Space) + ":" + local
}

func (n *Node) child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (n *Node) childrenNamed(name string) []*Node {
	var res []*Node
	for _, c := range n.Children {
		if c.Name == name {
			res = append(res, c)
		}
	}
	return res
}

// value converts the node to a plain string when it has only text, otherwise to a RawItem
// with attributes merged in, children keyed by name (repeated names collected to a list) and text under TextKey.
func (n *Node) value() any {
	text := strings.TrimSpace(n.Text)
	if len(n.Children) == 0 && len(n.Attrs) == 0 {
		return text
	}

	res := domain.RawItem{}
	for k, v := range n.Attrs {
		res[k] = v
	}
	for _, c := range n.Children {
		addField(res, c.Name, c.value())
	}
	if text != "" {
		res[domain.TextKey] = text
	}
	return res
}

func addField(item domain.RawItem, key string, val any) {
	existing, ok := item[key]
	if !ok {
		item[key] = val
		return
	}
	if list, ok := existing.([]any); ok {
		item[key] = append(list, val)
		return
	}
	item[key] = []any{existing, val}
}

// parseFeed decodes atom and json feeds with gofeed into a root-level item array
func (p *Parser) parseFeed(data string) (*Node, error) {
	parsed, err := p.feeds.Parse(bytes.NewReader([]byte(data)))
	if err != nil {
		return nil, err
	}

	root := &Node{Name: parsed.FeedType, List: true}
	for _, item := range parsed.Items {
		n := &Node{Name: "item"}
		add := func(name, text string) {
			if text != "" {
				n.Children = append(n.Children, &Node{Name: name, Text: text})
			}
		}
		add("title", item.Title)
		add("link", item.Link)
		add("description", item.Description)
		add("content:encoded", item.Content)
		add("guid", item.GUID)
		add("pubdate", item.Published)
		add("updated", item.Updated)
		if item.Author != nil {
			add("author", item.Author.Name)
		}
		for _, c := range item.Categories {
			add("category", c)
		}
		for k, v := range item.Custom {
			add(strings.ToLower(k), v)
		}
		for prefix, elems := range item.Extensions {
			for name, exts := range elems {
				for _, e := range exts {
					add(strings.ToLower(prefix+":"+name), e.Value)
				}
			}
		}
		root.Children = append(root.Children, n)
	}
	return root, nil
}

package feed

import (
	"encoding/xml"
	"fmt"
	"io"

	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/text/encoding/htmlindex"
)

type nodeKind int

const (
	documentNode nodeKind = iota
	elementNode
	textNode
	commentNode
)

// node is one vertex of the parsed document tree. Element names carry the
// resolved namespace URI in Space when the prefix was declared.
type node struct {
	kind     nodeKind
	name     xml.Name
	attrs    []xml.Attr
	text     string
	children []*node
}

func (n *node) isElement(local string) bool {
	return n.kind == elementNode && n.name.Local == local
}

// buildTree tokenizes r and returns the document node. Adjacent character
// data, including CDATA sections, is merged into a single text node. Comments
// are kept as empty separators, so text on either side of one stays in two
// nodes. Directives and processing instructions are dropped.
func buildTree(r io.Reader) (*node, error) {
	p := xpp.NewXMLPullParser(r, false, charsetReader)

	doc := &node{kind: documentNode}
	stack := []*node{doc}

	for {
		event, err := p.NextToken()
		if err != nil {
			return nil, err
		}

		top := stack[len(stack)-1]

		switch event {
		case xpp.EndDocument:
			if len(stack) > 1 {
				return nil, fmt.Errorf("unexpected end of document inside <%s>", top.name.Local)
			}
			return doc, nil

		case xpp.StartTag:
			el := &node{
				kind:  elementNode,
				name:  xml.Name{Space: p.Space, Local: p.Name},
				attrs: p.Attrs,
			}
			top.children = append(top.children, el)
			stack = append(stack, el)

		case xpp.EndTag:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}

		case xpp.Text:
			if top.kind == documentNode {
				continue
			}
			if n := len(top.children); n > 0 && top.children[n-1].kind == textNode {
				top.children[n-1].text += p.Text
				continue
			}
			top.children = append(top.children, &node{kind: textNode, text: p.Text})

		case xpp.Comment:
			if top.kind != documentNode {
				top.children = append(top.children, &node{kind: commentNode})
			}
		}
	}
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

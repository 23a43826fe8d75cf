package shell

import (
	"bytes"
	"fmt"

	gohtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// InjectScripts appends a <script src> element to the document head for
// every src not already referenced by a script in the document.
func InjectScripts(doc []byte, srcs ...string) ([]byte, error) {
	root, err := gohtml.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	var head *gohtml.Node
	present := make(map[string]bool)
	var walk func(n *gohtml.Node)
	walk = func(n *gohtml.Node) {
		if n.Type == gohtml.ElementNode {
			switch n.DataAtom {
			case atom.Head:
				if head == nil {
					head = n
				}
			case atom.Script:
				for _, a := range n.Attr {
					if a.Key == "src" {
						present[a.Val] = true
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if head == nil {
		return nil, fmt.Errorf("page has no head element")
	}

	for _, src := range srcs {
		if present[src] {
			continue
		}
		present[src] = true
		head.AppendChild(&gohtml.Node{
			Type:     gohtml.ElementNode,
			DataAtom: atom.Script,
			Data:     "script",
			Attr:     []gohtml.Attribute{{Key: "src", Val: src}},
		})
	}

	var out bytes.Buffer
	if err := gohtml.Render(&out, root); err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return out.Bytes(), nil
}

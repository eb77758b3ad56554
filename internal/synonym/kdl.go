package synonym

import (
	"fmt"
	"io"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	cmerrors "github.com/standardbeagle/conceptmap/internal/errors"
)

// parseKDL reads the KDL layout:
//
//	group "diabetes" {
//	    terms "sugar sickness" "blood sugar"
//	    codes "E11.9" "E11.65"
//	}
//	exclude "ibuprofen" "tylenol"
func parseKDL(r io.Reader) (*Document, error) {
	kdoc, err := kdl.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cmerrors.ErrMalformedInput, err)
	}

	doc := &Document{}
	for _, n := range kdoc.Nodes {
		switch nodeName(n) {
		case "group":
			key, ok := firstStringArg(n)
			if !ok {
				return nil, fmt.Errorf("%w: group node needs a canonical key argument", cmerrors.ErrMalformedInput)
			}
			g := RawGroup{CanonicalKey: key}
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "terms", "term":
					g.Terms = append(g.Terms, stringArgs(cn)...)
				case "codes", "code":
					g.LinkedCodes = append(g.LinkedCodes, stringArgs(cn)...)
				}
			}
			doc.Groups = append(doc.Groups, g)
		case "exclude":
			doc.Exclusions = append(doc.Exclusions, stringArgs(n)...)
		}
	}
	return doc, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	s, ok := n.Arguments[0].Value.(string)
	return s, ok
}

// stringArgs collects inline string arguments, or the names of child nodes
// for the block form: terms { "a"; "b"; }
func stringArgs(n *document.Node) []string {
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

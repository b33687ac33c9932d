package textutil

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// StripMarkdown renders AI replies as plain text. Emphasis, headings, code fences and
// links are reduced to their text, unordered list items become "• " bullets and ordered
// items keep their numbers.
func StripMarkdown(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}

	src := []byte(source)
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	var out strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				out.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					out.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				out.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				out.Write(node.Label(src))
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					segment := lines.At(i)
					out.Write(segment.Value(src))
				}
				out.WriteByte('\n')
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			if entering {
				out.WriteString(listMarker(node))
			}
		case *ast.Heading, *ast.Paragraph:
			if !entering {
				out.WriteString("\n\n")
			}
		case *ast.TextBlock:
			if !entering {
				out.WriteByte('\n')
			}
		case *ast.List:
			if !entering {
				out.WriteByte('\n')
			}
		case *ast.ThematicBreak:
			if entering {
				out.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})

	result := blankRuns.ReplaceAllString(out.String(), "\n\n")
	return strings.TrimSpace(result)
}

func listMarker(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return "• "
	}
	index := list.Start
	for sibling := item.PreviousSibling(); sibling != nil; sibling = sibling.PreviousSibling() {
		index++
	}
	return strconv.Itoa(index) + ". "
}

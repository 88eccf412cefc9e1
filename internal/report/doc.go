package report

import (
	"bytes"
	"github.com/myrjola/dfircase/internal/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"regexp"
	"strings"
)

var boldPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{ //nolint:exhaustruct // tree links are set by AppendChild
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s} //nolint:exhaustruct // plain text node
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Namespace: "", Key: key, Val: val}
}

// encodeDoc wraps the report text in an HTML document shell that word processors open as a document.
//
// Lines starting with #, ##, or ### become headings, **bold** spans become bold, and every other line ends with
// a line break.
func encodeDoc(content string) ([]byte, error) {
	doc := &html.Node{Type: html.DocumentNode} //nolint:exhaustruct // root node
	root := element(atom.Html,
		attr("xmlns:o", "urn:schemas-microsoft-com:office:office"),
		attr("xmlns:w", "urn:schemas-microsoft-com:office:word"),
		attr("xmlns", "http://www.w3.org/TR/REC-html40"),
	)
	doc.AppendChild(root)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	title := element(atom.Title)
	title.AppendChild(text("Report"))
	head.AppendChild(title)
	root.AppendChild(head)

	body := element(atom.Body)
	container := element(atom.Div, attr("style", "font-family: Arial, sans-serif; white-space: pre-wrap;"))
	body.AppendChild(container)
	root.AppendChild(body)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		if heading := headingFor(line); heading != nil {
			container.AppendChild(heading)
			continue
		}
		appendInline(container, line)
		container.AppendChild(element(atom.Br))
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, errors.Wrap(err, "render document")
	}
	return buf.Bytes(), nil
}

// headingFor returns the heading element of a Markdown heading line, or nil.
func headingFor(line string) *html.Node {
	levels := []struct {
		prefix string
		tag    atom.Atom
	}{
		{"### ", atom.H3},
		{"## ", atom.H2},
		{"# ", atom.H1},
	}
	for _, level := range levels {
		if rest, ok := strings.CutPrefix(line, level.prefix); ok {
			heading := element(level.tag)
			appendInline(heading, rest)
			return heading
		}
	}
	return nil
}

// appendInline appends line to parent, translating **bold** spans.
func appendInline(parent *html.Node, line string) {
	last := 0
	for _, match := range boldPattern.FindAllStringSubmatchIndex(line, -1) {
		if match[0] > last {
			parent.AppendChild(text(line[last:match[0]]))
		}
		bold := element(atom.B)
		bold.AppendChild(text(line[match[2]:match[3]]))
		parent.AppendChild(bold)
		last = match[1]
	}
	if last < len(line) {
		parent.AppendChild(text(line[last:]))
	}
}

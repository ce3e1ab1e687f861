// # internal/engine/parser/common.go
package parser

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

func trimQuoted(value string) string {
	value = strings.TrimSpace(value)
	return strings.Trim(value, "\"'`")
}

func splitAndTrim(value, sep string) []string {
	parts := strings.Split(value, sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// syntheticLambdaName derives the deterministic name for an anonymous
// function from its position.
func syntheticLambdaName(span Span) string {
	return fmt.Sprintf("<lambda>@%d:%d", span.StartLine, span.StartCol)
}

// countLeadingDots returns the length of the leading dot run, the relative
// level of Python-style import prefixes.
func countLeadingDots(s string) int {
	count := 0
	for _, r := range s {
		if r != '.' {
			break
		}
		count++
	}
	return count
}

// cleanDocstring strips quoting (and string prefixes) from a string-literal
// docstring.
func cleanDocstring(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "rRbBuUfF")
	for _, q := range []string{`"""`, "'''"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2 {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

// cleanCommentDoc strips comment syntax from a comment block into plain
// text, preserving line structure.
func cleanCommentDoc(raw string) string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "/**")
		line = strings.TrimPrefix(line, "/*")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimPrefix(line, "///")
		line = strings.TrimPrefix(line, "//!")
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimPrefix(line, "#")
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

var commentNodeKinds = map[string]bool{
	"comment":       true,
	"line_comment":  true,
	"block_comment": true,
}

// leadingComment collects the contiguous comment block ending on the line
// directly above node, for languages whose docs are leading comments.
func leadingComment(src []byte, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	var parts []string
	expectedLine := int(node.StartPosition().Row)
	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		if !commentNodeKinds[prev.Kind()] {
			break
		}
		endLine := int(prev.EndPosition().Row)
		if endLine < expectedLine-1 {
			break
		}
		parts = append([]string{string(src[prev.StartByte():prev.EndByte()])}, parts...)
		expectedLine = int(prev.StartPosition().Row)
	}
	if len(parts) == 0 {
		return ""
	}
	return cleanCommentDoc(strings.Join(parts, "\n"))
}

// firstChildOfKind returns node's first direct child of the given kind.
func firstChildOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// hasChildOfKind reports whether node has a direct child of the given kind.
func hasChildOfKind(node *sitter.Node, kind string) bool {
	return firstChildOfKind(node, kind) != nil
}

// firstDescendantOfKind returns the first node of the given kind in a
// depth-first walk of node's subtree, node itself included, or nil.
func firstDescendantOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Kind() == kind {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstDescendantOfKind(node.Child(i), kind); found != nil {
			return found
		}
	}
	return nil
}

package output

import (
	"fmt"
	"strconv"
	"strings"

	"codemap/internal/engine/graph"
)

// TSVGenerator renders the dependency edge list as tab-separated values,
// one row per edge, unresolved targets included.
type TSVGenerator struct{}

func NewTSVGenerator() *TSVGenerator {
	return &TSVGenerator{}
}

func (t *TSVGenerator) Generate(snap graph.Snapshot) (string, error) {
	var b strings.Builder
	b.WriteString("from\tto\tkind\tmodule\tguarded\tline\tcol\n")
	for _, edge := range snap.Edges {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			escapeTSV(edge.From),
			escapeTSV(edge.To),
			edge.Import.Kind,
			escapeTSV(edge.Import.Module),
			strconv.FormatBool(edge.Import.Guarded),
			edge.Import.Span.StartLine,
			edge.Import.Span.StartCol,
		)
	}
	return b.String(), nil
}

func escapeTSV(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

package output

import (
	"encoding/json"
	"fmt"

	"codemap/internal/engine/graph"
)

// JSONGenerator dumps the whole snapshot as indented JSON. This is the
// machine-readable counterpart of the markdown code map.
type JSONGenerator struct{}

func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{}
}

func (j *JSONGenerator) Generate(snap graph.Snapshot) (string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(data) + "\n", nil
}

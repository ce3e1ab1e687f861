package httpapi

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var contractData []byte

// LoadContract parses and validates the embedded API contract. A broken
// document fails server construction, not the first request.
func LoadContract(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(contractData)
	if err != nil {
		return nil, fmt.Errorf("load embedded openapi contract: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate embedded openapi contract: %w", err)
	}
	return doc, nil
}

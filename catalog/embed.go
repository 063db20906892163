package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/xeipuuv/gojsonschema"

	"github.com/lexvaani/formfill/types"
)

//go:embed catalog.json
var builtinCatalog []byte

//go:embed schema.json
var catalogMetaSchema []byte

type catalogFile struct {
	Forms []*types.FormSchema `json:"forms"`
}

// Load parses a catalog document, validating it against the catalog JSON
// schema first so a misconfigured file fails fast with field-level messages
// instead of surfacing as runtime extraction bugs.
func Load(data []byte) (*Static, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(catalogMetaSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: validate: %w", err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			issues = append(issues, e.String())
		}
		return nil, fmt.Errorf("catalog: invalid document: %s", strings.Join(issues, "; "))
	}

	var file catalogFile
	if err := sonic.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return NewStatic(file.Forms)
}

// BuiltIn returns the embedded legal form catalog.
func BuiltIn() (*Static, error) {
	return Load(builtinCatalog)
}

// MustBuiltIn is BuiltIn for wiring at startup, where an invalid embedded
// catalog is unrecoverable.
func MustBuiltIn() *Static {
	c, err := BuiltIn()
	if err != nil {
		panic(err)
	}
	return c
}

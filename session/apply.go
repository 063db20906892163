package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/lexvaani/formfill/types"
)

// Operation is one RFC 6902 patch step against the filled document.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

const (
	opAdd     = "add"
	opReplace = "replace"
)

// opsForValues turns extracted field values into patch operations. Values for
// ids outside the schema are dropped rather than rejected: the oracle invents
// keys and a stray key must never fail the whole turn. Empty strings are
// dropped too, an empty value is a non-answer.
func opsForValues(schema *types.FormSchema, current map[string]any, values map[string]any) []Operation {
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	ops := make([]Operation, 0, len(ids))
	for _, id := range ids {
		if schema.Field(id) == nil {
			continue
		}
		value := values[id]
		if s, ok := value.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			value = s
		}
		op := opAdd
		if _, exists := current[id]; exists {
			op = opReplace
		}
		ops = append(ops, Operation{Op: op, Path: "/" + escapePointer(id), Value: value})
	}
	return ops
}

// validateOps enforces that every path targets a top-level schema field.
func validateOps(schema *types.FormSchema, ops []Operation) error {
	allowed := make(map[string]bool, len(schema.Fields))
	for _, f := range schema.Fields {
		allowed["/"+escapePointer(f.ID)] = true
	}
	for i, op := range ops {
		if !allowed[op.Path] {
			return fmt.Errorf("operation %d: path %q is not a form field", i, op.Path)
		}
	}
	return nil
}

// applyOps applies the patch and returns a fresh document, leaving current
// untouched so a failed apply cannot corrupt session state.
func applyOps(current map[string]any, ops []Operation) (map[string]any, error) {
	if len(ops) == 0 {
		return current, nil
	}

	currentJSON, err := sonic.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("marshal current state: %w", err)
	}
	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("marshal patch operations: %w", err)
	}

	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	modifiedJSON, err := patch.Apply(currentJSON)
	if err != nil {
		return nil, fmt.Errorf("apply patch: %w", err)
	}

	var result map[string]any
	if err := sonic.Unmarshal(modifiedJSON, &result); err != nil {
		return nil, fmt.Errorf("unmarshal patched state: %w", err)
	}
	return result, nil
}

func escapePointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

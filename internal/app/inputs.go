package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/juris-lang/juris/internal/eval"
)

// parseInputs decodes the inputs JSON object into cty values, with each
// value's type implied by its JSON shape. Enum values are written as
// {"case": name} or {"case": name, "payload": value} objects.
func parseInputs(raw string) (map[string]cty.Value, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var byName map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &byName); err != nil {
		return nil, fmt.Errorf("inputs must be a JSON object: %w", err)
	}
	out := make(map[string]cty.Value, len(byName))
	for name, rawVal := range byName {
		ty, err := ctyjson.ImpliedType(rawVal)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		v, err := ctyjson.Unmarshal(rawVal, ty)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// renderResult marshals the run's outputs as one JSON object, keyed and
// ordered by output declaration order.
func renderResult(res *eval.Result) (string, error) {
	var b strings.Builder
	b.WriteString("{")
	for i, name := range res.Order {
		v := res.Values[name]
		enc, err := ctyjson.Marshal(v, v.Type())
		if err != nil {
			return "", fmt.Errorf("output %q: %w", name, err)
		}
		if i > 0 {
			b.WriteString(",")
		}
		key, err := json.Marshal(name)
		if err != nil {
			return "", err
		}
		b.Write(key)
		b.WriteString(":")
		b.Write(enc)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

package hclspec

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// bodyToMap evaluates every attribute of a config body into a plain Go
// map. Attributes are literal expressions; there is no evaluation
// context, so references to other blocks are parse errors.
func bodyToMap(body hcl.Body) (map[string]any, error) {
	if body == nil {
		return map[string]any{}, nil
	}

	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid config block: %s", diags.Error())
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]any, len(attrs))
	for _, name := range names {
		val, diags := attrs[name].Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid value for %q: %s", name, diags.Error())
		}
		gv, err := ctyToGo(val)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %q: %w", name, err)
		}
		out[name] = gv
	}
	return out, nil
}

// ctyToGo lowers a cty value into the plain Go shapes executors consume:
// nil, bool, float64, string, []any, and map[string]any.
func ctyToGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsKnown() {
		return nil, fmt.Errorf("value is not known at load time")
	}

	t := val.Type()
	switch {
	case t == cty.String:
		return val.AsString(), nil
	case t == cty.Bool:
		return val.True(), nil
	case t == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			gv, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	case t.IsObjectType() || t.IsMapType():
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			gv, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out[kv.AsString()] = gv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported configuration value of type %s", t.FriendlyName())
	}
}

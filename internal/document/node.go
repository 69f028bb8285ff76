package document

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Node is one object in a document: a string-keyed map of values.
//
// Values may be string, bool, any Go integer or float, json.Number,
// []float64, []int, []string, []Node, Node, map[string]any or []any of
// those. Decoded documents contain the generic forms; encoders may use the
// typed slices directly.
type Node map[string]any

// Has reports whether key is present.
func (n Node) Has(key string) bool {
	_, ok := n[key]
	return ok
}

// Set stores value under key and returns n for chaining.
func (n Node) Set(key string, value any) Node {
	n[key] = value
	return n
}

// Keys returns the node's keys in sorted order.
func (n Node) Keys() []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the required string field key.
func (n Node) String(key string) (string, error) {
	v, ok := n[key]
	if !ok {
		return "", missing(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", wrongType(key, "string", v)
	}
	return s, nil
}

// OptString returns the string field key, or def if the key is absent.
// A present but mistyped value is still an error.
func (n Node) OptString(key, def string) (string, error) {
	if !n.Has(key) {
		return def, nil
	}
	return n.String(key)
}

// Bool returns the required boolean field key.
func (n Node) Bool(key string) (bool, error) {
	v, ok := n[key]
	if !ok {
		return false, missing(key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, wrongType(key, "bool", v)
	}
	return b, nil
}

// Float returns the required numeric field key.
func (n Node) Float(key string) (float64, error) {
	v, ok := n[key]
	if !ok {
		return 0, missing(key)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, wrongType(key, "number", v)
	}
	return f, nil
}

// OptFloat returns the numeric field key, or def if the key is absent.
func (n Node) OptFloat(key string, def float64) (float64, error) {
	if !n.Has(key) {
		return def, nil
	}
	return n.Float(key)
}

// Int returns the required integer field key. Floats with a fractional part
// are rejected.
func (n Node) Int(key string) (int, error) {
	v, ok := n[key]
	if !ok {
		return 0, missing(key)
	}
	i, ok := toInt(v)
	if !ok {
		return 0, wrongType(key, "integer", v)
	}
	return i, nil
}

// OptInt returns the integer field key, or def if the key is absent.
func (n Node) OptInt(key string, def int) (int, error) {
	if !n.Has(key) {
		return def, nil
	}
	return n.Int(key)
}

// Floats returns the required numeric array field key.
func (n Node) Floats(key string) ([]float64, error) {
	v, ok := n[key]
	if !ok {
		return nil, missing(key)
	}
	switch vals := v.(type) {
	case []float64:
		out := make([]float64, len(vals))
		copy(out, vals)
		return out, nil
	case []int:
		out := make([]float64, len(vals))
		for i, x := range vals {
			out[i] = float64(x)
		}
		return out, nil
	case []any:
		out := make([]float64, len(vals))
		for i, x := range vals {
			f, ok := toFloat(x)
			if !ok {
				return nil, wrongType(fmt.Sprintf("%s[%d]", key, i), "number", x)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, wrongType(key, "number array", v)
	}
}

// Ints returns the required integer array field key.
func (n Node) Ints(key string) ([]int, error) {
	v, ok := n[key]
	if !ok {
		return nil, missing(key)
	}
	switch vals := v.(type) {
	case []int:
		out := make([]int, len(vals))
		copy(out, vals)
		return out, nil
	case []any:
		out := make([]int, len(vals))
		for i, x := range vals {
			iv, ok := toInt(x)
			if !ok {
				return nil, wrongType(fmt.Sprintf("%s[%d]", key, i), "integer", x)
			}
			out[i] = iv
		}
		return out, nil
	case []float64:
		out := make([]int, len(vals))
		for i, x := range vals {
			iv, ok := toInt(x)
			if !ok {
				return nil, wrongType(fmt.Sprintf("%s[%d]", key, i), "integer", x)
			}
			out[i] = iv
		}
		return out, nil
	default:
		return nil, wrongType(key, "integer array", v)
	}
}

// Strings returns the required string array field key.
func (n Node) Strings(key string) ([]string, error) {
	v, ok := n[key]
	if !ok {
		return nil, missing(key)
	}
	switch vals := v.(type) {
	case []string:
		out := make([]string, len(vals))
		copy(out, vals)
		return out, nil
	case []any:
		out := make([]string, len(vals))
		for i, x := range vals {
			s, ok := x.(string)
			if !ok {
				return nil, wrongType(fmt.Sprintf("%s[%d]", key, i), "string", x)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, wrongType(key, "string array", v)
	}
}

// Node returns the required nested object field key.
func (n Node) Node(key string) (Node, error) {
	v, ok := n[key]
	if !ok {
		return nil, missing(key)
	}
	child, ok := toNode(v)
	if !ok {
		return nil, wrongType(key, "object", v)
	}
	return child, nil
}

// Nodes returns the required object array field key.
func (n Node) Nodes(key string) ([]Node, error) {
	v, ok := n[key]
	if !ok {
		return nil, missing(key)
	}
	switch vals := v.(type) {
	case []Node:
		return vals, nil
	case []map[string]any:
		out := make([]Node, len(vals))
		for i, m := range vals {
			out[i] = Node(m)
		}
		return out, nil
	case []any:
		out := make([]Node, len(vals))
		for i, x := range vals {
			child, ok := toNode(x)
			if !ok {
				return nil, wrongType(fmt.Sprintf("%s[%d]", key, i), "object", x)
			}
			out[i] = child
		}
		return out, nil
	default:
		return nil, wrongType(key, "object array", v)
	}
}

func toNode(v any) (Node, bool) {
	switch m := v.(type) {
	case Node:
		return m, true
	case map[string]any:
		return Node(m), true
	default:
		return nil, false
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case uint64:
		return int(x), true
	case json.Number:
		i, err := x.Int64()
		return int(i), err == nil
	default:
		f, ok := toFloat(v)
		if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(f), true
	}
}

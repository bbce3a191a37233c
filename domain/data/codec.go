package data

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// envelope is the canonical on-disk form of an artifact. Exactly one of
// the payload fields is populated, matching Type.
type envelope struct {
	Type   TypeTag           `json:"type"`
	Schema map[string]string `json:"schema,omitempty"`
	Table  *tablePayload     `json:"table,omitempty"`
	Array  *arrayPayload     `json:"array,omitempty"`
	Dict   map[string]any    `json:"dict,omitempty"`
	Text   *string           `json:"text,omitempty"`
}

type tablePayload struct {
	Columns []columnPayload `json:"columns"`
}

type columnPayload struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Values []any  `json:"values"`
}

type arrayPayload struct {
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Values []any  `json:"values"`
}

// Encode serializes an artifact into its canonical byte form.
func Encode(a *Artifact) ([]byte, error) {
	env := envelope{Type: a.Tag, Schema: a.FeatureMap}

	switch a.Tag {
	case TagTable:
		payload := &tablePayload{Columns: make([]columnPayload, len(a.Table.Columns))}
		for i, c := range a.Table.Columns {
			values := c.Values
			if values == nil {
				values = []any{}
			}
			payload.Columns[i] = columnPayload{Name: c.Name, DType: c.DType, Values: values}
		}
		env.Table = payload
	case TagArray:
		env.Array = &arrayPayload{
			DType:  a.Array.DType,
			Shape:  a.Array.Shape,
			Values: anySlice(a.Array.Values),
		}
	case TagDict:
		env.Dict = a.Dict
	case TagText:
		env.Text = &a.Text
	default:
		return nil, fmt.Errorf("%w: tag %q", ErrUnsupportedType, a.Tag)
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return raw, nil
}

// Decode parses canonical artifact bytes back into an Artifact,
// restoring element types from the recorded dtypes.
func Decode(raw []byte) (*Artifact, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var env envelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}

	a := &Artifact{Tag: env.Type, FeatureMap: env.Schema}

	switch env.Type {
	case TagTable:
		if env.Table == nil {
			return nil, fmt.Errorf("decode artifact: table payload missing")
		}
		t := &Table{Columns: make([]Column, len(env.Table.Columns))}
		for i, c := range env.Table.Columns {
			values := make([]any, len(c.Values))
			for j, v := range c.Values {
				coerced, err := coerceValue(c.DType, v)
				if err != nil {
					return nil, fmt.Errorf("decode column %q row %d: %w", c.Name, j, err)
				}
				values[j] = coerced
			}
			t.Columns[i] = Column{Name: c.Name, DType: c.DType, Values: values}
		}
		a.Table = t

	case TagArray:
		if env.Array == nil {
			return nil, fmt.Errorf("decode artifact: array payload missing")
		}
		values, err := typedSlice(env.Array.DType, env.Array.Values)
		if err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		a.Array = &Array{DType: env.Array.DType, Shape: env.Array.Shape, Values: values}

	case TagDict:
		a.Dict = denumber(env.Dict)

	case TagText:
		if env.Text != nil {
			a.Text = *env.Text
		}

	default:
		return nil, fmt.Errorf("%w: tag %q", ErrUnsupportedType, env.Type)
	}

	return a, nil
}

func anySlice(values any) []any {
	switch v := values.(type) {
	case []int64:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = x
		}
		return out
	case []float64:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = x
		}
		return out
	case []bool:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = x
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = x
		}
		return out
	}
	return []any{}
}

func typedSlice(dtype string, values []any) (any, error) {
	switch dtype {
	case DTypeInt64:
		out := make([]int64, len(values))
		for i, v := range values {
			n, ok := v.(json.Number)
			if !ok {
				return nil, fmt.Errorf("element %d: expected number, got %T", i, v)
			}
			x, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = x
		}
		return out, nil
	case DTypeFloat64:
		out := make([]float64, len(values))
		for i, v := range values {
			n, ok := v.(json.Number)
			if !ok {
				return nil, fmt.Errorf("element %d: expected number, got %T", i, v)
			}
			x, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = x
		}
		return out, nil
	case DTypeBool:
		out := make([]bool, len(values))
		for i, v := range values {
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("element %d: expected bool, got %T", i, v)
			}
			out[i] = b
		}
		return out, nil
	case DTypeString:
		out := make([]string, len(values))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("element %d: expected string, got %T", i, v)
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown array dtype %q", dtype)
}

// coerceValue restores a decoded table cell to the element type named
// by the column dtype. Cells of unknown or mixed dtypes fall back to
// per-value restoration.
func coerceValue(dtype string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch dtype {
	case DTypeInt64:
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", v)
		}
		return n.Int64()
	case DTypeFloat64:
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", v)
		}
		return n.Float64()
	case DTypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil
	case DTypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	}

	if n, ok := v.(json.Number); ok {
		return restoreNumber(n), nil
	}
	return v, nil
}

// restoreNumber maps a JSON number to int64 when integral, float64
// otherwise.
func restoreNumber(n json.Number) any {
	if x, err := n.Int64(); err == nil {
		return x
	}
	f, _ := n.Float64()
	return f
}

// denumber rewrites json.Number values in a decoded dict to int64 or
// float64, recursively.
func denumber(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = denumberValue(v)
	}
	return out
}

func denumberValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		return restoreNumber(x)
	case map[string]any:
		return denumber(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = denumberValue(e)
		}
		return out
	}
	return v
}

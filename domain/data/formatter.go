package data

import "fmt"

// Artifact is the canonical, storage-ready form of a data value:
// exactly one of Table, Array, Dict or Text is set, per Tag, alongside
// the schema derived at conversion time.
type Artifact struct {
	Tag        TypeTag
	Table      *Table
	Array      *Array
	Dict       map[string]any
	Text       string
	FeatureMap map[string]string
}

// Convert classifies a value and produces its canonical artifact with
// an inferred schema. Each supported type has exactly one conversion
// rule; Reconstruct inverts it.
func Convert(v any) (*Artifact, error) {
	tag, err := Classify(v)
	if err != nil {
		return nil, err
	}

	switch tag {
	case TagTable:
		t := asTable(v)
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("convert table: %w", err)
		}
		canonical := inferColumnTypes(t)
		return &Artifact{
			Tag:        TagTable,
			Table:      canonical,
			FeatureMap: tableSchema(canonical),
		}, nil

	case TagArray:
		a := asArray(v)
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("convert array: %w", err)
		}
		return &Artifact{
			Tag:        TagArray,
			Array:      a,
			FeatureMap: map[string]string{"dtype": a.DType},
		}, nil

	case TagDict:
		return &Artifact{Tag: TagDict, Dict: v.(map[string]any)}, nil

	case TagText:
		return &Artifact{Tag: TagText, Text: v.(string)}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

// Reconstruct rebuilds the in-memory value from its canonical artifact.
// For every supported type, Reconstruct(Convert(x)) is structurally
// equal to x: column order, dtypes and row count are preserved.
func Reconstruct(a *Artifact) (any, error) {
	switch a.Tag {
	case TagTable:
		if a.Table == nil {
			return nil, fmt.Errorf("table artifact has no table")
		}
		return a.Table, nil
	case TagArray:
		if a.Array == nil {
			return nil, fmt.Errorf("array artifact has no array")
		}
		return a.Array, nil
	case TagDict:
		return a.Dict, nil
	case TagText:
		return a.Text, nil
	}
	return nil, fmt.Errorf("%w: tag %q", ErrUnsupportedType, a.Tag)
}

func asTable(v any) *Table {
	if t, ok := v.(*Table); ok {
		return t
	}
	t := v.(Table)
	return &t
}

func asArray(v any) *Array {
	if a, ok := v.(*Array); ok {
		return a
	}
	a := v.(Array)
	return &a
}

// tableSchema derives the feature map for a table. An empty table still
// yields a valid, empty map.
func tableSchema(t *Table) map[string]string {
	schema := make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		schema[c.Name] = c.DType
	}
	return schema
}

// inferColumnTypes fills in missing column dtypes from the values and
// widens narrow numeric values to the canonical element types. Columns
// that already carry a dtype keep it verbatim, including mixed or
// library-specific type strings.
func inferColumnTypes(t *Table) *Table {
	out := &Table{Columns: make([]Column, len(t.Columns))}
	copy(out.Columns, t.Columns)
	for i := range out.Columns {
		if out.Columns[i].DType == "" {
			out.Columns[i].DType = inferDType(out.Columns[i].Values)
		}
		out.Columns[i].Values = widenValues(out.Columns[i].Values)
	}
	return out
}

// widenValues maps int/int32 to int64 and float32 to float64 so the
// canonical form has a single representation per dtype.
func widenValues(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		switch n := v.(type) {
		case int:
			out[i] = int64(n)
		case int32:
			out[i] = int64(n)
		case float32:
			out[i] = float64(n)
		default:
			out[i] = v
		}
	}
	return out
}

// inferDType reports the element dtype of a value slice, or "mixed"
// when elements disagree.
func inferDType(values []any) string {
	dtype := ""
	for _, v := range values {
		var cur string
		switch v.(type) {
		case int, int32, int64:
			cur = DTypeInt64
		case float32, float64:
			cur = DTypeFloat64
		case bool:
			cur = DTypeBool
		case string:
			cur = DTypeString
		case nil:
			continue
		default:
			cur = fmt.Sprintf("%T", v)
		}
		if dtype == "" {
			dtype = cur
			continue
		}
		if dtype != cur {
			return "mixed"
		}
	}
	if dtype == "" {
		return DTypeString
	}
	return dtype
}

package data

import (
	"reflect"
	"testing"
)

func sampleTable() *Table {
	return &Table{Columns: []Column{
		{Name: "age", DType: DTypeInt64, Values: []any{int64(31), int64(42), int64(23)}},
		{Name: "income", DType: DTypeFloat64, Values: []any{55000.0, 72000.5, 31000.0}},
		{Name: "state", DType: DTypeString, Values: []any{"GA", "TX", "CA"}},
		{Name: "eligible", DType: DTypeBool, Values: []any{true, false, true}},
	}}
}

func TestConvertTableSchema(t *testing.T) {
	art, err := Convert(sampleTable())
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	want := map[string]string{
		"age":      DTypeInt64,
		"income":   DTypeFloat64,
		"state":    DTypeString,
		"eligible": DTypeBool,
	}
	if !reflect.DeepEqual(art.FeatureMap, want) {
		t.Errorf("schema = %v, want %v", art.FeatureMap, want)
	}
}

func TestConvertInfersMissingDTypes(t *testing.T) {
	table := &Table{Columns: []Column{
		{Name: "n", Values: []any{int64(1), int64(2)}},
		{Name: "mix", Values: []any{int64(1), "one"}},
	}}

	art, err := Convert(table)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if art.FeatureMap["n"] != DTypeInt64 {
		t.Errorf("inferred dtype for n = %q, want int64", art.FeatureMap["n"])
	}
	if art.FeatureMap["mix"] != "mixed" {
		t.Errorf("inferred dtype for mix = %q, want mixed", art.FeatureMap["mix"])
	}
}

func TestConvertPreservesExplicitDTypeVerbatim(t *testing.T) {
	table := &Table{Columns: []Column{
		{Name: "blob", DType: "object", Values: []any{int64(1), "one"}},
	}}
	art, err := Convert(table)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if art.FeatureMap["blob"] != "object" {
		t.Errorf("explicit dtype not preserved verbatim: %q", art.FeatureMap["blob"])
	}
}

func TestConvertEmptyTable(t *testing.T) {
	art, err := Convert(&Table{})
	if err != nil {
		t.Fatalf("Convert failed for empty table: %v", err)
	}
	if art.FeatureMap == nil {
		t.Fatal("empty table must still produce a valid schema map")
	}
	if len(art.FeatureMap) != 0 {
		t.Errorf("empty table schema should be empty, got %v", art.FeatureMap)
	}
}

func TestConvertRejectsRaggedTable(t *testing.T) {
	table := &Table{Columns: []Column{
		{Name: "a", Values: []any{int64(1), int64(2)}},
		{Name: "b", Values: []any{int64(1)}},
	}}
	if _, err := Convert(table); err == nil {
		t.Error("expected error for ragged columns")
	}
}

func TestConvertArraySchema(t *testing.T) {
	arr := &Array{DType: DTypeFloat64, Shape: []int{2, 2}, Values: []float64{1, 2, 3, 4}}
	art, err := Convert(arr)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if art.FeatureMap["dtype"] != DTypeFloat64 {
		t.Errorf("array schema = %v, want dtype float64", art.FeatureMap)
	}
}

func TestConvertRejectsDTypeMismatch(t *testing.T) {
	arr := &Array{DType: DTypeInt64, Shape: []int{2}, Values: []float64{1, 2}}
	if _, err := Convert(arr); err == nil {
		t.Error("expected error for dtype/values mismatch")
	}

	short := &Array{DType: DTypeInt64, Shape: []int{3}, Values: []int64{1, 2}}
	if _, err := Convert(short); err == nil {
		t.Error("expected error for shape/length mismatch")
	}
}

func roundTrip(t *testing.T, v any) any {
	t.Helper()

	art, err := Convert(v)
	if err != nil {
		t.Fatalf("Convert(%T) failed: %v", v, err)
	}
	raw, err := Encode(art)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	out, err := Reconstruct(decoded)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	return out
}

func TestRoundTripTable(t *testing.T) {
	in := sampleTable()
	out, ok := roundTrip(t, in).(*Table)
	if !ok {
		t.Fatalf("reconstructed value is %T, want *Table", out)
	}

	if !reflect.DeepEqual(out.ColumnNames(), in.ColumnNames()) {
		t.Errorf("column order changed: %v vs %v", out.ColumnNames(), in.ColumnNames())
	}
	if out.NumRows() != in.NumRows() {
		t.Errorf("row count changed: %d vs %d", out.NumRows(), in.NumRows())
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("round trip mismatch:\n got %#v\nwant %#v", out, in)
	}
}

func TestRoundTripArray(t *testing.T) {
	for _, in := range []*Array{
		{DType: DTypeFloat64, Shape: []int{2, 3}, Values: []float64{1, 2, 3, 4, 5, 6}},
		{DType: DTypeInt64, Shape: []int{4}, Values: []int64{9, 8, 7, 6}},
		{DType: DTypeString, Shape: []int{2}, Values: []string{"a", "b"}},
		{DType: DTypeBool, Shape: []int{2}, Values: []bool{true, false}},
	} {
		out, ok := roundTrip(t, in).(*Array)
		if !ok {
			t.Fatalf("reconstructed value is not *Array")
		}
		if !reflect.DeepEqual(out, in) {
			t.Errorf("round trip mismatch:\n got %#v\nwant %#v", out, in)
		}
	}
}

func TestRoundTripDict(t *testing.T) {
	in := map[string]any{
		"model":  "xgboost",
		"rounds": int64(100),
		"eta":    0.3,
		"nested": map[string]any{"early_stopping": true},
	}
	out, ok := roundTrip(t, in).(map[string]any)
	if !ok {
		t.Fatal("reconstructed value is not a dict")
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("round trip mismatch:\n got %#v\nwant %#v", out, in)
	}
}

func TestRoundTripText(t *testing.T) {
	in := "select age, income from census"
	if out := roundTrip(t, in); out != in {
		t.Errorf("round trip mismatch: %q vs %q", out, in)
	}
}

func TestRoundTripEmptyTable(t *testing.T) {
	out, ok := roundTrip(t, &Table{}).(*Table)
	if !ok {
		t.Fatal("reconstructed value is not *Table")
	}
	if out.NumRows() != 0 || len(out.Columns) != 0 {
		t.Errorf("empty table round trip produced %#v", out)
	}
}

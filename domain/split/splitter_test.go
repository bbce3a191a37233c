package split

import (
	"errors"
	"reflect"
	"testing"

	"github.com/opsml/opsml/domain/data"
)

func censusTable() *data.Table {
	return &data.Table{Columns: []data.Column{
		{Name: "fold", DType: data.DTypeInt64, Values: []any{int64(0), int64(1), int64(0), int64(1), int64(0)}},
		{Name: "age", DType: data.DTypeInt64, Values: []any{int64(20), int64(31), int64(42), int64(53), int64(64)}},
		{Name: "income", DType: data.DTypeFloat64, Values: []any{10.0, 20.0, 30.0, 40.0, 50.0}},
	}}
}

func TestSpecValidate(t *testing.T) {
	valid := []Spec{
		{Label: "train", Column: "fold", ColumnValue: int64(0)},
		{Label: "train", Start: IntPtr(0), Stop: IntPtr(3)},
		{Label: "train", Indices: []int{0, 2, 2}},
	}
	for i, s := range valid {
		if err := s.Validate(); err != nil {
			t.Errorf("case %d: unexpected error: %v", i, err)
		}
	}

	invalid := []Spec{
		{},
		{Label: "train"},
		{Label: "train", Column: "fold", ColumnValue: 0, Indices: []int{1}},
		{Label: "train", Column: "fold", ColumnValue: 0, Start: IntPtr(0), Stop: IntPtr(1)},
		{Label: "train", Column: "fold"},
		{Label: "train", ColumnValue: 1},
		{Label: "train", Start: IntPtr(3)},
		{Label: "train", Start: IntPtr(3), Stop: IntPtr(1)},
		{Label: "train", Indices: []int{0, -1}},
	}
	for i, s := range invalid {
		if err := s.Validate(); !errors.Is(err, ErrInvalidSpec) {
			t.Errorf("case %d: expected ErrInvalidSpec, got %v", i, err)
		}
	}
}

func TestVariantMismatchAccessors(t *testing.T) {
	rangeSplitter, err := New(Spec{Label: "train", Start: IntPtr(0), Stop: IntPtr(1)}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := rangeSplitter.ColumnName(); !errors.Is(err, ErrVariantMismatch) {
		t.Errorf("column_name on range split: expected ErrVariantMismatch, got %v", err)
	}
	if _, err := rangeSplitter.ColumnValue(); !errors.Is(err, ErrVariantMismatch) {
		t.Errorf("column_value on range split: expected ErrVariantMismatch, got %v", err)
	}
	if _, err := rangeSplitter.Indices(); !errors.Is(err, ErrVariantMismatch) {
		t.Errorf("indices on range split: expected ErrVariantMismatch, got %v", err)
	}
	if _, err := rangeSplitter.Start(); err != nil {
		t.Errorf("start on range split failed: %v", err)
	}

	idxSplitter, err := New(Spec{Label: "train", Indices: []int{0, 2}}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := idxSplitter.Start(); !errors.Is(err, ErrVariantMismatch) {
		t.Errorf("start on indices split: expected ErrVariantMismatch, got %v", err)
	}
	if _, err := idxSplitter.Stop(); !errors.Is(err, ErrVariantMismatch) {
		t.Errorf("stop on indices split: expected ErrVariantMismatch, got %v", err)
	}
}

func TestColumnSplit(t *testing.T) {
	splitter, err := New(Spec{Label: "train", Column: "fold", ColumnValue: int64(0)}, []string{"income"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	subset, err := splitter.Split(censusTable())
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	x := subset.X.(*data.Table)
	y := subset.Y.(*data.Table)

	if x.NumRows() != 3 {
		t.Errorf("expected 3 train rows, got %d", x.NumRows())
	}
	if !reflect.DeepEqual(x.ColumnNames(), []string{"fold", "age"}) {
		t.Errorf("dependent var not removed from X: %v", x.ColumnNames())
	}
	if !reflect.DeepEqual(y.ColumnNames(), []string{"income"}) {
		t.Errorf("Y columns = %v, want [income]", y.ColumnNames())
	}
	income, _ := y.Column("income")
	if !reflect.DeepEqual(income.Values, []any{10.0, 30.0, 50.0}) {
		t.Errorf("Y values = %v", income.Values)
	}
}

func TestColumnSplitNumericEquivalence(t *testing.T) {
	// Predicate values arriving through JSON decode as float64; they
	// must still match int64 cells.
	splitter, err := New(Spec{Label: "train", Column: "fold", ColumnValue: 0.0}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	subset, err := splitter.Split(censusTable())
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if subset.X.(*data.Table).NumRows() != 3 {
		t.Errorf("numeric predicate did not match int64 column")
	}
}

func TestRangeSplit(t *testing.T) {
	splitter, err := New(Spec{Label: "head", Start: IntPtr(1), Stop: IntPtr(4)}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	subset, err := splitter.Split(censusTable())
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	x := subset.X.(*data.Table)
	if x.NumRows() != 3 {
		t.Errorf("range [1,4) should yield 3 rows, got %d", x.NumRows())
	}
	age, _ := x.Column("age")
	if !reflect.DeepEqual(age.Values, []any{int64(31), int64(42), int64(53)}) {
		t.Errorf("range rows = %v", age.Values)
	}
	if subset.Y != nil {
		t.Error("Y must be nil without dependent vars")
	}
}

func TestRangeSplitOutOfRange(t *testing.T) {
	splitter, err := New(Spec{Label: "tail", Start: IntPtr(3), Stop: IntPtr(9)}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := splitter.Split(censusTable()); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestIndicesSplitPreservesOrderAndDuplicates(t *testing.T) {
	splitter, err := New(Spec{Label: "sample", Indices: []int{4, 0, 4}}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	subset, err := splitter.Split(censusTable())
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	age, _ := subset.X.(*data.Table).Column("age")
	if !reflect.DeepEqual(age.Values, []any{int64(64), int64(20), int64(64)}) {
		t.Errorf("indices order/duplicates not preserved: %v", age.Values)
	}
}

func TestArraySplits(t *testing.T) {
	arr := &data.Array{
		DType:  data.DTypeFloat64,
		Shape:  []int{4, 2},
		Values: []float64{0, 1, 10, 11, 20, 21, 30, 31},
	}

	rangeSplitter, err := New(Spec{Label: "train", Start: IntPtr(0), Stop: IntPtr(2)}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	subset, err := rangeSplitter.Split(arr)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	got := subset.X.(*data.Array)
	if !reflect.DeepEqual(got.Values, []float64{0, 1, 10, 11}) {
		t.Errorf("array range split values = %v", got.Values)
	}
	if !reflect.DeepEqual(got.Shape, []int{2, 2}) {
		t.Errorf("array range split shape = %v", got.Shape)
	}

	colSplitter, err := New(Spec{Label: "train", Column: "fold", ColumnValue: 0}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := colSplitter.Split(arr); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("column split on array: expected ErrInvalidSpec, got %v", err)
	}
}

func TestSplitAllUnionExactness(t *testing.T) {
	table := censusTable()
	specs := []Spec{
		{Label: "train", Start: IntPtr(0), Stop: IntPtr(3)},
		{Label: "test", Start: IntPtr(3), Stop: IntPtr(5)},
	}

	holder, err := SplitAll(table, specs, nil)
	if err != nil {
		t.Fatalf("SplitAll failed: %v", err)
	}

	if !reflect.DeepEqual(holder.Labels(), []string{"train", "test"}) {
		t.Errorf("labels = %v", holder.Labels())
	}

	var union []any
	for _, label := range holder.Labels() {
		subset, ok := holder.Get(label)
		if !ok {
			t.Fatalf("subset %q unreachable by label", label)
		}
		age, _ := subset.X.(*data.Table).Column("age")
		union = append(union, age.Values...)
	}
	original, _ := table.Column("age")
	if !reflect.DeepEqual(union, original.Values) {
		t.Errorf("union of splits != caller-specified rows: %v vs %v", union, original.Values)
	}
}

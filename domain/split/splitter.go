package split

import (
	"fmt"

	"github.com/opsml/opsml/domain/data"
)

// Subset is one named partition of a dataset. X holds the feature data;
// Y holds the dependent variables when the splitter was given any,
// otherwise it is nil.
type Subset struct {
	Label string
	X     any
	Y     any
}

// Splitter applies one validated spec to datasets. Accessors for
// variant fields fail with ErrVariantMismatch when the spec's variant
// does not define them, so spec misuse surfaces early.
type Splitter struct {
	spec          Spec
	kind          Kind
	dependentVars []string
}

// New validates the spec and builds a splitter.
func New(spec Spec, dependentVars []string) (*Splitter, error) {
	kind, err := spec.Kind()
	if err != nil {
		return nil, err
	}
	return &Splitter{spec: spec, kind: kind, dependentVars: dependentVars}, nil
}

// Label returns the split's name.
func (s *Splitter) Label() string { return s.spec.Label }

// Kind returns the spec variant.
func (s *Splitter) Kind() Kind { return s.kind }

// ColumnName returns the predicate column for a column split.
func (s *Splitter) ColumnName() (string, error) {
	if s.kind != KindColumn {
		return "", fmt.Errorf("%w: column_name on %s split %q", ErrVariantMismatch, s.kind, s.spec.Label)
	}
	return s.spec.Column, nil
}

// ColumnValue returns the predicate value for a column split.
func (s *Splitter) ColumnValue() (any, error) {
	if s.kind != KindColumn {
		return nil, fmt.Errorf("%w: column_value on %s split %q", ErrVariantMismatch, s.kind, s.spec.Label)
	}
	return s.spec.ColumnValue, nil
}

// Start returns the inclusive lower bound of a range split.
func (s *Splitter) Start() (int, error) {
	if s.kind != KindRange {
		return 0, fmt.Errorf("%w: start on %s split %q", ErrVariantMismatch, s.kind, s.spec.Label)
	}
	return *s.spec.Start, nil
}

// Stop returns the exclusive upper bound of a range split.
func (s *Splitter) Stop() (int, error) {
	if s.kind != KindRange {
		return 0, fmt.Errorf("%w: stop on %s split %q", ErrVariantMismatch, s.kind, s.spec.Label)
	}
	return *s.spec.Stop, nil
}

// Indices returns the row positions of an explicit-indices split.
func (s *Splitter) Indices() ([]int, error) {
	if s.kind != KindIndices {
		return nil, fmt.Errorf("%w: indices on %s split %q", ErrVariantMismatch, s.kind, s.spec.Label)
	}
	return s.spec.Indices, nil
}

// Split partitions the dataset. Supported datasets are *data.Table (all
// variants) and *data.Array (range and indices).
func (s *Splitter) Split(dataset any) (Subset, error) {
	rows, err := s.selectRows(dataset)
	if err != nil {
		return Subset{}, err
	}

	switch d := dataset.(type) {
	case *data.Table:
		x, err := takeTableRows(d, rows)
		if err != nil {
			return Subset{}, err
		}
		x, y, err := extractDependentVars(x, s.dependentVars)
		if err != nil {
			return Subset{}, err
		}
		subset := Subset{Label: s.spec.Label, X: x}
		// A typed nil assigned into the any field would make Y non-nil.
		if y != nil {
			subset.Y = y
		}
		return subset, nil

	case *data.Array:
		if len(s.dependentVars) > 0 {
			return Subset{}, fmt.Errorf("%w: dependent vars require a table dataset", ErrInvalidSpec)
		}
		x, err := d.TakeRows(rows)
		if err != nil {
			return Subset{}, fmt.Errorf("split %q: %w", s.spec.Label, err)
		}
		return Subset{Label: s.spec.Label, X: x}, nil
	}
	return Subset{}, fmt.Errorf("%w: %T", data.ErrUnsupportedType, dataset)
}

// selectRows resolves the spec to concrete row positions for the
// dataset. Order is preserved; duplicates in an indices spec pass
// through untouched.
func (s *Splitter) selectRows(dataset any) ([]int, error) {
	numRows, err := datasetRows(dataset)
	if err != nil {
		return nil, err
	}

	switch s.kind {
	case KindColumn:
		table, ok := dataset.(*data.Table)
		if !ok {
			return nil, fmt.Errorf("%w: column split %q requires a table dataset, got %T",
				ErrInvalidSpec, s.spec.Label, dataset)
		}
		col, ok := table.Column(s.spec.Column)
		if !ok {
			return nil, fmt.Errorf("%w: column %q not present in dataset", ErrInvalidSpec, s.spec.Column)
		}
		var rows []int
		for i, v := range col.Values {
			if equalValue(v, s.spec.ColumnValue) {
				rows = append(rows, i)
			}
		}
		return rows, nil

	case KindRange:
		start, stop := *s.spec.Start, *s.spec.Stop
		if start > numRows || stop > numRows {
			return nil, fmt.Errorf("%w: [%d, %d) over %d rows", ErrOutOfRange, start, stop, numRows)
		}
		rows := make([]int, 0, stop-start)
		for i := start; i < stop; i++ {
			rows = append(rows, i)
		}
		return rows, nil

	case KindIndices:
		for _, idx := range s.spec.Indices {
			if idx >= numRows {
				return nil, fmt.Errorf("%w: index %d over %d rows", ErrOutOfRange, idx, numRows)
			}
		}
		return s.spec.Indices, nil
	}
	return nil, fmt.Errorf("%w: unknown variant %q", ErrInvalidSpec, s.kind)
}

// SplitAll applies all specs in order and returns the named subsets.
func SplitAll(dataset any, specs []Spec, dependentVars []string) (*Holder, error) {
	holder := &Holder{subsets: make(map[string]Subset, len(specs))}
	for _, spec := range specs {
		splitter, err := New(spec, dependentVars)
		if err != nil {
			return nil, err
		}
		subset, err := splitter.Split(dataset)
		if err != nil {
			return nil, err
		}
		holder.add(subset)
	}
	return holder, nil
}

// Holder keeps split subsets reachable by label, preserving the order
// the specs were given in.
type Holder struct {
	labels  []string
	subsets map[string]Subset
}

func (h *Holder) add(s Subset) {
	if _, exists := h.subsets[s.Label]; !exists {
		h.labels = append(h.labels, s.Label)
	}
	h.subsets[s.Label] = s
}

// Get returns the subset registered under label.
func (h *Holder) Get(label string) (Subset, bool) {
	s, ok := h.subsets[label]
	return s, ok
}

// Labels returns split labels in production order.
func (h *Holder) Labels() []string { return h.labels }

func datasetRows(dataset any) (int, error) {
	switch d := dataset.(type) {
	case *data.Table:
		return d.NumRows(), nil
	case *data.Array:
		return d.NumRows(), nil
	}
	return 0, fmt.Errorf("%w: %T", data.ErrUnsupportedType, dataset)
}

func takeTableRows(t *data.Table, rows []int) (*data.Table, error) {
	n := t.NumRows()
	for _, r := range rows {
		if r < 0 || r >= n {
			return nil, fmt.Errorf("%w: row %d over %d rows", ErrOutOfRange, r, n)
		}
	}
	out := &data.Table{Columns: make([]data.Column, len(t.Columns))}
	for i, c := range t.Columns {
		values := make([]any, len(rows))
		for j, r := range rows {
			values[j] = c.Values[r]
		}
		out.Columns[i] = data.Column{Name: c.Name, DType: c.DType, Values: values}
	}
	return out, nil
}

// extractDependentVars moves the named columns from X into Y. Column
// order within each side is preserved.
func extractDependentVars(t *data.Table, vars []string) (x, y *data.Table, err error) {
	if len(vars) == 0 {
		return t, nil, nil
	}

	dependent := make(map[string]bool, len(vars))
	for _, name := range vars {
		if _, ok := t.Column(name); !ok {
			return nil, nil, fmt.Errorf("%w: dependent var %q not present in dataset", ErrInvalidSpec, name)
		}
		dependent[name] = true
	}

	x = &data.Table{}
	y = &data.Table{}
	for _, c := range t.Columns {
		if dependent[c.Name] {
			y.Columns = append(y.Columns, c)
		} else {
			x.Columns = append(x.Columns, c)
		}
	}
	return x, y, nil
}

// equalValue compares a cell against a predicate value, treating the
// integer and float forms of the same number as equal.
func equalValue(a, b any) bool {
	if a == b {
		return true
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	return aok && bok && af == bf
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

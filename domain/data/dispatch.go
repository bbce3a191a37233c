package data

import "fmt"

// Classify returns the type tag for a supported in-memory value.
// Candidates are checked in a fixed priority order (dict, array, table,
// text) so a value satisfying more than one check classifies
// deterministically.
func Classify(v any) (TypeTag, error) {
	switch v.(type) {
	case map[string]any:
		return TagDict, nil
	case *Array, Array:
		return TagArray, nil
	case *Table, Table:
		return TagTable, nil
	case string:
		return TagText, nil
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

package transform

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/vk/gridflow/internal/dataset"
)

// newCollator builds the locale-aware, case-insensitive collator used
// for string ordering. Collators are not safe for concurrent use, so
// each sort obtains its own.
func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase)
}

// compareValues orders two cells: nulls first, then numeric when both
// sides coerce, then temporal instants, then collated string coercion.
func compareValues(a, b any, col *collate.Collator) int {
	aNull, bNull := dataset.IsNull(a), dataset.IsNull(b)
	switch {
	case aNull && bNull:
		return 0
	case aNull:
		return -1
	case bNull:
		return 1
	}

	if x, ok := dataset.ToNumber(a); ok {
		if y, ok := dataset.ToNumber(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			default:
				return 0
			}
		}
	}

	if at, ok := dataset.AsTime(a); ok {
		if bt, ok := dataset.AsTime(b); ok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}

	return col.CompareString(dataset.ToString(a), dataset.ToString(b))
}

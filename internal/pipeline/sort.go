package pipeline

import (
	"slices"
	"strconv"
	"strings"

	"github.com/dmko-sec/secdash/internal/domain"
)

// Sort orders records by one field. Stable for equal keys; the input
// slice is copied, never mutated. Date fields compare by parsed
// timestamp with unparseable values pinned to the epoch; otherwise the
// comparison is numeric when both sides parse as numbers, else
// case-insensitive lexicographic. Descending flips the comparison
// outcome rather than reversing the result, so ties keep input order.
func Sort[T Record](records []T, st domain.SortState, sc Schema) []T {
	out := make([]T, len(records))
	copy(out, records)
	if st.Field == "" {
		return out
	}

	isDate := sc.IsDateField(st.Field)
	slices.SortStableFunc(out, func(a, b T) int {
		av, _ := a.Field(st.Field)
		bv, _ := b.Field(st.Field)

		var c int
		if isDate {
			c = compareDates(av, bv)
		} else {
			c = compareValues(av, bv)
		}
		if st.Direction == domain.SortDesc {
			c = -c
		}
		return c
	})
	return out
}

func compareDates(a, b string) int {
	au := int64(0)
	if t, ok := ParseFlexibleDate(a); ok {
		au = t.Unix()
	}
	bu := int64(0)
	if t, ok := ParseFlexibleDate(b); ok {
		bu = t.Unix()
	}
	switch {
	case au < bu:
		return -1
	case au > bu:
		return 1
	}
	return 0
}

func compareValues(a, b string) int {
	af, aerr := strconv.ParseFloat(a, 64)
	bf, berr := strconv.ParseFloat(b, 64)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

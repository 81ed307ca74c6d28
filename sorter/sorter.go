// Package sorter parses sort expressions such as "length:desc,name:asc" and
// applies them to in-memory listings.
package sorter

import (
	"cmp"
	"slices"
	"strings"
)

type (
	// SortOpts is an ordered list of sort keys; earlier keys take precedence.
	SortOpts []Opt

	// SortDirection is asc or desc.
	SortDirection string

	// Comparator orders two items by one field, returning a negative number
	// when a sorts before b in ascending order.
	Comparator[T any] func(a, b T) int
)

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"

	// expectedPartsCount is the expected number of parts in a sort option (field:direction).
	expectedPartsCount = 2
)

// Opt represents a single sorting option, consisting of a field and a direction.
type Opt struct {
	F string        // F is the field to sort by.
	D SortDirection // D is the sorting direction (asc or desc).
}

// Make creates a slice of Opt from a variadic list of Opt.
func Make(sortOptions ...Opt) SortOpts {
	return sortOptions
}

// MakeFromStr parses a sorting string (e.g., "name:asc,length:desc") into SortOpts.
// Fields outside allowedFields and unknown directions are dropped.
func MakeFromStr(sortString string, allowedFields ...string) SortOpts {
	if sortString == "" {
		return nil
	}

	var options SortOpts
	for pair := range strings.SplitSeq(sortString, ",") {
		parts := strings.Split(pair, ":")
		if len(parts) != expectedPartsCount {
			continue
		}

		key := strings.TrimSpace(parts[0])
		if !slices.Contains(allowedFields, key) {
			continue
		}

		direction := SortDirection(strings.ToLower(strings.TrimSpace(parts[1])))
		if direction != Asc && direction != Desc {
			continue
		}

		options = append(options, Opt{F: key, D: direction})
	}

	return options
}

// Apply sorts items in place by opts using the comparator registered for each
// field. Fields without a comparator are ignored. The sort is stable.
func Apply[T any](items []T, opts SortOpts, comparators map[string]Comparator[T]) {
	if len(opts) == 0 {
		return
	}

	slices.SortStableFunc(items, func(a, b T) int {
		for _, o := range opts {
			compare, ok := comparators[o.F]
			if !ok {
				continue
			}

			c := compare(a, b)
			if o.D == Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

// By builds a Comparator from a key function.
func By[T any, K cmp.Ordered](key func(T) K) Comparator[T] {
	return func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	}
}

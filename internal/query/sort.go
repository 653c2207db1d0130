package query

import (
	"fmt"
	"slices"
	"strings"
)

// ParseSort normalizes a sort parameter: a trailing "_asc" is stripped, a
// trailing "_desc" is stripped and the field prefixed with "-". Anything else
// is returned unchanged.
func ParseSort(s string) string {
	switch {
	case strings.HasSuffix(s, "_asc"):
		return strings.TrimSuffix(s, "_asc")
	case strings.HasSuffix(s, "_desc"):
		name := strings.TrimSuffix(s, "_desc")
		if strings.HasPrefix(name, "-") {
			return name
		}
		return "-" + name
	}
	return s
}

// Sort orders items in place by a normalized sort key ("field" or "-field").
// Ties keep their input order when ascending; a descending sort is the exact
// reverse of the ascending one.
func (fs Fields[T]) Sort(items []T, key string) error {
	if key == "" {
		return nil
	}
	name, desc := strings.CutPrefix(key, "-")
	field, ok := fs.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown sort field %q", name)
	}
	slices.SortStableFunc(items, func(a, b T) int {
		return compare(field.Get(a), field.Get(b))
	})
	if desc {
		slices.Reverse(items)
	}
	return nil
}

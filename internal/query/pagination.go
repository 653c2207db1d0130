package query

import (
	"fmt"
	"net/url"
	"strconv"
)

// Params holds the list parameters shared by every collection.
type Params struct {
	Skip     int
	Limit    *int
	Sort     string
	Page     int
	Size     *int
	Short    bool
	WithConn bool
}

// ParseParams extracts and validates the common list parameters. Sort is
// returned normalized.
func ParseParams(values url.Values) (Params, error) {
	var (
		p   Params
		err error
	)
	if p.Skip, err = intParam(values, "skip", 0, 0); err != nil {
		return p, err
	}
	if p.Page, err = intParam(values, "page", 0, 0); err != nil {
		return p, err
	}
	if p.Limit, err = optionalIntParam(values, "limit", 0); err != nil {
		return p, err
	}
	if p.Size, err = optionalIntParam(values, "size", 1); err != nil {
		return p, err
	}
	if p.Short, err = boolParam(values, "short"); err != nil {
		return p, err
	}
	if p.WithConn, err = boolParam(values, "with_conn"); err != nil {
		return p, err
	}
	p.Sort = ParseSort(values.Get("sort"))
	return p, nil
}

func intParam(values url.Values, name string, def, min int) (int, error) {
	v, err := optionalIntParam(values, name, min)
	if err != nil || v == nil {
		return def, err
	}
	return *v, nil
}

func optionalIntParam(values url.Values, name string, min int) (*int, error) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q is not an integer", name, raw)
	}
	if n < min {
		return nil, fmt.Errorf("invalid %s: must be greater than or equal to %d", name, min)
	}
	return &n, nil
}

func boolParam(values url.Values, name string) (bool, error) {
	raw := values.Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q is not a boolean", name, raw)
	}
	return b, nil
}

// Paginate returns page number page of the given size. Without a size the page
// is ignored and all items are returned.
func Paginate[T any](items []T, page int, size *int) []T {
	if size == nil {
		return items
	}
	if len(items) == 0 || page > (len(items)-1)/(*size) {
		return []T{}
	}
	return slice(items, page*(*size), size)
}

// Window returns limit items starting at skip, or everything from skip on when
// limit is unset.
func Window[T any](items []T, skip int, limit *int) []T {
	return slice(items, skip, limit)
}

func slice[T any](items []T, start int, n *int) []T {
	if start >= len(items) {
		return []T{}
	}
	if start < 0 {
		start = 0
	}
	end := len(items)
	if n != nil && *n < end-start {
		end = start + *n
	}
	return items[start:end]
}

package query

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Op is a filter operator, the part of a parameter name after "__". The empty
// Op is an exact match.
type Op string

const (
	OpEq          Op = ""
	OpContains    Op = "contains"
	OpIContains   Op = "icontains"
	OpStartsWith  Op = "startswith"
	OpIStartsWith Op = "istartswith"
	OpEndsWith    Op = "endswith"
	OpIEndsWith   Op = "iendswith"
	OpRegex       Op = "regex"
	OpIRegex      Op = "iregex"
	OpLt          Op = "lt"
	OpGt          Op = "gt"
	OpLte         Op = "lte"
	OpGte         Op = "gte"
	OpNe          Op = "ne"
)

var kindOps = map[Kind][]Op{
	KindString: {OpEq, OpContains, OpIContains, OpStartsWith, OpIStartsWith, OpEndsWith, OpIEndsWith, OpRegex, OpIRegex},
	KindNumber: {OpEq, OpLt, OpGt, OpLte, OpGte, OpNe},
	KindBool:   {OpEq},
	KindDate:   {OpLt, OpGt, OpLte, OpGte, OpNe},
}

// Supports reports whether a field of kind k accepts op.
func (k Kind) Supports(op Op) bool {
	for _, o := range kindOps[k] {
		if o == op {
			return true
		}
	}
	return false
}

// reserved parameters never name a field.
var reserved = map[string]bool{
	"skip": true, "limit": true, "sort": true, "page": true, "size": true,
	"short": true, "with_conn": true,
}

// Condition is a single parsed "field__op=value" constraint.
type Condition[T any] struct {
	Field Field[T]
	Op    Op
	Value any
	re    *regexp.Regexp
}

// Filter is a conjunction of conditions.
type Filter[T any] []Condition[T]

// ParseFilter builds a filter from query parameters. Parameters that do not
// name a declared field are ignored; an unsupported operator or a value that
// does not parse for the field's kind is an error.
func (fs Fields[T]) ParseFilter(values url.Values) (Filter[T], error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var filter Filter[T]
	for _, key := range keys {
		if reserved[key] {
			continue
		}
		name, op, _ := strings.Cut(key, "__")
		field, ok := fs.Lookup(name)
		if !ok {
			continue
		}
		cond, err := newCondition(field, Op(op), values.Get(key))
		if err != nil {
			return nil, err
		}
		filter = append(filter, cond)
	}
	return filter, nil
}

func newCondition[T any](field Field[T], op Op, raw string) (Condition[T], error) {
	if !field.Kind.Supports(op) {
		return Condition[T]{}, fmt.Errorf("unsupported filter %q on %s field %q", op, field.Kind, field.Name)
	}
	c := Condition[T]{Field: field, Op: op}
	switch field.Kind {
	case KindString:
		c.Value = raw
		if op == OpRegex || op == OpIRegex {
			expr := raw
			if op == OpIRegex {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return Condition[T]{}, fmt.Errorf("invalid regex for %q: %w", field.Name, err)
			}
			c.re = re
		}
	case KindNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Condition[T]{}, fmt.Errorf("invalid number for %q: %q", field.Name, raw)
		}
		c.Value = f
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Condition[T]{}, fmt.Errorf("invalid boolean for %q: %q", field.Name, raw)
		}
		c.Value = b
	case KindDate:
		t, err := ParseDate(raw)
		if err != nil {
			return Condition[T]{}, fmt.Errorf("invalid date for %q: %q", field.Name, raw)
		}
		c.Value = t
	}
	return c, nil
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Match reports whether item satisfies every condition.
func (f Filter[T]) Match(item T) bool {
	for _, c := range f {
		if !c.match(item) {
			return false
		}
	}
	return true
}

// Apply returns the items matching the filter, preserving order.
func (f Filter[T]) Apply(items []T) []T {
	if len(f) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

func (c Condition[T]) match(item T) bool {
	got := c.Field.Get(item)
	if got == nil {
		return c.Op == OpNe
	}
	switch c.Field.Kind {
	case KindString:
		return matchString(c.Op, got.(string), c.Value.(string), c.re)
	case KindBool:
		return got.(bool) == c.Value.(bool)
	default:
		return matchOrdered(c.Op, compare(got, c.Value))
	}
}

func matchString(op Op, got, want string, re *regexp.Regexp) bool {
	switch op {
	case OpEq:
		return got == want
	case OpContains:
		return strings.Contains(got, want)
	case OpIContains:
		return strings.Contains(strings.ToLower(got), strings.ToLower(want))
	case OpStartsWith:
		return strings.HasPrefix(got, want)
	case OpIStartsWith:
		return strings.HasPrefix(strings.ToLower(got), strings.ToLower(want))
	case OpEndsWith:
		return strings.HasSuffix(got, want)
	case OpIEndsWith:
		return strings.HasSuffix(strings.ToLower(got), strings.ToLower(want))
	case OpRegex, OpIRegex:
		return re.MatchString(got)
	}
	return false
}

func matchOrdered(op Op, cmp int) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpGt:
		return cmp > 0
	case OpLte:
		return cmp <= 0
	case OpGte:
		return cmp >= 0
	}
	return false
}

// compare orders two values of the same kind. nil sorts before everything.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case string:
		return strings.Compare(av, b.(string))
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	case time.Time:
		return av.Compare(b.(time.Time))
	}
	return 0
}

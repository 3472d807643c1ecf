package query

import (
	"strings"

	"github.com/pkg/errors"
)

// Ordering is the id order records are listed in.
type Ordering uint

const (
	Ascending Ordering = iota
	Descending
)

// ToOrdering parses "asc" or "desc", case-insensitively. The long forms
// "ascending" and "descending" are accepted too.
func ToOrdering(val string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return 0, errors.Errorf("unexpected ordering: %q", val)
}

// ToOrderingWithFallback is ToOrdering, returning fallback for values it
// can't parse.
func ToOrderingWithFallback(val string, fallback Ordering) Ordering {
	if ordering, err := ToOrdering(val); err == nil {
		return ordering
	}
	return fallback
}

func (o Ordering) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

func (o Ordering) sql() string {
	return strings.ToUpper(o.String())
}

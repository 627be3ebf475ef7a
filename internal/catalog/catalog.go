// Package catalog holds the fixed allowlist of health measure names the
// service recognizes. Requests naming anything else are rejected.
package catalog

import "sort"

// measures is the full set of recognized measure names. Initialized once,
// never mutated; safe to share across request handlers.
var measures = []string{
	"Violent crime rate",
	"Unemployment",
	"Children in poverty",
	"Diabetic screening",
	"Mammography screening",
	"Preventable hospital stays",
	"Uninsured",
	"Sexually transmitted infections",
	"Physical inactivity",
	"Adult obesity",
	"Premature Death",
	"Daily fine particulate matter",
}

var (
	measureSet map[string]struct{}
	sorted     []string
)

func init() {
	measureSet = make(map[string]struct{}, len(measures))
	for _, m := range measures {
		measureSet[m] = struct{}{}
	}
	sorted = make([]string, len(measures))
	copy(sorted, measures)
	sort.Strings(sorted)
}

// Valid reports whether name is a recognized measure. Matching is exact and
// case-sensitive.
func Valid(name string) bool {
	_, ok := measureSet[name]
	return ok
}

// Sorted returns the catalog in ascending order. The result is a copy.
func Sorted() []string {
	out := make([]string, len(sorted))
	copy(out, sorted)
	return out
}

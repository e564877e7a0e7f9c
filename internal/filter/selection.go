package filter

import (
	"sort"
	"strings"
)

// Selection is the set of filter names requested for a conversion.
type Selection map[string]struct{}

// NewSelection builds a selection from names, ignoring empty ones.
func NewSelection(names ...string) Selection {
	s := make(Selection)
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name. Adding a name twice has no further effect.
func (s Selection) Add(name string) {
	if name == "" {
		return
	}
	s[name] = struct{}{}
}

// Has reports whether name itself was selected.
func (s Selection) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Matches reports whether name is selected directly or through "all".
func (s Selection) Matches(name string) bool {
	return s.Has(name) || s.Has(AllFilters)
}

// Union adds every name of other to s.
func (s Selection) Union(other Selection) {
	for n := range other {
		s.Add(n)
	}
}

// Names returns the selected names sorted.
func (s Selection) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SelectFromPath splits a request path like "/jquery/camelCase" into a selection.
func SelectFromPath(path string) Selection {
	return NewSelection(strings.Split(path, "/")...)
}

// ConsumeFlags adds the value of each leading "-f NAME" / "--filter NAME" pair
// to sel and returns the remaining args. Consumption stops at the first
// argument that is not one of the two spellings. A trailing flag without a
// value is dropped without changing sel.
func ConsumeFlags(sel Selection, args []string) []string {
	for len(args) > 0 && (args[0] == "-f" || args[0] == "--filter") {
		if len(args) == 1 {
			return args[1:]
		}
		sel.Add(args[1])
		args = args[2:]
	}
	return args
}

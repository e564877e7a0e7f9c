package filter

// Catalog is the fixed, ordered list of activatable filters.
type Catalog []Entry

// DefaultCatalog returns the built-in filter catalog. camelCase renames
// identifiers produced by the other filters, so it is marked Ordered.
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: "functions", Module: "ruby2js/filter/functions"},
		{Name: "es2015", Module: "ruby2js/es2015"},
		{Name: "es2016", Module: "ruby2js/es2016"},
		{Name: "es2017", Module: "ruby2js/es2017"},
		{Name: "jquery", Module: "ruby2js/filter/jquery"},
		{Name: "vue", Module: "ruby2js/filter/vue"},
		{Name: "minitest-jasmine", Module: "ruby2js/filter/minitest-jasmine"},
		{Name: "return", Module: "ruby2js/filter/return"},
		{Name: "require", Module: "ruby2js/filter/require"},
		{Name: "react", Module: "ruby2js/filter/react"},
		{Name: "rubyjs", Module: "ruby2js/filter/rubyjs"},
		{Name: "underscore", Module: "ruby2js/filter/underscore"},
		{Name: "camelCase", Module: "ruby2js/filter/camelCase", Ordered: true},
	}
}

// Lookup returns the entry with the given name.
func (c Catalog) Lookup(name string) (Entry, bool) {
	for _, e := range c {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Matched returns the entries selected by sel, in declaration order with
// ordered entries moved after all others.
func (c Catalog) Matched(sel Selection) []Entry {
	var plain, ordered []Entry
	for _, e := range c {
		if !sel.Matches(e.Name) {
			continue
		}
		if e.Ordered {
			ordered = append(ordered, e)
		} else {
			plain = append(plain, e)
		}
	}
	return append(plain, ordered...)
}

// position ranks an entry for application order: unordered entries by
// declaration index, ordered entries after all of them.
func (c Catalog) position(name string) int {
	for i, e := range c {
		if e.Name == name {
			if e.Ordered {
				return len(c) + i
			}
			return i
		}
	}
	return 2 * len(c)
}

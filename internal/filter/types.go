package filter

import "errors"

// ErrFilterLoad marks a failure to load a selected filter's descriptor.
var ErrFilterLoad = errors.New("filter load failed")

// AllFilters is the selection sentinel that activates every catalog entry.
const AllFilters = "all"

// Entry is one named filter the front end knows how to activate.
type Entry struct {
	Name    string
	Module  string
	Ordered bool // must be applied after every other filter
}

// Descriptor is the loaded implementation of a filter, handed to the converter.
type Descriptor struct {
	Name        string         `yaml:"name" json:"name"`
	Module      string         `yaml:"module" json:"module"`
	Description string         `yaml:"description,omitempty" json:"-"`
	Options     map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

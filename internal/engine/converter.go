package engine

import (
	"encoding/json"
	"errors"

	"github.com/Happy-Ferret/ruby2js/internal/ast"
	"github.com/Happy-Ferret/ruby2js/internal/filter"
)

// ErrConversion marks a failure reported by the converter.
var ErrConversion = errors.New("conversion failed")

// ESLevel is the targeted ECMAScript edition.
type ESLevel int

const (
	ESUnset ESLevel = 0
	ES2015  ESLevel = 2015
	ES2016  ESLevel = 2016
	ES2017  ESLevel = 2017
)

// Options configures one conversion.
type Options struct {
	ESLevel ESLevel
	Strict  bool
	File    string // input file name, for diagnostics only
}

// MarshalJSON encodes the options for the converter bridge. An unset level
// is omitted so the converter applies its own default.
func (o Options) MarshalJSON() ([]byte, error) {
	w := struct {
		ESLevel int    `json:"eslevel,omitempty"`
		Strict  bool   `json:"strict,omitempty"`
		File    string `json:"file,omitempty"`
	}{int(o.ESLevel), o.Strict, o.File}
	return json.Marshal(w)
}

// Result is the output of one conversion.
type Result struct {
	Text string
	Tree *ast.Node // tree after filters ran
}

// Converter is the source-to-source engine.
type Converter interface {
	// Convert parses src, applies filters in order and renders the output.
	Convert(src string, opts Options, filters []filter.Descriptor) (*Result, error)
	// Parse returns the tree of src before any filter runs.
	Parse(src string) (*ast.Node, error)
}

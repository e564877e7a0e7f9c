package engine

import (
	"fmt"

	"github.com/Happy-Ferret/ruby2js/internal/ast"
	"github.com/Happy-Ferret/ruby2js/internal/filter"
)

// Invoker runs conversions with the filters active in Registry.
type Invoker struct {
	Converter Converter
	Registry  *filter.Registry
}

// Convert converts src. A filter load failure recorded by the registry is
// returned instead of converting, on every call.
func (i *Invoker) Convert(src string, opts Options) (*Result, error) {
	if err := i.Registry.Err(); err != nil {
		return nil, err
	}
	res, err := i.Converter.Convert(src, opts, i.Registry.Active())
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	return res, nil
}

// Parse returns the unfiltered tree of src.
func (i *Invoker) Parse(src string) (*ast.Node, error) {
	n, err := i.Converter.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return n, nil
}

package filter

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseDescriptor parses YAML bytes into a Descriptor.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse descriptor: %w", err)
	}
	if err := ValidateDescriptor(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ValidateDescriptor checks required fields.
func ValidateDescriptor(d *Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("validate descriptor: missing 'name'")
	}
	if d.Module == "" {
		return fmt.Errorf("validate descriptor %q: missing 'module'", d.Name)
	}
	return nil
}

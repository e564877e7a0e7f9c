package filter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// Loader resolves a module id to its descriptor. Files in UserDir take
// priority over the embedded ones.
type Loader struct {
	Embedded fs.FS // rooted above the "filters" directory
	UserDir  string
}

// Load reads and validates the descriptor for module.
func (l *Loader) Load(module string) (*Descriptor, error) {
	data, err := l.read(module)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFilterLoad, module, err)
	}
	d, err := ParseDescriptor(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFilterLoad, module, err)
	}
	if d.Module != module {
		return nil, fmt.Errorf("%w: %s: descriptor declares module %q", ErrFilterLoad, module, d.Module)
	}
	return d, nil
}

func (l *Loader) read(module string) ([]byte, error) {
	name := module + ".yaml"
	if l.UserDir != "" {
		data, err := os.ReadFile(filepath.Join(l.UserDir, filepath.FromSlash(name)))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read user descriptor: %w", err)
		}
	}
	if l.Embedded == nil {
		return nil, fmt.Errorf("no descriptor for module")
	}
	data, err := fs.ReadFile(l.Embedded, path.Join("filters", name))
	if err != nil {
		return nil, fmt.Errorf("read embedded descriptor: %w", err)
	}
	return data, nil
}

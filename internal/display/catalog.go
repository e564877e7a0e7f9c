package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/Happy-Ferret/ruby2js/internal/filter"
)

// ListFilters writes the filter catalog to w, one row per entry, with the
// descriptor description when it loads. Entries that fail to load are listed
// with the error instead.
func ListFilters(w io.Writer, catalog filter.Catalog, loader *filter.Loader) {
	tty := IsTerminal(w)

	headers := []string{"Name", "Module", "Description"}
	var rows [][]string
	for _, e := range catalog {
		name := e.Name
		if e.Ordered {
			name += " (last)"
		}
		desc := ""
		if loader != nil {
			d, err := loader.Load(e.Module)
			switch {
			case err != nil:
				desc = "unavailable: " + err.Error()
				if tty {
					desc = WarnStyle.Render(desc)
				}
			default:
				desc = firstLine(d.Description)
			}
		}
		rows = append(rows, []string{name, e.Module, desc})
	}

	fmt.Fprint(w, FormatTable(headers, rows))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

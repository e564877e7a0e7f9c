package cli

import (
	"strconv"
	"strings"

	"github.com/Happy-Ferret/ruby2js/internal/engine"
)

// Flags holds parsed global flags.
type Flags struct {
	Verbose     int
	ESLevel     engine.ESLevel
	Strict      bool
	Serve       bool   // --port or --port=N
	Port        string // N from --port=N
	Install     string // docroot from --install=DIR
	Uninstall   string // docroot from --uninstall=DIR
	AST         bool
	Stats       bool
	ListFilters bool
	Version     bool
	Help        bool
}

// ParseFlags extracts global flags from anywhere in args and returns the
// remaining args in their original order. Filter pairs (-f NAME) and the
// input file are left in place. When several ES flags are given the highest
// level wins, regardless of position.
func ParseFlags(args []string) (Flags, []string) {
	var flags Flags
	var remaining []string
	var es2015, es2016, es2017 bool

	for _, arg := range args {
		switch {
		case arg == "--es2015":
			es2015 = true
		case arg == "--es2016":
			es2016 = true
		case arg == "--es2017":
			es2017 = true
		case arg == "--strict":
			flags.Strict = true
		case arg == "--port":
			flags.Serve = true
		case strings.HasPrefix(arg, "--port="):
			flags.Serve = true
			flags.Port = strings.TrimPrefix(arg, "--port=")
		case strings.HasPrefix(arg, "--install="):
			flags.Install = strings.TrimPrefix(arg, "--install=")
		case strings.HasPrefix(arg, "--uninstall="):
			flags.Uninstall = strings.TrimPrefix(arg, "--uninstall=")
		case arg == "--ast":
			flags.AST = true
		case arg == "--stats":
			flags.Stats = true
		case arg == "--list-filters":
			flags.ListFilters = true
		case arg == "-vv":
			flags.Verbose = 2
		case arg == "-v":
			if flags.Verbose < 1 {
				flags.Verbose = 1
			}
		case arg == "--version":
			flags.Version = true
		case arg == "--help" || arg == "-h":
			flags.Help = true
		case isStackedVerboseFlag(arg):
			flags.Verbose = strings.Count(arg, "v")
		default:
			remaining = append(remaining, arg)
		}
	}

	if es2015 {
		flags.ESLevel = engine.ES2015
	}
	if es2016 {
		flags.ESLevel = engine.ES2016
	}
	if es2017 {
		flags.ESLevel = engine.ES2017
	}

	return flags, remaining
}

// isStackedVerboseFlag detects flags like -vvv, -vvvv (only 'v' chars after dash).
func isStackedVerboseFlag(arg string) bool {
	if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
		return false
	}
	trimmed := strings.TrimLeft(arg, "-")
	return len(trimmed) > 0 && strings.Trim(trimmed, "v") == ""
}

// conversionArgs rebuilds the flags that affect conversions, for the CGI
// wrapper written by --install.
func conversionArgs(flags Flags, filters []string) []string {
	var args []string
	if flags.ESLevel != engine.ESUnset {
		args = append(args, "--es"+strconv.Itoa(int(flags.ESLevel)))
	}
	if flags.Strict {
		args = append(args, "--strict")
	}
	for _, f := range filters {
		args = append(args, "-f", f)
	}
	return args
}

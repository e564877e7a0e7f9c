package initcmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScriptName is the file written into the web docroot.
const ScriptName = "ruby2js.cgi"

const wrapperHeader = `#!/bin/sh
# ruby2js-demo CGI wrapper, written by ruby2js-demo --install
`

// Install writes an executable CGI wrapper into dir that runs binary with
// args (the filter and ES flags given at install time). It returns the
// path of the wrapper. An existing wrapper is replaced.
func Install(dir, binary string, args []string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("install: empty docroot")
	}
	abs, err := filepath.Abs(binary)
	if err != nil {
		return "", fmt.Errorf("resolve binary: %w", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("docroot: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("docroot: %s is not a directory", dir)
	}

	path := filepath.Join(dir, ScriptName)
	if err := os.WriteFile(path, []byte(wrapperScript(abs, args)), 0755); err != nil {
		return "", fmt.Errorf("write wrapper: %w", err)
	}
	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(path, 0755); err != nil {
		return "", fmt.Errorf("chmod wrapper: %w", err)
	}
	return path, nil
}

// Uninstall removes the wrapper from dir. A missing wrapper is not an error.
func Uninstall(dir string) error {
	err := os.Remove(filepath.Join(dir, ScriptName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove wrapper: %w", err)
	}
	return nil
}

func wrapperScript(binary string, args []string) string {
	var b strings.Builder
	b.WriteString(wrapperHeader)
	b.WriteString("exec ")
	b.WriteString(shellQuote(binary))
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(shellQuote(a))
	}
	b.WriteString(" \"$@\"\n")
	return b.String()
}

// shellQuote wraps s in single quotes for /bin/sh.
func shellQuote(s string) string {
	if s != "" && strings.Trim(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_./=") == "" {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

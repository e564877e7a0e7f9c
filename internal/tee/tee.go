package tee

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Happy-Ferret/ruby2js/internal/utils"
)

// Config for tee behavior.
type Config struct {
	Enabled     bool
	Mode        string // "failures", "always", "never"
	MaxFiles    int
	MaxFileSize int64
	Dir         string
}

// DefaultConfig returns tee defaults.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		Enabled:     true,
		Mode:        "failures",
		MaxFiles:    20,
		MaxFileSize: 1 << 20, // 1MB
		Dir:         filepath.Join(home, ".local", "share", "ruby2js-demo", "failed"),
	}
}

// MaybeSave keeps the Ruby source of a conversion so it can be replayed later.
// convErr is the conversion failure, nil on success. The error text is written
// as leading Ruby comments so the saved file is itself valid input.
// Returns a hint string if saved.
func MaybeSave(source string, convErr error, name string, cfg Config) string {
	if !cfg.Enabled || cfg.Mode == "never" {
		return ""
	}

	if os.Getenv("RUBY2JS_DEMO_TEE") == "0" {
		return ""
	}

	shouldSave := cfg.Mode == "always" || (cfg.Mode == "failures" && convErr != nil)
	if !shouldSave {
		return ""
	}

	if strings.TrimSpace(source) == "" {
		return ""
	}

	dir := cfg.Dir
	if envDir := os.Getenv("RUBY2JS_DEMO_TEE_DIR"); envDir != "" {
		dir = envDir
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "" // Silent failure
	}

	var b strings.Builder
	if convErr != nil {
		for _, line := range strings.Split(convErr.Error(), "\n") {
			b.WriteString("# ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	b.WriteString(source)
	data := truncateRunes(b.String(), cfg.MaxFileSize)

	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	filename := fmt.Sprintf("%d-%s.rb", time.Now().UnixNano(), utils.SafeName(base))
	path := filepath.Join(dir, filename)

	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return "" // Silent failure
	}

	rotateFiles(dir, cfg.MaxFiles)

	return fmt.Sprintf("[input saved: %s]", path)
}

// truncateRunes cuts s to at most max bytes on a rune boundary.
func truncateRunes(s string, max int64) string {
	if max <= 0 || int64(len(s)) <= max {
		return s
	}
	n := 0
	for i, r := range s {
		size := len(string(r))
		if int64(n+size) > max {
			return s[:i]
		}
		n += size
	}
	return s
}

func rotateFiles(dir string, maxFiles int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	var saved []os.DirEntry
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".rb") {
			saved = append(saved, e)
		}
	}

	if len(saved) <= maxFiles {
		return
	}

	// Timestamp prefix sorts chronologically
	sort.Slice(saved, func(i, j int) bool {
		return saved[i].Name() < saved[j].Name()
	})

	toRemove := len(saved) - maxFiles
	for i := 0; i < toRemove; i++ {
		os.Remove(filepath.Join(dir, saved[i].Name()))
	}
}

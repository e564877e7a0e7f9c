package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	ruby2js "github.com/Happy-Ferret/ruby2js"
	"github.com/Happy-Ferret/ruby2js/internal/ast"
	"github.com/Happy-Ferret/ruby2js/internal/config"
	"github.com/Happy-Ferret/ruby2js/internal/display"
	"github.com/Happy-Ferret/ruby2js/internal/engine"
	"github.com/Happy-Ferret/ruby2js/internal/filter"
	"github.com/Happy-Ferret/ruby2js/internal/initcmd"
	"github.com/Happy-Ferret/ruby2js/internal/render"
	"github.com/Happy-Ferret/ruby2js/internal/tee"
	"github.com/Happy-Ferret/ruby2js/internal/tracking"
	"github.com/Happy-Ferret/ruby2js/internal/utils"
	"github.com/Happy-Ferret/ruby2js/internal/web"
)

const version = "0.1.0"

// Replaced in tests.
var (
	newConverter = func(cfg *config.Config) (engine.Converter, error) {
		command, args, err := cfg.Converter.CommandLine()
		if err != nil {
			return nil, err
		}
		return &engine.ExecConverter{Command: command, Args: args}, nil
	}
	executable = os.Executable
)

// session is the state shared by the three modes.
type session struct {
	flags    Flags
	cfg      *config.Config
	sel      filter.Selection
	registry *filter.Registry
	invoker  *engine.Invoker
	tracker  *tracking.Tracker
	opts     engine.Options
	env      map[string]string
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
}

// Run is the main entry point. Returns exit code.
func Run(args, env []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		args = []string{"ruby2js-demo"}
	}
	flags, remaining := ParseFlags(args[1:])

	if flags.Version {
		fmt.Fprintf(stdout, "ruby2js-demo v%s\n", version)
		return 0
	}
	if flags.Help {
		printUsage(stdout)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		if flags.Verbose > 0 {
			fmt.Fprintf(stderr, "ruby2js-demo: config error: %v, using defaults\n", err)
		}
		cfg = config.DefaultConfig()
	}

	catalog := filter.DefaultCatalog()
	loader := &filter.Loader{Embedded: ruby2js.EmbeddedFilters, UserDir: cfg.Filters.Dir}

	if flags.ListFilters {
		display.ListFilters(stdout, catalog, loader)
		return 0
	}
	if flags.Stats {
		return runStats(cfg, remaining, stdout, stderr)
	}

	if flags.Uninstall != "" {
		return runUninstall(flags.Uninstall, stdout, stderr)
	}

	sel := filter.NewSelection()
	rest := filter.ConsumeFlags(sel, remaining)
	if flags.Verbose > 0 {
		for _, name := range unknownFilters(catalog, sel) {
			fmt.Fprintf(stderr, "ruby2js-demo: unknown filter %q ignored\n", name)
		}
	}

	if flags.Install != "" {
		return runInstall(flags, sel, stdout, stderr)
	}

	converter, err := newConverter(cfg)
	if err != nil {
		display.PrintError(stderr, err.Error())
		return 1
	}

	registry := filter.NewRegistry(catalog, loader)
	s := &session{
		flags:    flags,
		cfg:      cfg,
		sel:      sel,
		registry: registry,
		invoker:  &engine.Invoker{Converter: converter, Registry: registry},
		opts:     engine.Options{ESLevel: flags.ESLevel, Strict: flags.Strict},
		env:      web.EnvMap(env),
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
	}

	if cfg.Tracking.Enabled {
		tracker, err := tracking.NewTracker(tracking.DBPath(cfg.Tracking.DBPath))
		if err != nil {
			if flags.Verbose > 0 {
				fmt.Fprintf(stderr, "ruby2js-demo: tracking disabled: %v\n", err)
			}
		} else {
			s.tracker = tracker
			defer tracker.Close()
		}
	}

	if _, ok := s.env["REQUEST_METHOD"]; ok {
		return s.runCGI()
	}
	if port, ok := s.serverPort(); ok {
		return s.runServer(port)
	}
	return s.runBatch(rest)
}

// serverPort picks the standalone server port: --port=N, then SERVER_PORT,
// then the configured port. Like REQUEST_METHOD, SERVER_PORT selects the
// mode by presence; an empty value falls back to the configured port.
func (s *session) serverPort() (string, bool) {
	if s.flags.Port != "" {
		return s.flags.Port, true
	}
	if port, ok := s.env["SERVER_PORT"]; ok {
		if port == "" {
			return strconv.Itoa(s.cfg.Server.Port), true
		}
		return port, true
	}
	if s.flags.Serve {
		return strconv.Itoa(s.cfg.Server.Port), true
	}
	return "", false
}

func (s *session) runBatch(rest []string) int {
	if err := s.registry.Activate(s.sel); err != nil {
		display.PrintError(s.stderr, fmt.Sprintf("cannot load filters: %v", err))
		return 1
	}
	if s.flags.Verbose > 0 {
		fmt.Fprintf(s.stderr, "ruby2js-demo: filters: %s\n", strings.Join(s.registry.Names(), ","))
	}

	opts := s.opts
	name := "-"
	var src []byte
	var err error
	if len(rest) > 0 && rest[0] != "-" {
		name = rest[0]
		opts.File = name
		src, err = os.ReadFile(name)
	} else {
		src, err = io.ReadAll(s.stdin)
	}
	if err != nil {
		display.PrintError(s.stderr, fmt.Sprintf("read input: %v", err))
		return 1
	}

	timed := tracking.Start(s.tracker)
	res, convErr := s.invoker.Convert(string(src), opts)

	rec := tracking.Record{
		Mode:       "batch",
		Source:     name,
		Filters:    strings.Join(s.registry.Names(), ","),
		ESLevel:    int(opts.ESLevel),
		InputBytes: len(src),
		Failed:     convErr != nil,
	}
	if res != nil {
		rec.OutputBytes = len(res.Text)
	}
	if err := timed.Track(rec); err != nil && s.flags.Verbose > 0 {
		fmt.Fprintf(s.stderr, "ruby2js-demo: track: %v\n", err)
	}

	hint := tee.MaybeSave(string(src), convErr, name, s.teeConfig())
	if convErr != nil {
		display.PrintError(s.stderr, convErr.Error())
		if hint != "" {
			display.PrintHint(s.stderr, hint)
		}
		return 1
	}
	if hint != "" && s.flags.Verbose > 0 {
		display.PrintHint(s.stderr, hint)
	}

	if s.flags.AST {
		parsed, err := s.invoker.Parse(string(src))
		if err != nil {
			display.PrintError(s.stderr, err.Error())
		} else {
			styled := s.cfg.Display.Color && display.IsTerminal(s.stderr)
			fmt.Fprint(s.stderr, render.Text(render.Render(parsed, res.Tree, ast.Equal), styled))
		}
	}

	if s.flags.Verbose > 1 {
		fmt.Fprintf(s.stderr, "ruby2js-demo: %d lines of Ruby, %d lines of JavaScript\n",
			utils.CountLines(string(src)), utils.CountLines(res.Text))
	}

	fmt.Fprintln(s.stdout, res.Text)
	return 0
}

func (s *session) handler(mode string) *web.Handler {
	return &web.Handler{
		Registry:   s.registry,
		Invoker:    s.invoker,
		Options:    s.opts,
		ArgFilters: s.sel,
		Tracker:    s.tracker,
		Logger:     s.logger(),
		Mode:       mode,
	}
}

func (s *session) runCGI() int {
	if err := web.ServeCGI(s.env, s.stdin, s.stdout, s.handler("cgi")); err != nil {
		display.PrintError(s.stderr, err.Error())
		return 1
	}
	return 0
}

func (s *session) runServer(port string) int {
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		display.PrintError(s.stderr, fmt.Sprintf("invalid port %q", port))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := web.ListenAndServe(ctx, ":"+port, s.handler("server"), s.logger()); err != nil {
		display.PrintError(s.stderr, err.Error())
		return 1
	}
	return 0
}

func (s *session) logger() *slog.Logger {
	level := slog.LevelInfo
	if s.flags.Verbose > 0 {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(s.stderr, &slog.HandlerOptions{Level: level}))
}

func (s *session) teeConfig() tee.Config {
	teeCfg := tee.DefaultConfig()
	teeCfg.Enabled = s.cfg.Tee.Enabled
	teeCfg.Mode = s.cfg.Tee.Mode
	teeCfg.MaxFiles = s.cfg.Tee.MaxFiles
	teeCfg.MaxFileSize = s.cfg.Tee.MaxFileSize
	if s.cfg.Tee.Dir != "" {
		teeCfg.Dir = s.cfg.Tee.Dir
	}
	return teeCfg
}

func runStats(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	var tracker *tracking.Tracker
	if cfg.Tracking.Enabled {
		t, err := tracking.NewTracker(tracking.DBPath(cfg.Tracking.DBPath))
		if err != nil {
			display.PrintError(stderr, err.Error())
			return 1
		}
		defer t.Close()
		tracker = t
	}
	if err := display.RunStats(tracker, args, stdout); err != nil {
		display.PrintError(stderr, err.Error())
		return 1
	}
	return 0
}

func runInstall(flags Flags, sel filter.Selection, stdout, stderr io.Writer) int {
	bin, err := executable()
	if err != nil {
		display.PrintError(stderr, fmt.Sprintf("locate binary: %v", err))
		return 1
	}
	path, err := initcmd.Install(flags.Install, bin, conversionArgs(flags, sel.Names()))
	if err != nil {
		display.PrintError(stderr, err.Error())
		return 1
	}
	fmt.Fprintf(stdout, "installed: %s\n", path)
	return 0
}

func runUninstall(dir string, stdout, stderr io.Writer) int {
	if err := initcmd.Uninstall(dir); err != nil {
		display.PrintError(stderr, err.Error())
		return 1
	}
	fmt.Fprintf(stdout, "removed: %s\n", filepath.Join(dir, initcmd.ScriptName))
	return 0
}

// unknownFilters returns the selected names that are not in the catalog.
func unknownFilters(catalog filter.Catalog, sel filter.Selection) []string {
	var unknown []string
	for _, name := range sel.Names() {
		if name == "all" {
			continue
		}
		if _, ok := catalog.Lookup(name); !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

func printUsage(w io.Writer) {
	usage := `ruby2js-demo v%s

Usage:
  ruby2js-demo [options] [file]        convert file (or stdin) to JavaScript
  ruby2js-demo --port[=N] [options]    run the interactive page as a server
  ruby2js-demo --install=DIR [options] install a CGI wrapper into a docroot
  ruby2js-demo --uninstall=DIR         remove the CGI wrapper from a docroot

When REQUEST_METHOD is set the program answers one CGI request.
In interactive mode the request path selects filters: /jquery/camelCase

Options:
  -f, --filter NAME   enable a filter (repeatable, must come first; "all" for every filter)
  --es2015            target ES2015
  --es2016            target ES2016
  --es2017            target ES2017
  --strict            strict mode
  --ast               print the syntax tree to stderr
  --list-filters      list available filters
  --stats             show the conversion log (--history N, --top N, --json, --csv)
  -v, -vv             verbose output
  --version           show version
  --help              show this help
`
	fmt.Fprintf(w, usage, version)
}

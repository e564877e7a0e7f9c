package cli

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Happy-Ferret/ruby2js/internal/config"
	"github.com/Happy-Ferret/ruby2js/internal/engine"
	"github.com/Happy-Ferret/ruby2js/internal/engine/enginetest"
	"github.com/Happy-Ferret/ruby2js/internal/initcmd"
	"github.com/Happy-Ferret/ruby2js/internal/tracking"
)

type testEnv struct {
	dir  string
	fake *enginetest.Fake
}

// newTestEnv points the config at a temp dir and swaps in the fake converter.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`[filters]
dir = %q

[tracking]
enabled = true
db_path = %q

[tee]
enabled = true
mode = "failures"
max_files = 5
max_file_size = 1048576
dir = %q
`, filepath.Join(dir, "filters"), filepath.Join(dir, "conversions.db"), filepath.Join(dir, "failed"))
	cfgPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RUBY2JS_DEMO_CONFIG", cfgPath)
	t.Setenv("RUBY2JS_DEMO_DB_PATH", "")
	t.Setenv("RUBY2JS_DEMO_TEE", "")
	t.Setenv("RUBY2JS_DEMO_TEE_DIR", "")

	fake := &enginetest.Fake{}
	orig := newConverter
	newConverter = func(*config.Config) (engine.Converter, error) { return fake, nil }
	t.Cleanup(func() { newConverter = orig })

	return &testEnv{dir: dir, fake: fake}
}

func (e *testEnv) run(t *testing.T, stdin string, env []string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(append([]string{"ruby2js-demo"}, args...), env, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (e *testEnv) writeFile(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchFile(t *testing.T) {
	e := newTestEnv(t)
	input := e.writeFile(t, "input.rb", "puts hello")

	code, stdout, stderr := e.run(t, "ignored", nil, input)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	if stdout != "puts()\nhello()\n" {
		t.Errorf("stdout = %q", stdout)
	}
	calls := e.fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d", len(calls))
	}
	if calls[0].Source != "puts hello" || calls[0].Options.File != input {
		t.Errorf("call = %+v", calls[0])
	}
}

func TestBatchStdin(t *testing.T) {
	e := newTestEnv(t)

	for _, args := range [][]string{nil, {"-"}} {
		code, stdout, _ := e.run(t, "a", nil, args...)
		if code != 0 || stdout != "a()\n" {
			t.Errorf("args %v: exit = %d, stdout = %q", args, code, stdout)
		}
	}
	for _, c := range e.fake.Calls() {
		if c.Options.File != "" {
			t.Errorf("file = %q for stdin input", c.Options.File)
		}
	}
}

func TestBatchOptions(t *testing.T) {
	e := newTestEnv(t)

	code, stdout, _ := e.run(t, "a", nil, "--es2015", "--strict", "--es2017")
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if stdout != "// es2017\na()\n" {
		t.Errorf("stdout = %q", stdout)
	}
	want := engine.Options{ESLevel: engine.ES2017, Strict: true}
	if diff := cmp.Diff(want, e.fake.Calls()[0].Options); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestBatchFilters(t *testing.T) {
	e := newTestEnv(t)

	code, stdout, stderr := e.run(t, "a", nil, "-f", "camelCase", "--filter", "jquery", "-f", "nosuch")
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	if diff := cmp.Diff([]string{"jquery", "camelCase"}, e.fake.Calls()[0].Filters); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(stdout, "// filters: jquery, camelCase\n") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestBatchFilterFlagsOnlyAtFront(t *testing.T) {
	e := newTestEnv(t)
	input := e.writeFile(t, "input.rb", "a")

	// -f after the file name is not a filter selection
	code, _, _ := e.run(t, "", nil, input, "-f", "jquery")
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if got := e.fake.Calls()[0].Filters; len(got) != 0 {
		t.Errorf("filters = %v, want none", got)
	}
}

func TestBatchFilterLoadFailure(t *testing.T) {
	e := newTestEnv(t)
	// a user descriptor that declares the wrong module fails to load
	e.writeFile(t, "filters/ruby2js/filter/vue.yaml", "name: vue\nmodule: ruby2js/filter/other\n")

	code, stdout, stderr := e.run(t, "a", nil, "-f", "vue", "-f", "jquery")
	if code != 1 {
		t.Errorf("exit = %d, want 1", code)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}
	if !strings.Contains(stderr, "ruby2js-demo: cannot load filters") || !strings.Contains(stderr, `"vue"`) {
		t.Errorf("stderr = %q", stderr)
	}
	if len(e.fake.Calls()) != 0 {
		t.Error("converter called despite load failure")
	}
}

func TestBatchUserDescriptorOverride(t *testing.T) {
	e := newTestEnv(t)
	e.writeFile(t, "filters/ruby2js/filter/vue.yaml", "name: vue-local\nmodule: ruby2js/filter/vue\n")

	code, _, _ := e.run(t, "a", nil, "-f", "vue")
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if got := e.fake.Calls()[0].Filters; len(got) != 1 || got[0] != "vue-local" {
		t.Errorf("filters = %v", got)
	}
}

func TestBatchConversionFailure(t *testing.T) {
	e := newTestEnv(t)

	code, stdout, stderr := e.run(t, "oops raise", nil)
	if code != 1 {
		t.Errorf("exit = %d, want 1", code)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}
	if !strings.Contains(stderr, "conversion failed") {
		t.Errorf("stderr = %q", stderr)
	}
	if !strings.Contains(stderr, "[input saved: ") {
		t.Errorf("missing tee hint: %q", stderr)
	}
	saved, _ := filepath.Glob(filepath.Join(e.dir, "failed", "*-stdin.rb"))
	if len(saved) != 1 {
		t.Fatalf("saved files = %v", saved)
	}
	data, _ := os.ReadFile(saved[0])
	if !strings.HasSuffix(string(data), "\noops raise") {
		t.Errorf("saved content = %q", data)
	}
}

func TestBatchMissingFile(t *testing.T) {
	e := newTestEnv(t)

	code, stdout, stderr := e.run(t, "", nil, filepath.Join(e.dir, "nope.rb"))
	if code != 1 || stdout != "" {
		t.Errorf("exit = %d, stdout = %q", code, stdout)
	}
	if !strings.Contains(stderr, "read input") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestBatchAST(t *testing.T) {
	e := newTestEnv(t)

	code, stdout, stderr := e.run(t, "a", nil, "--ast", "-f", "jquery")
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if stdout != "// filters: jquery\na()\n" {
		t.Errorf("stdout = %q", stdout)
	}
	want := "AST\nbegin\n  send nil \"a\"\n\nfiltered AST\nbegin *\n  send nil \"a\" *\n  filter \"jquery\" *\n"
	if stderr != want {
		t.Errorf("stderr = %q, want %q", stderr, want)
	}
}

func TestBatchTracksConversions(t *testing.T) {
	e := newTestEnv(t)

	e.run(t, "a b", nil, "-f", "jquery")
	e.run(t, "raise", nil)

	tracker, err := tracking.NewTracker(filepath.Join(e.dir, "conversions.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer tracker.Close()

	recent, err := tracker.GetRecent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("records = %d", len(recent))
	}
	if !recent[0].Failed || recent[0].Mode != "batch" {
		t.Errorf("latest = %+v", recent[0])
	}
	if recent[1].Filters != "jquery" || recent[1].InputBytes != 3 || recent[1].Source != "-" {
		t.Errorf("first = %+v", recent[1])
	}

	code, stdout, _ := e.run(t, "", nil, "--stats")
	if code != 0 || !strings.Contains(stdout, "Conversions") || !strings.Contains(stdout, "jquery") {
		t.Errorf("stats exit = %d:\n%s", code, stdout)
	}
}

func TestCGIMode(t *testing.T) {
	e := newTestEnv(t)

	form := url.Values{"ruby": {"x"}}.Encode()
	env := []string{
		"REQUEST_METHOD=POST",
		"SERVER_PROTOCOL=HTTP/1.1",
		"SERVER_PORT=80",
		"PATH_INFO=/jquery",
		"CONTENT_TYPE=application/x-www-form-urlencoded",
		"CONTENT_LENGTH=" + strconv.Itoa(len(form)),
	}
	code, stdout, stderr := e.run(t, form, env, "-f", "camelCase")
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "Status: 200 OK\r\n") {
		t.Errorf("not a CGI response:\n%s", stdout)
	}
	if !strings.Contains(stdout, "// filters: jquery, camelCase\nx()") {
		t.Errorf("output missing:\n%s", stdout)
	}
}

func TestCGIModeLoadErrorShownOnPage(t *testing.T) {
	e := newTestEnv(t)
	e.writeFile(t, "filters/ruby2js/filter/vue.yaml", "not: [valid")

	form := url.Values{"ruby": {"x"}}.Encode()
	env := []string{
		"REQUEST_METHOD=POST",
		"SERVER_PROTOCOL=HTTP/1.1",
		"PATH_INFO=/vue",
		"CONTENT_TYPE=application/x-www-form-urlencoded",
		"CONTENT_LENGTH=" + strconv.Itoa(len(form)),
	}
	code, stdout, _ := e.run(t, form, env)
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(stdout, `<pre class="error">`) {
		t.Errorf("load error not shown:\n%s", stdout)
	}
}

func TestCGIModeEmptyRequestMethod(t *testing.T) {
	e := newTestEnv(t)

	code, stdout, stderr := e.run(t, "", []string{"REQUEST_METHOD="}, "app.rb")
	if code != 1 {
		t.Errorf("exit = %d, want 1", code)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}
	if !strings.Contains(stderr, "cgi request") {
		t.Errorf("stderr = %q", stderr)
	}
	if calls := e.fake.Calls(); len(calls) != 0 {
		t.Errorf("converter called %d times in CGI mode", len(calls))
	}
}

func TestServerInvalidPort(t *testing.T) {
	e := newTestEnv(t)

	code, _, stderr := e.run(t, "", nil, "--port=http")
	if code != 1 || !strings.Contains(stderr, `invalid port "http"`) {
		t.Errorf("exit = %d, stderr = %q", code, stderr)
	}
	code, _, stderr = e.run(t, "", []string{"SERVER_PORT=99999"})
	if code != 1 || !strings.Contains(stderr, `invalid port "99999"`) {
		t.Errorf("exit = %d, stderr = %q", code, stderr)
	}
}

func TestServerPort(t *testing.T) {
	cfg := config.DefaultConfig()
	tests := []struct {
		name  string
		flags Flags
		env   map[string]string
		want  string
		ok    bool
	}{
		{"batch", Flags{}, nil, "", false},
		{"flag", Flags{Serve: true, Port: "9000"}, map[string]string{"SERVER_PORT": "80"}, "9000", true},
		{"env", Flags{}, map[string]string{"SERVER_PORT": "3000"}, "3000", true},
		{"bare flag", Flags{Serve: true}, nil, "8080", true},
		{"empty env", Flags{}, map[string]string{"SERVER_PORT": ""}, "8080", true},
		{"other env only", Flags{}, map[string]string{"PATH": "/bin"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &session{flags: tt.flags, cfg: cfg, env: tt.env}
			got, ok := s.serverPort()
			if got != tt.want || ok != tt.ok {
				t.Errorf("serverPort() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestInstall(t *testing.T) {
	e := newTestEnv(t)
	docroot := filepath.Join(e.dir, "www")
	if err := os.Mkdir(docroot, 0755); err != nil {
		t.Fatal(err)
	}

	orig := executable
	executable = func() (string, error) { return "/usr/local/bin/ruby2js-demo", nil }
	t.Cleanup(func() { executable = orig })

	code, stdout, stderr := e.run(t, "", nil, "--install="+docroot, "--es2017", "-f", "jquery")
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	path := filepath.Join(docroot, initcmd.ScriptName)
	if stdout != "installed: "+path+"\n" {
		t.Errorf("stdout = %q", stdout)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "exec /usr/local/bin/ruby2js-demo --es2017 -f jquery \"$@\"") {
		t.Errorf("wrapper = %q", data)
	}
	if len(e.fake.Calls()) != 0 {
		t.Error("install should not convert")
	}
}

func TestUninstall(t *testing.T) {
	e := newTestEnv(t)
	docroot := filepath.Join(e.dir, "www")
	if err := os.Mkdir(docroot, 0755); err != nil {
		t.Fatal(err)
	}
	path := e.writeFile(t, filepath.Join("www", initcmd.ScriptName), "#!/bin/sh\n")

	code, stdout, stderr := e.run(t, "", nil, "--uninstall="+docroot)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	if stdout != "removed: "+path+"\n" {
		t.Errorf("stdout = %q", stdout)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("wrapper still present: %v", err)
	}

	// Running it again is not an error.
	if code, _, stderr := e.run(t, "", nil, "--uninstall="+docroot); code != 0 {
		t.Errorf("second uninstall exit = %d, stderr = %s", code, stderr)
	}
	if len(e.fake.Calls()) != 0 {
		t.Error("uninstall should not convert")
	}
}

func TestUnknownFilterNotedWhenVerbose(t *testing.T) {
	e := newTestEnv(t)

	code, stdout, stderr := e.run(t, "x", nil, "-f", "coffee", "-f", "jquery", "-v")
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stderr, `unknown filter "coffee" ignored`) {
		t.Errorf("stderr = %q", stderr)
	}
	if strings.Contains(stderr, `"jquery" ignored`) {
		t.Errorf("known filter reported as unknown: %q", stderr)
	}
	if stdout != "// filters: jquery\nx()\n" {
		t.Errorf("stdout = %q", stdout)
	}

	_, _, stderr = e.run(t, "x", nil, "-f", "coffee")
	if strings.Contains(stderr, "coffee") {
		t.Errorf("unknown filter reported without -v: %q", stderr)
	}
}

func TestListFilters(t *testing.T) {
	e := newTestEnv(t)

	code, stdout, _ := e.run(t, "", nil, "--list-filters")
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	for _, want := range []string{"ruby2js/filter/jquery", "ruby2js/es2015", "camelCase (last)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("listing missing %q:\n%s", want, stdout)
		}
	}
}

func TestVersionAndHelp(t *testing.T) {
	e := newTestEnv(t)

	code, stdout, _ := e.run(t, "", nil, "--version")
	if code != 0 || stdout != "ruby2js-demo v"+version+"\n" {
		t.Errorf("version: exit = %d, stdout = %q", code, stdout)
	}
	code, stdout, _ = e.run(t, "", nil, "--help")
	if code != 0 || !strings.Contains(stdout, "--install=DIR") {
		t.Errorf("help: exit = %d, stdout = %q", code, stdout)
	}
	if len(e.fake.Calls()) != 0 {
		t.Error("converter called")
	}
}

func TestBatchVerbose(t *testing.T) {
	e := newTestEnv(t)

	code, stdout, stderr := e.run(t, "a\nb\n", nil, "-vv", "-f", "jquery")
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if stdout != "// filters: jquery\na()\nb()\n" {
		t.Errorf("stdout = %q", stdout)
	}
	for _, want := range []string{"ruby2js-demo: filters: jquery\n", "2 lines of Ruby, 3 lines of JavaScript"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q: %q", want, stderr)
		}
	}
}

func TestDefaultConverterFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Converter = config.ConverterConfig{Command: "ruby /opt/bridge.rb --json"}

	conv, err := newConverter(cfg)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := conv.(*engine.ExecConverter)
	if !ok {
		t.Fatalf("converter = %T", conv)
	}
	want := &engine.ExecConverter{Command: "ruby", Args: []string{"/opt/bridge.rb", "--json"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("converter mismatch (-want +got):\n%s", diff)
	}

	cfg.Converter = config.ConverterConfig{Command: `"unterminated`}
	if _, err := newConverter(cfg); err == nil {
		t.Error("expected error for malformed command line")
	}
}

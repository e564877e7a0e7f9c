package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Happy-Ferret/ruby2js/internal/ast"
	"github.com/Happy-Ferret/ruby2js/internal/filter"
	"github.com/Happy-Ferret/ruby2js/internal/utils"
)

const maxStderr = 2000

type bridgeRequest struct {
	Mode    string              `json:"mode"` // "convert" or "parse"
	Source  string              `json:"source"`
	Options *Options            `json:"options,omitempty"`
	Filters []filter.Descriptor `json:"filters,omitempty"`
}

type bridgeResponse struct {
	Text  string    `json:"text"`
	AST   *ast.Node `json:"ast"`
	Error string    `json:"error"`
}

// ExecConverter drives an external converter bridge process. Each call
// starts the command, writes one JSON request on its stdin and reads one
// JSON response from its stdout.
type ExecConverter struct {
	Command string
	Args    []string
}

// Convert implements Converter.
func (c *ExecConverter) Convert(src string, opts Options, filters []filter.Descriptor) (*Result, error) {
	resp, err := c.call(bridgeRequest{Mode: "convert", Source: src, Options: &opts, Filters: filters})
	if err != nil {
		return nil, err
	}
	return &Result{Text: resp.Text, Tree: resp.AST}, nil
}

// Parse implements Converter.
func (c *ExecConverter) Parse(src string) (*ast.Node, error) {
	resp, err := c.call(bridgeRequest{Mode: "parse", Source: src})
	if err != nil {
		return nil, err
	}
	if resp.AST == nil {
		return nil, fmt.Errorf("%w: parse returned no tree", ErrConversion)
	}
	return resp.AST, nil
}

func (c *ExecConverter) call(req bridgeRequest) (*bridgeResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	res, err := Execute(c.Command, c.Args, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConversion, c.Command, err)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("%w: %s exited %d%s", ErrConversion, c.Command, res.ExitCode, stderrDetail(res.Stderr))
	}

	var resp bridgeResponse
	if err := json.Unmarshal([]byte(res.Stdout), &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w%s", ErrConversion, err, stderrDetail(res.Stderr))
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrConversion, resp.Error)
	}
	return &resp, nil
}

func stderrDetail(stderr string) string {
	s := strings.TrimSpace(utils.StripANSI(stderr))
	if s == "" {
		return ""
	}
	return ": " + utils.Truncate(s, maxStderr)
}

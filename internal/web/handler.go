// Package web serves the interactive conversion page, either as a CGI
// program or as a standalone HTTP server.
package web

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Happy-Ferret/ruby2js/internal/ast"
	"github.com/Happy-Ferret/ruby2js/internal/engine"
	"github.com/Happy-Ferret/ruby2js/internal/filter"
	"github.com/Happy-Ferret/ruby2js/internal/render"
	"github.com/Happy-Ferret/ruby2js/internal/tracking"
)

// Handler renders the conversion form and, when source is posted, the
// converted output. Filters named by the request path are added to the
// shared registry on every request; ArgFilters are added as well.
type Handler struct {
	Registry   *filter.Registry
	Invoker    *engine.Invoker
	Options    engine.Options   // base options from the command line
	ArgFilters filter.Selection // -f names from the command line
	Tracker    *tracking.Tracker
	Logger     *slog.Logger
	Mode       string // recorded in the conversion log
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return h.Logger
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodPost:
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	sel := filter.SelectFromPath(r.URL.Path)
	sel.Union(h.ArgFilters)
	if err := h.Registry.Activate(sel); err != nil {
		h.logger().Warn("filter load failed", "path", r.URL.Path, "err", err)
	}

	p := &pageData{
		Ruby:    r.FormValue("ruby"),
		ShowAST: r.FormValue("ast") != "",
		ES2017:  r.FormValue("es2017") != "",
	}
	if p.Ruby != "" {
		h.convert(p, r.URL.Path)
	}

	var buf bytes.Buffer
	if err := writePage(&buf, p); err != nil {
		h.logger().Error("render page", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(buf.Bytes())
	}
}

// convert fills the result part of p. Failures are shown on the page.
func (h *Handler) convert(p *pageData, path string) {
	p.Submitted = true

	opts := h.Options
	if p.ES2017 {
		opts.ESLevel = engine.ES2017
	}

	timed := tracking.Start(h.Tracker)
	rec := tracking.Record{
		Mode:       h.Mode,
		Source:     path,
		Filters:    strings.Join(h.Registry.Names(), ","),
		ESLevel:    int(opts.ESLevel),
		InputBytes: len(p.Ruby),
	}
	defer func() {
		rec.Failed = p.Error != ""
		rec.OutputBytes = len(p.JavaScript)
		if err := timed.Track(rec); err != nil {
			h.logger().Debug("track conversion", "err", err)
		}
	}()

	res, err := h.Invoker.Convert(p.Ruby, opts)
	if err != nil {
		h.logger().Info("conversion failed", "path", path, "err", err)
		p.Error = err.Error()
		return
	}

	if p.ShowAST {
		parsed, err := h.Invoker.Parse(p.Ruby)
		if err != nil {
			p.Error = err.Error()
			return
		}
		p.Sections = render.Render(parsed, res.Tree, ast.Equal)
	}
	p.JavaScript = res.Text
}
